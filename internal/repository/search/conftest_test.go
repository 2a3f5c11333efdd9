package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/esquery/internal/db/elastic"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, index string, body []byte) ([]byte, error)
	countFn  func(ctx context.Context, index string, body []byte) (int64, error)
}

func (m *mockStore) Search(ctx context.Context, index string, body []byte) ([]byte, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, index, body)
	}
	return []byte(`{"hits":{"total":{"value":0},"hits":[]}}`), nil
}

func (m *mockStore) Count(ctx context.Context, index string, body []byte) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, index, body)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, elastic.Options{DefaultSize: 20}), ms
}
