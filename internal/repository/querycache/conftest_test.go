package querycache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/db"
)

type mockSearcher struct {
	body        []byte
	err         error
	count       int64
	searchCalls int
	countCalls  int
}

func (m *mockSearcher) Search(_ context.Context, _ string, _ []byte) ([]byte, error) {
	m.searchCalls++
	return m.body, m.err
}

func (m *mockSearcher) Count(_ context.Context, _ string, _ []byte) (int64, error) {
	m.countCalls++
	return m.count, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn        func(ctx context.Context, key string) ([]byte, error)
	setFn        func(ctx context.Context, key string, value []byte) error
	setWithTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setWithTTLFn != nil {
		return m.setWithTTLFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCache(t *testing.T, inner *mockSearcher, ttl time.Duration) (*Searcher, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(inner, ms, ttl, nil, zap.NewNop()), ms
}
