package esquery

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/repository/querycache"
)

type item struct {
	ID  int
	Sku string
}

type product struct {
	ID      int     `json:"id"`
	Name    string
	Brand   string  `esquery:"maker,keyword"`
	Price   float64
	Created time.Time
	Items   []item
}

// mockSearcher records requests and replays a canned response.
type mockSearcher struct {
	response string
	count    int64
	err      error
	searches int
	bodies   []string
}

func (m *mockSearcher) Search(_ context.Context, _ string, body []byte) ([]byte, error) {
	m.searches++
	m.bodies = append(m.bodies, string(body))
	if m.err != nil {
		return nil, m.err
	}
	if m.response == "" {
		return []byte(`{"hits":{"total":{"value":0},"hits":[]}}`), nil
	}
	return []byte(m.response), nil
}

func (m *mockSearcher) Count(_ context.Context, _ string, body []byte) (int64, error) {
	m.bodies = append(m.bodies, string(body))
	return m.count, m.err
}

func (m *mockSearcher) lastBody() string {
	if len(m.bodies) == 0 {
		return ""
	}
	return m.bodies[len(m.bodies)-1]
}

func newTestClient(s db.Searcher) *Client {
	return &Client{svc: newService(s, &clientConfig{})}
}

func newCachedSearcher(s db.Searcher) db.Searcher {
	return querycache.New(s, memoryKV{}, 0, nil, zap.NewNop())
}

// memoryKV is an in-memory response cache.
type memoryKV map[string][]byte

func (m memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := m[key]; ok {
		return v, nil
	}
	return nil, db.ErrKeyNotFound
}

func (m memoryKV) Set(_ context.Context, key string, value []byte) error {
	m[key] = value
	return nil
}

func (m memoryKV) SetWithTTL(ctx context.Context, key string, value []byte, _ time.Duration) error {
	return m.Set(ctx, key, value)
}

// querySection returns the normalized "query" member of a request body.
func querySection(t *testing.T, body string) string {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("bad body %s: %v", body, err)
	}
	out, _ := json.Marshal(m["query"])
	return string(out)
}

func normalize(t *testing.T, s string) string {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad json %s: %v", s, err)
	}
	out, _ := json.Marshal(v)
	return string(out)
}
