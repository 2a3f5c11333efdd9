package chi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/db/elastic"
	"github.com/kailas-cloud/esquery/internal/mapping"
	"github.com/kailas-cloud/esquery/internal/repository/querycache"
	reposearch "github.com/kailas-cloud/esquery/internal/repository/search"
	healthuc "github.com/kailas-cloud/esquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
	"github.com/kailas-cloud/esquery/internal/usecase/translate"
)

// mockEngine stands in for the search engine transport.
type mockEngine struct {
	response string
	count    int64
	err      error
	pingErr  error
	searches int
	lastBody string
}

func (m *mockEngine) Search(_ context.Context, _ string, body []byte) ([]byte, error) {
	m.searches++
	m.lastBody = string(body)
	if m.err != nil {
		return nil, m.err
	}
	if m.response == "" {
		return []byte(`{"hits":{"total":{"value":0},"hits":[]}}`), nil
	}
	return []byte(m.response), nil
}

func (m *mockEngine) Count(_ context.Context, _ string, body []byte) (int64, error) {
	m.lastBody = string(body)
	return m.count, m.err
}

func (m *mockEngine) Ping(_ context.Context) error { return m.pingErr }

// memoryKV is an in-memory cache store.
type memoryKV struct {
	data map[string][]byte
	gets int
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.gets++
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, db.ErrKeyNotFound
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memoryKV) SetWithTTL(ctx context.Context, key string, value []byte, _ time.Duration) error {
	return m.Set(ctx, key, value)
}

type testServer struct {
	engine *mockEngine
	kv     *memoryKV
	server *Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	engine := &mockEngine{}
	kv := &memoryKV{data: make(map[string][]byte)}
	cached := querycache.New(engine, kv, time.Minute, nil, zap.NewNop())
	svc := searchuc.New(translate.New(mapping.Default{}), reposearch.New(cached, elastic.Options{}))
	health := healthuc.New(engine, nil)
	return &testServer{engine: engine, kv: kv, server: NewServer(svc, health, zap.NewNop())}
}

// routes mounts the server without the middleware chain.
func routes(s *Server) http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}
