// Package esquery translates typed Go queries into search engine query DSL
// and runs them against OpenSearch or Elasticsearch.
package esquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/esquery/internal/db/redis"
	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
	"github.com/kailas-cloud/esquery/internal/domain/search/result"
	"github.com/kailas-cloud/esquery/internal/logger"
	"github.com/kailas-cloud/esquery/internal/mapping"
	"github.com/kailas-cloud/esquery/internal/repository/querycache"
	searchrepo "github.com/kailas-cloud/esquery/internal/repository/search"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
	"github.com/kailas-cloud/esquery/internal/usecase/translate"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the esquery SDK entry point.
type Client struct {
	engine *elastic.Store
	cache  *dbRedis.Store
	svc    *searchuc.Service
	logger *zap.Logger
	obs    *observer
}

// New creates a Client and waits until the search engine (and the cache,
// if configured) respond.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o(cfg)
	}
	if len(cfg.addrs) == 0 {
		return nil, errors.New("esquery: search engine address required (use WithAddresses)")
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	engine, err := elastic.NewStore(elastic.Config{
		Addrs:              cfg.addrs,
		Username:           cfg.username,
		Password:           cfg.password,
		InsecureSkipVerify: cfg.insecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("esquery: create engine client: %w", err)
	}
	ctx := context.Background()
	if err := engine.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		return nil, fmt.Errorf("esquery: search engine not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{engine: engine, logger: cfg.logger, obs: obs}
	var searcher db.Searcher = engine
	if len(cfg.cacheAddrs) > 0 {
		cache, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.cacheAddrs, Password: cfg.cachePassword})
		if err != nil {
			return nil, fmt.Errorf("esquery: create cache store: %w", err)
		}
		if err := cache.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
			cache.Close()
			return nil, fmt.Errorf("esquery: cache not ready: %w", err)
		}
		c.cache = cache
		searcher = querycache.New(engine, cache, cfg.cacheTTL, nil, cfg.logger)
	}
	c.svc = newService(searcher, cfg)
	return c, nil
}

func newService(searcher db.Searcher, cfg *clientConfig) *searchuc.Service {
	repo := searchrepo.New(searcher, elastic.Options{DefaultSize: cfg.defaultSize, MaxBuckets: cfg.maxBuckets})
	return searchuc.New(translate.New(mapping.Default{}), repo)
}

// Close releases all resources.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Ping checks search engine connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.engine.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Querier is anything that can be translated: a Query, a Grouping or a
// terminal operation built from them.
type Querier interface {
	ast() expr.Node
}

// Translate returns the request body q would send, without executing it.
func (c *Client) Translate(ctx context.Context, q Querier) (json.RawMessage, error) {
	start := time.Now()
	tr, err := c.svc.Translate(c.withLogger(ctx), q.ast(), "")
	c.obs.observe("translate", start, err)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	return tr.Body, nil
}

// WithoutCache returns a context whose queries skip the response cache.
func WithoutCache(ctx context.Context) context.Context {
	return querycache.WithBypass(ctx)
}

func (c *Client) run(ctx context.Context, op string, n expr.Node) (result.Response, error) {
	start := time.Now()
	resp, err := c.svc.Query(c.withLogger(ctx), n, "")
	c.obs.observe(op, start, err)
	if err != nil {
		return result.Response{}, fmt.Errorf("query: %w", err)
	}
	return resp, nil
}

func (c *Client) withLogger(ctx context.Context) context.Context {
	if c.logger == nil {
		return ctx
	}
	return logger.ContextWithLogger(ctx, c.logger)
}
