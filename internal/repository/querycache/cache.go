// Package querycache caches search responses keyed by index and request body.
package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/db"
)

// DefaultPrefix namespaces cache keys.
const DefaultPrefix = "esquery:query_cache:"

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type bypassKey struct{}

// WithBypass marks ctx so that searches skip the cache entirely.
func WithBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

func bypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}

// Searcher caches raw search responses in a key-value store. Counts are
// passed through.
type Searcher struct {
	inner      db.Searcher
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. A zero ttl stores entries without
// expiry. cacheTotal is a counter vec with label "result" ("hit"/"miss").
func New(
	inner db.Searcher,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Searcher {
	return &Searcher{
		inner:      inner,
		store:      s,
		prefix:     DefaultPrefix,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Search returns a cached response body or runs the search and caches it.
// Cache failures are logged and never fail the search.
func (c *Searcher) Search(ctx context.Context, index string, body []byte) ([]byte, error) {
	if bypassed(ctx) {
		return c.inner.Search(ctx, index, body)
	}
	key := c.cacheKey(index, body)

	if data, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return data, nil
	}
	c.incCache("miss")

	data, err := c.inner.Search(ctx, index, body)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}

	c.putToCache(ctx, key, data)
	return data, nil
}

// Count runs on the inner searcher.
func (c *Searcher) Count(ctx context.Context, index string, body []byte) (int64, error) {
	return c.inner.Count(ctx, index, body)
}

func (c *Searcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *Searcher) cacheKey(index string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(index))
	h.Write([]byte{0})
	h.Write(body)
	return c.prefix + index + ":" + hex.EncodeToString(h.Sum(nil))
}

func (c *Searcher) getFromCache(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached response", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (c *Searcher) putToCache(ctx context.Context, key string, data []byte) {
	var err error
	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.ttl)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
	}
}
