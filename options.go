package esquery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs              []string
	username           string
	password           string
	insecureSkipVerify bool
	readinessTimeout   time.Duration

	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	defaultSize int
	maxBuckets  int
	logger      *zap.Logger
	metricsReg  prometheus.Registerer
}

// WithAddresses sets the search engine node URLs.
func WithAddresses(addrs ...string) Option {
	return func(c *clientConfig) {
		c.addrs = append(c.addrs, addrs...)
	}
}

// WithBasicAuth sets credentials for the search engine.
func WithBasicAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify() Option {
	return func(c *clientConfig) {
		c.insecureSkipVerify = true
	}
}

// WithReadinessTimeout bounds how long New waits for the backends.
func WithReadinessTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.readinessTimeout = d
	}
}

// WithRedisCache caches search responses in Redis. A zero ttl keeps
// entries until evicted.
func WithRedisCache(addrs []string, password string, ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cacheAddrs = addrs
		c.cachePassword = password
		c.cacheTTL = ttl
	}
}

// WithDefaultSize sets the page size sent when a query has no Take.
func WithDefaultSize(n int) Option {
	return func(c *clientConfig) {
		c.defaultSize = n
	}
}

// WithMaxBuckets caps terms bucket aggregations.
func WithMaxBuckets(n int) Option {
	return func(c *clientConfig) {
		c.maxBuckets = n
	}
}

// WithLogger sets the logger used for query and cache diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithMetrics registers SDK operation counters and durations with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.metricsReg = reg
	}
}
