package db

import (
	"context"
	"time"
)

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher executes serialized query DSL requests against an index and
// returns the raw response body.
type Searcher interface {
	Search(ctx context.Context, index string, body []byte) ([]byte, error)
	Count(ctx context.Context, index string, body []byte) (int64, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
