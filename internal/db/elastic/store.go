// Package elastic renders query DSL and talks to OpenSearch/Elasticsearch
// over HTTP.
package elastic

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/kailas-cloud/esquery/internal/db"
)

var (
	_ db.Pinger   = (*Store)(nil)
	_ db.Searcher = (*Store)(nil)
)

// Config holds connection parameters for a search cluster.
type Config struct {
	Addrs              []string
	Username           string
	Password           string
	InsecureSkipVerify bool
}

// Store executes search requests through opensearch-go.
type Store struct {
	client *opensearch.Client
}

// NewStore creates a Store.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	osCfg := opensearch.Config{
		Addresses: cfg.Addrs,
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	if cfg.InsecureSkipVerify {
		osCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in for dev clusters
		}
	}
	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Store{client: client}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	resp, err := opensearchapi.PingRequest{}.Do(ctx, s.client)
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return &db.Error{Op: db.OpPing, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return nil
}

// WaitForReady polls Ping until the cluster responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search cluster: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Search sends a search request body and returns the raw response body.
func (s *Store) Search(ctx context.Context, index string, body []byte) ([]byte, error) {
	req := opensearchapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.IsError() {
		return nil, responseError(db.OpSearch, resp.StatusCode, data)
	}
	return data, nil
}

// Count returns the number of documents matching a query-only body.
func (s *Store) Count(ctx context.Context, index string, body []byte) (int64, error) {
	req := opensearchapi.CountRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.IsError() {
		return 0, responseError(db.OpCount, resp.StatusCode, data)
	}
	var out struct {
		Count int64 `json:"count"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, &db.Error{Op: db.OpDecode, Err: err}
	}
	return out.Count, nil
}

// errorBody is the error envelope returned by the cluster.
type errorBody struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

func responseError(op string, status int, data []byte) error {
	if status == http.StatusNotFound {
		return &db.Error{Op: op, Err: db.ErrIndexNotFound}
	}
	var e errorBody
	if err := json.Unmarshal(data, &e); err == nil && e.Error.Type != "" {
		return &db.Error{Op: op, Err: fmt.Errorf("status %d: %s: %s", status, e.Error.Type, e.Error.Reason)}
	}
	return &db.Error{Op: op, Err: fmt.Errorf("status %d", status)}
}
