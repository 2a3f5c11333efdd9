// Package search runs translated searches against the engine.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/db/elastic"
	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/search/request"
	"github.com/kailas-cloud/esquery/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, index string, body []byte) ([]byte, error)
	Count(ctx context.Context, index string, body []byte) (int64, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
	opts  elastic.Options
}

// New creates a search repository.
func New(s store, opts elastic.Options) *Repo {
	return &Repo{store: s, opts: opts}
}

// Body serializes spec into the search request body.
func (r *Repo) Body(spec *request.SearchSpec) ([]byte, error) {
	return elastic.Serialize(spec, r.opts)
}

// Search executes spec and decodes the response.
func (r *Repo) Search(ctx context.Context, spec *request.SearchSpec) (result.Page, error) {
	body, err := r.Body(spec)
	if err != nil {
		return result.Page{}, err
	}
	data, err := r.store.Search(ctx, spec.Index(), body)
	if err != nil {
		return result.Page{}, mapErr(spec.Index(), err)
	}
	return elastic.DecodeResponse(data)
}

// Count returns the number of documents matching spec's query.
func (r *Repo) Count(ctx context.Context, spec *request.SearchSpec) (int64, error) {
	body, err := elastic.SerializeCount(spec)
	if err != nil {
		return 0, err
	}
	n, err := r.store.Count(ctx, spec.Index(), body)
	if err != nil {
		return 0, mapErr(spec.Index(), err)
	}
	return n, nil
}

func mapErr(index string, err error) error {
	if errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("index %q: %w", index, domain.ErrNotFound)
	}
	return fmt.Errorf("search %s: %w", index, err)
}
