// Package search orchestrates the query pipeline: translate, compensate,
// execute and materialize.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
	"github.com/kailas-cloud/esquery/internal/domain/search/request"
	"github.com/kailas-cloud/esquery/internal/domain/search/result"
	"github.com/kailas-cloud/esquery/internal/logger"
	"github.com/kailas-cloud/esquery/internal/metrics"
	"github.com/kailas-cloud/esquery/internal/usecase/compensate"
	"github.com/kailas-cloud/esquery/internal/usecase/materialize"
)

// Translation is a compensated spec together with its request body.
type Translation struct {
	Spec request.SearchSpec
	Body json.RawMessage
}

// Service runs expression trees against the search engine.
type Service struct {
	walker Translator
	repo   Repository
}

// New creates a search service.
func New(walker Translator, repo Repository) *Service {
	return &Service{walker: walker, repo: repo}
}

// Translate converts ast into an engine request for index without
// executing it. An empty index falls back to the tree's source.
func (s *Service) Translate(ctx context.Context, ast expr.Node, index string) (Translation, error) {
	log := logger.FromContext(ctx)

	spec, err := s.walker.Translate(ast, index)
	if err != nil {
		metrics.TranslationsTotal.WithLabelValues(outcome(err)).Inc()
		return Translation{}, fmt.Errorf("translate: %w", err)
	}
	q, err := compensate.Compensate(spec.Query())
	if err != nil {
		metrics.TranslationsTotal.WithLabelValues(outcome(err)).Inc()
		return Translation{}, fmt.Errorf("compensate: %w", err)
	}
	spec = spec.WithQuery(q)

	body, err := s.repo.Body(&spec)
	if err != nil {
		metrics.TranslationsTotal.WithLabelValues("error").Inc()
		return Translation{}, fmt.Errorf("serialize: %w", err)
	}
	metrics.TranslationsTotal.WithLabelValues("ok").Inc()
	log.Debug("Query translated",
		zap.String("index", spec.Index()),
		zap.Bool("count_only", spec.CountOnly()),
		zap.ByteString("body", body),
	)
	return Translation{Spec: spec, Body: body}, nil
}

// Query translates ast and executes it. Count-only queries return Count;
// aggregating queries return materialized Rows; others return Hits.
func (s *Service) Query(ctx context.Context, ast expr.Node, index string) (result.Response, error) {
	tr, err := s.Translate(ctx, ast, index)
	if err != nil {
		return result.Response{}, err
	}
	spec := &tr.Spec
	ctx = logger.WithFields(ctx, zap.String("index", spec.Index()))

	if spec.CountOnly() {
		start := time.Now()
		n, err := s.repo.Count(ctx, spec)
		observe("count", start, err)
		if err != nil {
			return result.Response{}, fmt.Errorf("count: %w", err)
		}
		return result.Response{Total: n, Count: &n}, nil
	}

	start := time.Now()
	page, err := s.repo.Search(ctx, spec)
	observe("search", start, err)
	if err != nil {
		return result.Response{}, fmt.Errorf("search: %w", err)
	}

	resp := result.Response{Total: page.Total}
	aggs := spec.Aggregations()
	if aggs == nil || aggs.IsEmpty() {
		resp.Hits = page.Hits
		return resp, nil
	}

	rows, err := materialize.FromPage(page, *aggs)
	if err != nil {
		return result.Response{}, fmt.Errorf("materialize: %w", err)
	}
	if rows, err = materialize.Project(rows, *aggs, spec.Projection()); err != nil {
		return result.Response{}, fmt.Errorf("project: %w", err)
	}
	resp.Rows = rows
	logger.FromContext(ctx).Debug("Aggregations materialized", zap.Int("rows", len(rows)))
	return resp, nil
}

func observe(kind string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchDuration.WithLabelValues(kind, status).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedOperation),
		errors.Is(err, domain.ErrMissingAggregateTarget),
		errors.Is(err, domain.ErrAmbiguousProjection):
		return "unsupported"
	case errors.Is(err, domain.ErrInvalidQuery), errors.Is(err, domain.ErrInvalidNestedWrapper):
		return "invalid"
	default:
		return "error"
	}
}
