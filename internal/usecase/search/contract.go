package search

import (
	"context"

	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
	"github.com/kailas-cloud/esquery/internal/domain/search/request"
	"github.com/kailas-cloud/esquery/internal/domain/search/result"
)

// Translator turns an expression tree into a filter-semantics SearchSpec.
type Translator interface {
	Translate(ast expr.Node, index string) (request.SearchSpec, error)
}

// Repository defines the engine contract for executing searches.
type Repository interface {
	Body(spec *request.SearchSpec) ([]byte, error)
	Search(ctx context.Context, spec *request.SearchSpec) (result.Page, error)
	Count(ctx context.Context, spec *request.SearchSpec) (int64, error)
}
