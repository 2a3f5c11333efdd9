package esquery

import "github.com/kailas-cloud/esquery/internal/domain"

// Errors returned by translation and execution; match them with errors.Is.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrUnsupportedOperation   = domain.ErrUnsupportedOperation
	ErrInvalidNestedWrapper   = domain.ErrInvalidNestedWrapper
	ErrMissingAggregateTarget = domain.ErrMissingAggregateTarget
	ErrAmbiguousProjection    = domain.ErrAmbiguousProjection
)
