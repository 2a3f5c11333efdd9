package chi

import "encoding/json"

// ErrorResponseCode is a machine-readable error category.
type ErrorResponseCode string

// Error codes returned by the gateway.
const (
	ErrorResponseCodeBadRequest             ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized           ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed       ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnsupportedOperation   ErrorResponseCode = "unsupported_operation"
	ErrorResponseCodeMissingAggregateTarget ErrorResponseCode = "missing_aggregate_target"
	ErrorResponseCodeAmbiguousProjection    ErrorResponseCode = "ambiguous_projection"
	ErrorResponseCodeIndexNotFound          ErrorResponseCode = "index_not_found"
	ErrorResponseCodeBackendError           ErrorResponseCode = "backend_error"
	ErrorResponseCodeInternalError          ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// QueryParams are the query-string parameters of POST /v1/indexes/{index}/query.
type QueryParams struct {
	// Cache set to false skips the response cache.
	Cache *bool `form:"cache,omitempty" json:"cache,omitempty"`
}

// TranslateResponse is the body of POST /v1/indexes/{index}/translate.
type TranslateResponse struct {
	Index     string          `json:"index"`
	CountOnly bool            `json:"count_only"`
	Body      json.RawMessage `json:"body"`
}
