// Package chi exposes the query pipeline over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
	"github.com/kailas-cloud/esquery/internal/logger"
	"github.com/kailas-cloud/esquery/internal/metrics"
	"github.com/kailas-cloud/esquery/internal/repository/querycache"
	healthuc "github.com/kailas-cloud/esquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the translate and query endpoints.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search:       search,
		health:       health,
		logger:       logger,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(expr.ErrInvalidEncoding, http.StatusBadRequest, ErrorResponseCodeBadRequest),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidNestedWrapper, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrUnsupportedOperation,
			http.StatusUnprocessableEntity, ErrorResponseCodeUnsupportedOperation),
		sentinelHandler(domain.ErrMissingAggregateTarget,
			http.StatusUnprocessableEntity, ErrorResponseCodeMissingAggregateTarget),
		sentinelHandler(domain.ErrAmbiguousProjection,
			http.StatusUnprocessableEntity, ErrorResponseCodeAmbiguousProjection),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeIndexNotFound),
		backendErrorHandler,
	}
	return s
}

// WithMaxBodyBytes overrides the request body limit.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.Health)
	r.Handle("/metrics", metrics.Handler())
	r.Route("/v1/indexes/{index}", func(r chi.Router) {
		r.Post("/translate", s.Translate)
		r.Post("/query", s.Query)
	})
}

// Translate handles POST /v1/indexes/{index}/translate.
func (s *Server) Translate(w http.ResponseWriter, r *http.Request) {
	index, ast, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	tr, err := s.search.Translate(r.Context(), ast, index)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TranslateResponse{
		Index:     tr.Spec.Index(),
		CountOnly: tr.Spec.CountOnly(),
		Body:      tr.Body,
	})
}

// Query handles POST /v1/indexes/{index}/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var params QueryParams
	if err := runtime.BindQueryParameter("form", true, false, "cache", r.URL.Query(), &params.Cache); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid format for parameter cache: "+err.Error())
		return
	}
	index, ast, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if params.Cache != nil && !*params.Cache {
		ctx = querycache.WithBypass(ctx)
	}
	resp, err := s.search.Query(ctx, ast, index)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		s.logger.Warn("health check failed", zap.String("status", string(report.Status)), zap.Any("checks", report.Checks))
	}
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (string, expr.Node, bool) {
	var index string
	err := runtime.BindStyledParameterWithOptions("simple", "index", chi.URLParam(r, "index"), &index,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid format for parameter index: "+err.Error())
		return "", nil, false
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorResponseCodeBadRequest, "request body too large")
			return "", nil, false
		}
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return "", nil, false
	}
	ast, err := expr.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		return "", nil, false
	}
	return index, ast, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// clientMessage describes a query error to the caller. Errors about the
// query itself are shown in full; others are reduced to their sentinel.
func clientMessage(err error) string {
	var (
		unsupported *domain.UnsupportedOperationError
		missing     *domain.MissingAggregateTargetError
		ambiguous   *domain.AmbiguousProjectionError
	)
	switch {
	case errors.As(err, &unsupported):
		return unsupported.Error()
	case errors.As(err, &missing):
		return missing.Error()
	case errors.As(err, &ambiguous):
		return ambiguous.Error()
	}
	for _, s := range []error{
		expr.ErrInvalidEncoding,
		domain.ErrInvalidQuery,
		domain.ErrInvalidNestedWrapper,
		domain.ErrNotFound,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, clientMessage(err))
		return true
	}
}

// backendErrorHandler reports search engine failures as a bad gateway.
func backendErrorHandler(w http.ResponseWriter, err error) bool {
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		return false
	}
	writeError(w, http.StatusBadGateway, ErrorResponseCodeBackendError, "search backend error")
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("request failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
