// Package health reports the availability of the gateway's backends.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means queries work but the response cache does not.
	Degraded Status = "degraded"
	// Unhealthy means the search engine is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names used in Report.Checks.
const (
	ComponentSearch = "search"
	ComponentCache  = "cache"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	search Pinger
	cache  Pinger
}

// New creates a Service. cache can be nil when caching is off.
func New(search, cache Pinger) *Service {
	return &Service{search: search, cache: cache}
}

// Check pings every configured backend.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{ComponentSearch: probe(ctx, s.search)}
	if s.cache != nil {
		checks[ComponentCache] = probe(ctx, s.cache)
	}

	status := Healthy
	switch {
	case checks[ComponentSearch] == CheckError:
		status = Unhealthy
	case checks[ComponentCache] == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func probe(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
