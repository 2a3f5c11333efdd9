package health

import (
	"context"
	"errors"
	"testing"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")
	tests := []struct {
		name   string
		search error
		cache  *mockPinger
		want   Status
		checks map[string]CheckResult
	}{
		{
			"all healthy",
			nil, &mockPinger{},
			Healthy,
			map[string]CheckResult{ComponentSearch: CheckOK, ComponentCache: CheckOK},
		},
		{
			"no cache configured",
			nil, nil,
			Healthy,
			map[string]CheckResult{ComponentSearch: CheckOK},
		},
		{
			"cache down",
			nil, &mockPinger{err: down},
			Degraded,
			map[string]CheckResult{ComponentSearch: CheckOK, ComponentCache: CheckError},
		},
		{
			"search down",
			down, &mockPinger{},
			Unhealthy,
			map[string]CheckResult{ComponentSearch: CheckError, ComponentCache: CheckOK},
		},
		{
			"everything down",
			down, &mockPinger{err: down},
			Unhealthy,
			map[string]CheckResult{ComponentSearch: CheckError, ComponentCache: CheckError},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cache Pinger
			if tt.cache != nil {
				cache = tt.cache
			}
			r := New(&mockPinger{err: tt.search}, cache).Check(context.Background())
			if r.Status != tt.want {
				t.Errorf("status = %q, want %q", r.Status, tt.want)
			}
			if len(r.Checks) != len(tt.checks) {
				t.Fatalf("checks = %v, want %v", r.Checks, tt.checks)
			}
			for k, v := range tt.checks {
				if r.Checks[k] != v {
					t.Errorf("%s = %q, want %q", k, r.Checks[k], v)
				}
			}
		})
	}
}
