package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
)

// Checker reports whether one dependency is reachable.
type Checker func(ctx context.Context) error

// HealthCheck is the health check handler. With no registered checkers it
// always answers ok.
type HealthCheck struct {
	mu     sync.RWMutex
	checks map[string]Checker
}

// New creates a HealthCheck without checkers.
func New() *HealthCheck {
	return &HealthCheck{checks: make(map[string]Checker)}
}

// Register adds a named dependency check. A later check with the same name replaces the earlier one.
func (hc *HealthCheck) Register(name string, check Checker) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check
}

// Handler is used to control the flow of GET /health endpoint
func (hc *HealthCheck) Handler(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if IsHealthCheckRequest(r) {
			hc.ServeHTTP(w, r)

			return
		}

		h.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}

// ServeHTTP serve http request for health check
func (hc *HealthCheck) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	failures := hc.run(r.Context())
	if len(failures) == 0 {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	for _, failure := range failures {
		fmt.Fprintln(w, failure)
	}
}

func (hc *HealthCheck) run(ctx context.Context) []string {
	hc.mu.RLock()
	checks := make(map[string]Checker, len(hc.checks))
	names := make([]string, 0, len(hc.checks))
	for name, check := range hc.checks {
		checks[name] = check
		names = append(names, name)
	}
	hc.mu.RUnlock()
	sort.Strings(names)

	var failures []string
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			failures = append(failures, name+": "+err.Error())
		}
	}
	return failures
}

// IsHealthCheckRequest is used to check if the request is a health check request
func IsHealthCheckRequest(r *http.Request) bool {
	return r.Method == http.MethodGet && r.URL.Path == "/health"
}
