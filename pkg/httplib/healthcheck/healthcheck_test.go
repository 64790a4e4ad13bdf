package healthcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheck_Handler(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	testCases := []struct {
		name     string
		method   string
		path     string
		checks   map[string]Checker
		wantCode int
		wantBody string
	}{
		{
			name:     "healthy without checks",
			method:   http.MethodGet,
			path:     "/health",
			wantCode: http.StatusOK,
			wantBody: "ok\n",
		},
		{
			name:   "healthy dependencies",
			method: http.MethodGet,
			path:   "/health",
			checks: map[string]Checker{
				"redis": func(context.Context) error { return nil },
			},
			wantCode: http.StatusOK,
			wantBody: "ok\n",
		},
		{
			name:   "failing dependencies are listed by name",
			method: http.MethodGet,
			path:   "/health",
			checks: map[string]Checker{
				"redis":    func(context.Context) error { return errors.New("connection refused") },
				"postgres": func(context.Context) error { return errors.New("timeout") },
				"kafka":    func(context.Context) error { return nil },
			},
			wantCode: http.StatusServiceUnavailable,
			wantBody: "postgres: timeout\nredis: connection refused\n",
		},
		{
			name:     "other paths pass through",
			method:   http.MethodGet,
			path:     "/orders",
			wantCode: http.StatusTeapot,
		},
		{
			name:     "other methods pass through",
			method:   http.MethodPost,
			path:     "/health",
			wantCode: http.StatusTeapot,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hc := New()
			for name, check := range tc.checks {
				hc.Register(name, check)
			}

			rec := httptest.NewRecorder()
			hc.Handler(next).ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, rec.Body.String())
			}
		})
	}
}
