package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-content/internal/api"
	"github.com/p-n-ai/pai-content/internal/curriculum"
)

func ok(context.Context) error { return nil }

func down(context.Context) error { return errors.New("connection refused") }

func TestHealthEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		checks     []readinessCheck
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "healthz ignores dependencies",
			path:       "/healthz",
			checks:     []readinessCheck{{name: "database", check: down}},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 200",
			path:       "/readyz",
			checks:     []readinessCheck{{name: "database", check: ok}, {name: "cache", check: ok}},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
		{
			name:       "readyz returns 503 when a dependency is down",
			path:       "/readyz",
			checks:     []readinessCheck{{name: "database", check: ok}, {name: "cache", check: down}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"failed":["cache"],"status":"not ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newMux(api.NewRouter(api.Config{Reader: curriculum.NewMemoryStore()}), tt.checks...)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestAPIMounted(t *testing.T) {
	mux := newMux(api.NewRouter(api.Config{Reader: curriculum.NewMemoryStore()}))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/subjects", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("body = %q, want an empty data list", rec.Body.String())
	}
}
