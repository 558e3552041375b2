package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func corsRequest(cfg CORSConfig, method, origin, requestedMethod string) *httptest.ResponseRecorder {
	handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/api/tasks", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if requestedMethod != "" {
		req.Header.Set("Access-Control-Request-Method", requestedMethod)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name            string
		allowedOrigins  []string
		origin          string
		method          string
		requestedMethod string
		wantStatus      int
		wantOrigin      string
	}{
		{
			name:       "no origins configured adds no headers",
			origin:     "https://example.com",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
		{
			name:           "allowed origin is echoed",
			allowedOrigins: []string{"https://example.com"},
			origin:         "https://example.com",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantOrigin:     "https://example.com",
		},
		{
			name:            "disallowed origin rejected on preflight",
			allowedOrigins:  []string{"https://example.com"},
			origin:          "https://evil.com",
			method:          http.MethodOptions,
			requestedMethod: http.MethodDelete,
			wantStatus:      http.StatusForbidden,
		},
		{
			name:            "preflight returns no content",
			allowedOrigins:  []string{"https://example.com"},
			origin:          "https://example.com",
			method:          http.MethodOptions,
			requestedMethod: http.MethodPut,
			wantStatus:      http.StatusNoContent,
			wantOrigin:      "https://example.com",
		},
		{
			name:            "preflight for unlisted method rejected",
			allowedOrigins:  []string{"https://example.com"},
			origin:          "https://example.com",
			method:          http.MethodOptions,
			requestedMethod: http.MethodPatch,
			wantStatus:      http.StatusForbidden,
			wantOrigin:      "https://example.com",
		},
		{
			name:           "plain OPTIONS is not a preflight",
			allowedOrigins: []string{"https://example.com"},
			origin:         "https://example.com",
			method:         http.MethodOptions,
			wantStatus:     http.StatusOK,
			wantOrigin:     "https://example.com",
		},
		{
			name:           "case insensitive origin match",
			allowedOrigins: []string{"HTTPS://EXAMPLE.COM"},
			origin:         "https://example.com",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantOrigin:     "https://example.com",
		},
		{
			name:           "no origin header skips CORS",
			allowedOrigins: []string{"https://example.com"},
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCORSConfig()
			cfg.AllowedOrigins = tt.allowedOrigins

			rec := corsRequest(cfg, tt.method, tt.origin, tt.requestedMethod)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestCORSPreflightHeaders(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://example.com"}

	rec := corsRequest(cfg, http.MethodOptions, "https://example.com", http.MethodPost)

	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Errorf("Access-Control-Allow-Headers = %q, want Authorization allowed", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("Access-Control-Max-Age = %q, want 86400", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want Origin", got)
	}
}

func TestCORSExposedHeaders(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://example.com"}

	rec := corsRequest(cfg, http.MethodPost, "https://example.com", "")

	got := rec.Header().Get("Access-Control-Expose-Headers")
	for _, want := range []string{"Location", "Retry-After", "X-RateLimit-Remaining"} {
		if !strings.Contains(got, want) {
			t.Errorf("Access-Control-Expose-Headers = %q, want %s exposed", got, want)
		}
	}
}

func TestCORSWildcardSubdomain(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"*.example.com"}

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://app.example.com", true},
		{"https://a.b.example.com", true},
		{"https://example.com", false},
		{"https://notexample.com", false},
		{"https://example.com.evil.io", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			rec := corsRequest(cfg, http.MethodGet, tt.origin, "")
			got := rec.Header().Get("Access-Control-Allow-Origin") != ""
			if got != tt.allowed {
				t.Errorf("allowed = %v, want %v", got, tt.allowed)
			}
		})
	}
}
