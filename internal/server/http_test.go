package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/code4mk/coxbazar-mcp/internal/auth"
	"github.com/code4mk/coxbazar-mcp/internal/instrumentation"
)

func testHTTPServer(t *testing.T) *HTTPServer {
	t.Helper()

	sc := testServerContext(t)
	mcpSrv := mcpserver.NewMCPServer("test", "0.0.1")

	srv, err := NewHTTPServer(mcpSrv, sc, HTTPConfig{
		BaseURL: "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("NewHTTPServer() error = %v", err)
	}
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

func TestNewHTTPServer_RejectsNonLocalHTTP(t *testing.T) {
	sc := testServerContext(t)
	mcpSrv := mcpserver.NewMCPServer("test", "0.0.1")

	_, err := NewHTTPServer(mcpSrv, sc, HTTPConfig{
		BaseURL: "http://example.com",
	})
	if err == nil {
		t.Fatal("expected error for non-localhost HTTP base URL")
	}
}

func TestHTTPServer_Login_RedirectsToProvider(t *testing.T) {
	srv := testHTTPServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "github.com") {
		t.Errorf("redirect location %q should point at GitHub", location)
	}
	if !strings.Contains(location, "state=") {
		t.Errorf("redirect location %q should carry a state parameter", location)
	}
}

func TestHTTPServer_Login_IssuesUniqueStates(t *testing.T) {
	srv := testHTTPServer(t)
	handler := srv.Handler()

	locations := make(map[string]bool)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		locations[rec.Header().Get("Location")] = true
	}

	if len(locations) != 3 {
		t.Errorf("expected 3 distinct authorization URLs, got %d", len(locations))
	}
}

func TestHTTPServer_Callback_InvalidState(t *testing.T) {
	srv := testHTTPServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=bogus&code=whatever", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["error"] != "authentication failed" {
		t.Errorf("error = %q, want generic %q", body["error"], "authentication failed")
	}
	// The response must not leak which step failed
	if strings.Contains(rec.Body.String(), "state") {
		t.Error("callback error must not name the failing step")
	}
}

func TestHTTPServer_Callback_MissingParams(t *testing.T) {
	srv := testHTTPServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStateRedemptionResult(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid state", auth.ErrStateInvalid, instrumentation.StateResultInvalid},
		{"wrapped invalid state", fmt.Errorf("login: %w", auth.ErrStateInvalid), instrumentation.StateResultInvalid},
		{"provider denied after redeem", auth.ErrProviderDenied, instrumentation.StateResultValid},
		{"exchange failure after redeem", errors.New("exchange failed"), instrumentation.StateResultValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stateRedemptionResult(tt.err); got != tt.want {
				t.Errorf("stateRedemptionResult(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestHTTPServer_Logout_Idempotent(t *testing.T) {
	srv := testHTTPServer(t)
	handler := srv.Handler()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/auth/logout?session_id=nonexistent", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("logout attempt %d status = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestHTTPServer_Root(t *testing.T) {
	srv := testHTTPServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["service"] != "coxbazar-mcp" {
		t.Errorf("service = %v, want coxbazar-mcp", body["service"])
	}
}

func TestHTTPServer_RootRejectsUnknownPaths(t *testing.T) {
	srv := testHTTPServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHTTPServer_HealthEndpoints(t *testing.T) {
	srv := testHTTPServer(t)
	handler := srv.Handler()

	for _, path := range []string{"/health", "/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestBearerSessionMiddleware(t *testing.T) {
	srv := testHTTPServer(t)

	var gotSessionID string
	var gotOK bool
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotSessionID, gotOK = auth.SessionIDFromContext(r.Context())
	})
	handler := srv.bearerSessionMiddleware(next)

	// With Bearer token
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !gotOK || gotSessionID != "abc123" {
		t.Errorf("session ID from context = %q (ok=%v), want abc123", gotSessionID, gotOK)
	}

	// Without header the context stays empty
	gotSessionID, gotOK = "", false
	req = httptest.NewRequest(http.MethodPost, "/mcp", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotOK {
		t.Error("context should not carry a session ID without an Authorization header")
	}

	// Non-Bearer schemes are ignored
	req = httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotOK {
		t.Error("non-Bearer Authorization header should be ignored")
	}
}

func TestValidateHTTPSRequirement(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"https production", "https://mcp.example.com", false},
		{"http localhost", "http://localhost:8080", false},
		{"http loopback", "http://127.0.0.1:8080", false},
		{"http ipv6 loopback", "http://[::1]:8080", false},
		{"http production", "http://mcp.example.com", true},
		{"empty", "", true},
		{"bad scheme", "ftp://example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateHTTPSRequirement(tt.baseURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateHTTPSRequirement(%q) error = %v, wantErr %v", tt.baseURL, err, tt.wantErr)
			}
		})
	}
}
