package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/code4mk/coxbazar-mcp/internal/auth"
	"github.com/code4mk/coxbazar-mcp/internal/instrumentation"
	"github.com/code4mk/coxbazar-mcp/internal/logging"
)

const (
	// DefaultHTTPReadHeaderTimeout bounds the time spent reading request headers.
	DefaultHTTPReadHeaderTimeout = 10 * time.Second

	// DefaultHTTPIdleTimeout is the keep-alive idle timeout.
	DefaultHTTPIdleTimeout = 120 * time.Second
)

// HTTPConfig holds configuration for the HTTP server.
type HTTPConfig struct {
	// BaseURL is the externally visible URL of this server
	// (e.g. http://localhost:8080). Used for HTTPS validation.
	BaseURL string

	// RateLimitRPS is the per-IP request rate (requests per second).
	RateLimitRPS float64

	// RateLimitBurst is the per-IP burst size.
	RateLimitBurst int

	// TrustProxy controls whether proxy IP headers are honored.
	TrustProxy bool

	// DisableStreaming disables SSE streaming on the /mcp endpoint.
	DisableStreaming bool
}

// HTTPServer exposes the MCP server over streamable HTTP together with the
// OAuth login endpoints. Session IDs arrive either as Bearer tokens on /mcp
// requests or as session_id tool arguments; the Bearer path is injected into
// the request context here.
type HTTPServer struct {
	mcpServer     *mcpserver.MCPServer
	serverContext *ServerContext
	config        HTTPConfig
	limiter       *RateLimiter
	httpServer    *http.Server
	logger        *slog.Logger
}

// NewHTTPServer creates a new HTTP server for the given MCP server and
// server context.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext, config HTTPConfig) (*HTTPServer, error) {
	if err := validateHTTPSRequirement(config.BaseURL); err != nil {
		return nil, err
	}

	if config.RateLimitRPS <= 0 {
		config.RateLimitRPS = 10
	}
	if config.RateLimitBurst <= 0 {
		config.RateLimitBurst = 20
	}

	logger := sc.Logger()

	return &HTTPServer{
		mcpServer:     mcpServer,
		serverContext: sc,
		config:        config,
		limiter:       NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst, config.TrustProxy, logger),
		logger:        logger,
	}, nil
}

// Handler builds the full HTTP handler: MCP endpoint, auth endpoints, info
// endpoints, and health probes, all behind per-IP rate limiting.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	var streamable http.Handler
	if s.config.DisableStreaming {
		streamable = mcpserver.NewStreamableHTTPServer(s.mcpServer,
			mcpserver.WithEndpointPath("/mcp"),
			mcpserver.WithDisableStreaming(true),
		)
	} else {
		streamable = mcpserver.NewStreamableHTTPServer(s.mcpServer,
			mcpserver.WithEndpointPath("/mcp"),
		)
	}

	mux.Handle("/mcp", s.limiter.Middleware(s.bearerSessionMiddleware(streamable)))

	mux.Handle("/auth/login", s.limiter.Middleware(http.HandlerFunc(s.handleLogin)))
	mux.Handle("/auth/callback", s.limiter.Middleware(http.HandlerFunc(s.handleCallback)))
	mux.Handle("/auth/logout", s.limiter.Middleware(http.HandlerFunc(s.handleLogout)))

	mux.Handle("/", s.limiter.Middleware(http.HandlerFunc(s.handleRoot)))
	mux.Handle("/health", s.limiter.Middleware(http.HandlerFunc(s.handleHealth)))

	health := NewHealthChecker(s.serverContext)
	health.RegisterHealthEndpoints(mux)

	return s.metricsMiddleware(mux)
}

// Start starts the HTTP server in a blocking manner.
func (s *HTTPServer) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultHTTPReadHeaderTimeout,
		IdleTimeout:       DefaultHTTPIdleTimeout,
	}

	s.logger.Info("starting HTTP server",
		slog.String("addr", addr),
		slog.String("base_url", s.config.BaseURL),
	)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server and stops the rate limiter.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// bearerSessionMiddleware copies a Bearer token from the Authorization header
// into the request context as the session ID. Validation happens in the
// authorization gate; an absent or malformed header simply leaves the context
// empty so the session_id tool argument can still be used.
func (s *HTTPServer) bearerSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if header := r.Header.Get("Authorization"); header != "" {
			const prefix = "Bearer "
			if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
				ctx := auth.WithSessionID(r.Context(), header[len(prefix):])
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request counts and durations when instrumentation
// is configured.
func (s *HTTPServer) metricsMiddleware(next http.Handler) http.Handler {
	metrics := s.serverContext.Metrics()
	if metrics == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}

// statusWriter captures the response status code for metrics.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// handleLogin issues a fresh CSRF state and redirects the browser to GitHub's
// authorization page.
func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithOperation(s.logger, "auth.login")

	authURL, err := s.serverContext.Flow().Initiate()
	if err != nil {
		logger.Error("failed to initiate login", logging.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	logger.Info("redirecting to provider")
	http.Redirect(w, r, authURL, http.StatusFound)
}

// stateRedemptionResult maps a callback failure to the redemption outcome.
// Redemption is the first step of the flow, so any failure other than an
// invalid state means the state itself was spent successfully.
func stateRedemptionResult(err error) string {
	if errors.Is(err, auth.ErrStateInvalid) {
		return instrumentation.StateResultInvalid
	}
	return instrumentation.StateResultValid
}

// handleCallback completes the OAuth flow: state redemption, code exchange,
// profile fetch, session creation. Any failure yields one generic error so
// callers cannot probe which step broke.
func (s *HTTPServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithOperation(s.logger, "auth.callback")
	metrics := s.serverContext.Metrics()

	q := r.URL.Query()
	session, err := s.serverContext.Flow().Callback(r.Context(), q.Get("state"), q.Get("code"), q.Get("error"))
	if err != nil {
		if metrics != nil {
			metrics.RecordStateRedemption(r.Context(), stateRedemptionResult(err))
			if errors.Is(err, auth.ErrProviderDenied) {
				metrics.RecordAuthFlow(r.Context(), instrumentation.AuthResultDenied)
			} else {
				metrics.RecordAuthFlow(r.Context(), instrumentation.AuthResultFailure)
			}
		}
		logger.Warn("login failed", logging.Err(err))
		writeJSONError(w, http.StatusBadRequest, "authentication failed")
		return
	}

	if metrics != nil {
		metrics.RecordStateRedemption(r.Context(), instrumentation.StateResultValid)
		metrics.RecordAuthFlow(r.Context(), instrumentation.AuthResultSuccess)
		metrics.IncrementActiveSessions(r.Context())
	}

	logger.Info("login completed",
		logging.User(session.Profile.Login),
		logging.SessionHash(session.ID),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "authenticated",
		"session_id": session.ID,
		"user":       session.Profile.Login,
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
		"message":    "Pass the session_id to protected tools, or send it as a Bearer token on /mcp requests.",
	})
}

// handleLogout invalidates the session named by the session_id query
// parameter or the Bearer token. Idempotent: unknown sessions still get 200.
func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithOperation(s.logger, "auth.logout")

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			sessionID = strings.TrimPrefix(header, "Bearer ")
		}
	}

	if sessionID != "" {
		if _, err := s.serverContext.Sessions().Get(sessionID); err == nil {
			if metrics := s.serverContext.Metrics(); metrics != nil {
				metrics.DecrementActiveSessions(r.Context())
			}
		}
		s.serverContext.Flow().Logout(sessionID)
		logger.Info("logged out", logging.SessionHash(sessionID))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "logged out",
	})
}

// handleRoot serves a short service description.
func (s *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "coxbazar-mcp",
		"description": "Cox's Bazar travel planning MCP server with GitHub OAuth",
		"endpoints": map[string]string{
			"mcp":      "/mcp",
			"login":    "/auth/login",
			"callback": "/auth/callback",
			"logout":   "/auth/logout",
			"health":   "/health",
		},
	})
}

// handleHealth serves the original lightweight health endpoint; Kubernetes
// probes use /healthz and /readyz instead.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"active_sessions": s.serverContext.Sessions().Count(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// validateHTTPSRequirement ensures OAuth redirect URLs use HTTPS.
// Allows HTTP only for loopback addresses (localhost, 127.0.0.1, ::1).
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	if u.Scheme == "http" {
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("OAuth requires HTTPS for production (got: %s). Use HTTPS or localhost for development", baseURL)
		}
	} else if u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s. Must be http (localhost only) or https", u.Scheme)
	}

	return nil
}
