package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/code4mk/coxbazar-mcp/internal/auth"
	"github.com/code4mk/coxbazar-mcp/internal/config"
	"github.com/code4mk/coxbazar-mcp/internal/instrumentation"
	"github.com/code4mk/coxbazar-mcp/internal/logging"
	"github.com/code4mk/coxbazar-mcp/internal/prompts"
	"github.com/code4mk/coxbazar-mcp/internal/resources"
	"github.com/code4mk/coxbazar-mcp/internal/server"
	"github.com/code4mk/coxbazar-mcp/internal/tools/auth_tools"
	"github.com/code4mk/coxbazar-mcp/internal/tools/travel_tools"
)

// defaultMetricsAddr is the metrics-addr flag default; when the flag is
// untouched the METRICS_ADDR environment setting applies.
const defaultMetricsAddr = ":9090"

// serveOptions carries the flag values of the serve command. Environment
// configuration fills anything left empty.
type serveOptions struct {
	debugMode          bool
	transport          string
	httpAddr           string
	baseURL            string
	disableStreaming   bool
	trustProxy         bool
	githubClientID     string
	githubClientSecret string
	metricsEnabled     bool
	metricsAddr        string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server providing Cox's Bazar
travel planning tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Authentication:
  Protected tools (generate_itinerary, get_activity_suggestions,
  get_user_info, request_info) require a GitHub login. Register a GitHub
  OAuth app and provide its credentials:
    --github-client-id and --github-client-secret flags
    OR GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET env vars
  The OAuth callback URL of the app must be <base-url>/auth/callback.

  On the HTTP transport, clients log in via /auth/login in a browser and
  send the resulting session ID as a Bearer token on /mcp requests. On
  stdio, the auth_initiate_login tool hands out the login URL and the
  session ID is passed as a session_id tool argument.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Public base URL for OAuth callbacks (HTTP transport only). Can also use MCP_BASE_URL env var. Example: https://mcp.example.com")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.trustProxy, "trust-proxy", false, "Trust X-Forwarded-For/X-Real-IP headers for rate limiting (only behind a trusted reverse proxy)")
	cmd.Flags().StringVar(&opts.githubClientID, "github-client-id", "", "GitHub OAuth app client ID. Can also use GITHUB_CLIENT_ID env var.")
	cmd.Flags().StringVar(&opts.githubClientSecret, "github-client-secret", "", "GitHub OAuth app client secret. Can also use GITHUB_CLIENT_SECRET env var.")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (HTTP transport only). Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", defaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Flags take precedence over environment configuration
	if opts.githubClientID != "" {
		cfg.GitHubClientID = opts.githubClientID
	}
	if opts.githubClientSecret != "" {
		cfg.GitHubClientSecret = opts.githubClientSecret
	}
	if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
		return fmt.Errorf("GitHub OAuth credentials are required: set --github-client-id and --github-client-secret or the GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET env vars")
	}

	baseURL := resolveBaseURL(opts.baseURL, cfg.BaseURL, opts.httpAddr)

	// On stdio the transport owns stdout, so logs always go to stderr.
	logger := newLogger(opts.debugMode)

	// Environment metrics settings apply unless a flag overrode them
	if opts.metricsEnabled && !cfg.MetricsEnabled {
		opts.metricsEnabled = false
	}
	if opts.metricsAddr == defaultMetricsAddr {
		opts.metricsAddr = cfg.MetricsAddr
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if opts.transport != "stdio" && opts.metricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metricsAddr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
		logger.Info("metrics server listening", slog.String("addr", metricsServer.Addr()))
	}

	serverConfig := server.Config{
		GitHub: auth.GitHubConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  baseURL + "/auth/callback",
			Timeout:      cfg.ProviderTimeout,
		},
		SessionTTL: cfg.SessionTTL,
		StateTTL:   cfg.StateTTL,
		Logger:     logger,
	}
	if provider.Enabled() {
		serverConfig.Instrumentation = provider
		serverConfig.Audit = instrumentation.NewAuditLoggerWithConfig(
			logging.NewSlogAdapter(logger), instrConfig.AuditLogging)
	}

	serverContext, err := server.NewServerContext(shutdownCtx, serverConfig)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("coxbazar-mcp", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
		mcpserver.WithPromptCapabilities(true),
	)

	if err := registerAll(mcpSrv, serverContext); err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch opts.transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		if provider.Enabled() {
			go reconcileActiveSessions(shutdownCtx, serverContext)
		}
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, opts, baseURL, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg config.Config, opts serveOptions, baseURL string, logger *slog.Logger) error {
	httpServer, err := server.NewHTTPServer(mcpSrv, sc, server.HTTPConfig{
		BaseURL:          baseURL,
		RateLimitRPS:     cfg.RateLimitRPS,
		RateLimitBurst:   cfg.RateLimitBurst,
		TrustProxy:       opts.trustProxy,
		DisableStreaming: opts.disableStreaming,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	fmt.Printf("Starting coxbazar-mcp server with streamable-http transport on %s\n", opts.httpAddr)
	fmt.Printf("  MCP endpoint: /mcp\n")
	fmt.Printf("  Login: %s/auth/login\n", baseURL)
	fmt.Printf("  Health endpoints: /healthz, /readyz\n")
	if opts.metricsEnabled {
		fmt.Printf("  Metrics endpoint: %s/metrics\n", opts.metricsAddr)
	}
	fmt.Println("\nComplete the GitHub login in a browser, then send the session ID as a Bearer token on /mcp requests.")

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(opts.httpAddr); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		fmt.Println("HTTP server stopped normally")
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}

// registerAll registers all MCP tools, resources, and prompts.
func registerAll(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type registration struct {
		name     string
		register func() error
	}

	registrations := []registration{
		{
			name: "Auth tools",
			register: func() error {
				return auth_tools.RegisterAuthTools(mcpSrv, sc)
			},
		},
		{
			name: "Travel tools",
			register: func() error {
				return travel_tools.RegisterTravelTools(mcpSrv, sc)
			},
		},
		{
			name: "Weather resources",
			register: func() error {
				return resources.RegisterWeatherResources(mcpSrv, sc)
			},
		},
		{
			name: "Travel prompts",
			register: func() error {
				return prompts.RegisterTravelPrompts(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

// reconcileActiveSessions keeps the active-sessions gauge aligned with the
// session store. Logins and logouts move the gauge directly; the background
// sweep of expired sessions does not, so the drift is corrected here.
func reconcileActiveSessions(ctx context.Context, sc *server.ServerContext) {
	metrics := sc.Metrics()
	if metrics == nil {
		return
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	last := sc.Sessions().Count()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := sc.Sessions().Count()
			if delta := int64(current - last); delta != 0 {
				metrics.AddActiveSessions(ctx, delta)
			}
			last = current
		}
	}
}

// newLogger builds the process logger. Logs go to stderr so the stdio
// transport keeps stdout for the protocol.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveBaseURL picks the public base URL: flag, then environment, then
// auto-detection from the listen address for local development.
func resolveBaseURL(flagValue, envValue, addr string) string {
	baseURL := flagValue
	if baseURL == "" {
		baseURL = envValue
	}
	if baseURL == "" {
		baseURL = "http://" + addr
		if strings.HasPrefix(addr, ":") {
			baseURL = "http://localhost" + addr
		}
		log.Printf("No base URL configured, using auto-detected: %s", baseURL)
	}
	return strings.TrimSuffix(baseURL, "/")
}
