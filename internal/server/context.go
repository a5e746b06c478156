package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/code4mk/coxbazar-mcp/internal/auth"
	"github.com/code4mk/coxbazar-mcp/internal/instrumentation"
	"github.com/code4mk/coxbazar-mcp/internal/itinerary"
	"github.com/code4mk/coxbazar-mcp/internal/weather"
)

// Config holds the dependencies and settings for a ServerContext.
type Config struct {
	// GitHub configures the OAuth exchange client.
	GitHub auth.GitHubConfig

	// SessionTTL is the lifetime of login sessions (default: auth.DefaultSessionTTL).
	SessionTTL time.Duration

	// StateTTL is the lifetime of CSRF login states (default: auth.DefaultStateTTL).
	StateTTL time.Duration

	// WeatherBaseURL overrides the Open-Meteo endpoint, used in tests.
	WeatherBaseURL string

	// Logger is the structured logger; slog.Default() when nil.
	Logger *slog.Logger

	// Instrumentation provides metrics and tracing. Optional.
	Instrumentation *instrumentation.Provider

	// Audit logs tool invocations. Optional.
	Audit *instrumentation.AuditLogger
}

// ServerContext holds the shared state for the MCP server: the login flow,
// the authorization gate, and the travel-planning services the tools use.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	flow      *auth.Flow
	gate      *auth.Gate
	weather   *weather.Client
	itinerary *itinerary.Service

	instr  *instrumentation.Provider
	audit  *instrumentation.AuditLogger
	logger *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context and wires the auth flow,
// authorization gate, weather client, and itinerary service together.
func NewServerContext(ctx context.Context, cfg Config) (*ServerContext, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.GitHub.ClientID == "" || cfg.GitHub.ClientSecret == "" {
		return nil, fmt.Errorf("GitHub OAuth client ID and secret are required")
	}
	provider := auth.NewGitHubClient(cfg.GitHub)

	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = auth.DefaultSessionTTL
	}
	stateTTL := cfg.StateTTL
	if stateTTL <= 0 {
		stateTTL = auth.DefaultStateTTL
	}

	sessions := auth.NewSessionStoreWithLogger(sessionTTL, logger)
	states := auth.NewStateLedgerWithLogger(stateTTL, logger)
	flow := auth.NewFlow(sessions, states, provider, logger)
	gate := auth.NewGate(sessions, logger)

	weatherOpts := []weather.Option{weather.WithLogger(logger)}
	if cfg.WeatherBaseURL != "" {
		weatherOpts = append(weatherOpts, weather.WithBaseURL(cfg.WeatherBaseURL))
	}
	if cfg.Instrumentation != nil {
		if m := cfg.Instrumentation.Metrics(); m != nil {
			weatherOpts = append(weatherOpts, weather.WithMetrics(m))
		}
	}
	weatherClient := weather.NewClient(weatherOpts...)

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		flow:      flow,
		gate:      gate,
		weather:   weatherClient,
		itinerary: itinerary.NewService(weatherClient, logger),
		instr:     cfg.Instrumentation,
		audit:     cfg.Audit,
		logger:    logger,
		shutdown:  false,
	}, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Flow returns the login flow controller.
func (sc *ServerContext) Flow() *auth.Flow {
	return sc.flow
}

// Gate returns the authorization gate for protected tools.
func (sc *ServerContext) Gate() *auth.Gate {
	return sc.gate
}

// Sessions returns the session store.
func (sc *ServerContext) Sessions() *auth.SessionStore {
	return sc.flow.Sessions()
}

// Weather returns the forecast client.
func (sc *ServerContext) Weather() *weather.Client {
	return sc.weather
}

// Itinerary returns the itinerary service.
func (sc *ServerContext) Itinerary() *itinerary.Service {
	return sc.itinerary
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	if sc.instr == nil {
		return nil
	}
	return sc.instr.Metrics()
}

// Instrumentation returns the instrumentation provider, possibly nil.
func (sc *ServerContext) Instrumentation() *instrumentation.Provider {
	return sc.instr
}

// Audit returns the audit logger, possibly nil.
func (sc *ServerContext) Audit() *instrumentation.AuditLogger {
	return sc.audit
}

// Logger returns the structured logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context and stops the auth sweepers.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.flow.Stop()
	sc.cancel()
	return nil
}
