// Package config loads server configuration from environment variables.
// Command-line flags take precedence; the serve command overlays flag values
// on top of what this package parses.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the environment-driven configuration for the server.
type Config struct {
	// GitHub OAuth application credentials.
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`

	// BaseURL is the public base URL of this server; the OAuth callback
	// address is derived from it.
	BaseURL string `env:"MCP_BASE_URL" envDefault:"http://localhost:8080"`

	// SessionTTL is how long a login stays valid.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// StateTTL bounds how long an in-flight login attempt may complete.
	StateTTL time.Duration `env:"LOGIN_STATE_TTL" envDefault:"10m"`

	// ProviderTimeout bounds each network call to GitHub.
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`

	// RateLimitRPS and RateLimitBurst configure per-IP rate limiting on
	// the public HTTP endpoints.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// MetricsEnabled and MetricsAddr configure the dedicated Prometheus
	// endpoint.
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsAddr    string `env:"METRICS_ADDR" envDefault:":9090"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks settings that have no usable zero value. GitHub
// credentials are only required when the login flow is actually served, so
// they are checked separately by the serve command.
func (c *Config) Validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %v", c.SessionTTL)
	}
	if c.StateTTL <= 0 {
		return fmt.Errorf("login state TTL must be positive, got %v", c.StateTTL)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %v", c.ProviderTimeout)
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit must be positive, got %v", c.RateLimitRPS)
	}
	return nil
}
