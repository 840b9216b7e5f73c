// Package config provides configuration for the collaboration server,
// loaded from the environment with an optional YAML file overlay.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the server.
type Config struct {
	// Database configuration.
	DatabaseDSN string `env:"DATABASE_URL" yaml:"database_dsn"`

	// Authentication.
	JWTSecret string        `env:"JWT_SECRET" yaml:"jwt_secret"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" yaml:"jwt_expiry"`

	// Server configuration.
	APIHost string `env:"API_HOST" yaml:"api_host"`
	APIPort int    `env:"API_PORT" yaml:"api_port"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`

	// Identity is the boundary with the external identity provider.
	Identity IdentityConfig `yaml:"identity"`

	// Relay holds presence/edit broadcast tuning.
	Relay RelayConfig `yaml:"relay"`

	// Documents holds document lifecycle behavior.
	Documents DocumentsConfig `yaml:"documents"`
}

// IdentityConfig configures the email resolver for invitation sender
// display. Lookups fail open; the service never hard-depends on it.
type IdentityConfig struct {
	// BaseURL of the user profile endpoint, e.g. the API gateway.
	BaseURL string `env:"IDENTITY_BASE_URL" yaml:"base_url"`
	// Timeout for a single lookup.
	Timeout time.Duration `env:"IDENTITY_TIMEOUT" yaml:"timeout"`
}

// RelayConfig configures the per-document broadcast relay.
type RelayConfig struct {
	// SubscriberBuffer is the per-subscriber channel depth. Messages to a
	// subscriber with a full buffer are dropped, never blocked on.
	SubscriberBuffer int `env:"RELAY_SUBSCRIBER_BUFFER" yaml:"subscriber_buffer"`
}

// DocumentsConfig configures document lifecycle behavior.
type DocumentsConfig struct {
	// DeleteCascade controls whether deleting a document also removes its
	// invitations, versions and contributions. When false they are
	// orphaned, matching the original system's behavior.
	DeleteCascade *bool `env:"DOCUMENTS_DELETE_CASCADE" yaml:"delete_cascade"`
	// InvitationTTL is how long invitations stay acceptable.
	InvitationTTL time.Duration `env:"INVITATION_TTL" yaml:"invitation_ttl"`
}

// CascadeOnDelete reports whether document deletion removes related rows.
func (c DocumentsConfig) CascadeOnDelete() bool {
	return c.DeleteCascade == nil || *c.DeleteCascade
}

func defaults() *Config {
	return &Config{
		DatabaseDSN:     "postgres://localhost:5432/scribe?sslmode=disable",
		JWTExpiry:       24 * time.Hour,
		APIHost:         "0.0.0.0",
		APIPort:         8080,
		ShutdownTimeout: 30 * time.Second,
		Identity: IdentityConfig{
			BaseURL: "http://localhost:8090",
			Timeout: 3 * time.Second,
		},
		Relay: RelayConfig{
			SubscriberBuffer: 64,
		},
		Documents: DocumentsConfig{
			InvitationTTL: 7 * 24 * time.Hour,
		},
	}
}

// Load reads configuration. Precedence, lowest to highest: built-in
// defaults, the YAML file named by CONFIG_FILE, then the environment.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.Relay.SubscriberBuffer <= 0 {
		return fmt.Errorf("RELAY_SUBSCRIBER_BUFFER must be positive")
	}
	return nil
}

// LoadWithDefaults returns configuration with a development JWT secret
// and no validation of required fields. Useful for tests.
func LoadWithDefaults() *Config {
	cfg := defaults()
	_ = env.Parse(cfg)
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "development-secret-key-min-32-chars"
	}
	return cfg
}
