package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/paths"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Store     StoreConfig
	Catalog   CatalogConfig
	Events    EventsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// StoreConfig holds hint and session storage configuration.
// Relative paths here and in CatalogConfig resolve against Home.
type StoreConfig struct {
	Home string `envconfig:"DESKTOP_HOME" default:"."`
	Path string `envconfig:"DESKTOP_DB_PATH" default:"data/desktop.db"`
}

// CatalogConfig holds app manifest discovery configuration.
type CatalogConfig struct {
	AppsDir string `envconfig:"APPS_DIR" default:"apps"`
	Pattern string `envconfig:"APPS_PATTERN" default:"**/*.{yaml,yml,toml}"`
}

// EventsConfig holds event bridge configuration.
type EventsConfig struct {
	Durable     bool          `envconfig:"EVENTS_DURABLE" default:"true"`
	LaunchDelay time.Duration `envconfig:"EVENTS_LAUNCH_DELAY" default:"0s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Store: StoreConfig{
			Home: ".",
			Path: paths.Database,
		},
		Catalog: CatalogConfig{
			AppsDir: paths.AppsDir,
			Pattern: "**/*.{yaml,yml,toml}",
		},
		Events: EventsConfig{
			Durable: true,
		},
	}
}
