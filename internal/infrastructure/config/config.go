package config

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/gadgeto/internal/shared/paths"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Backend BackendConfig
	Live    LiveConfig
	Store   StoreConfig
	Session SessionConfig
	Logging LogConfig
	Metrics MetricsConfig
	Agent   AgentConfig
}

// BackendConfig holds the remote session API settings.
type BackendConfig struct {
	URL       string        `envconfig:"BACKEND_URL" default:"http://localhost:8080/api/session"`
	Timeout   time.Duration `envconfig:"BACKEND_TIMEOUT" default:"60s"`
	RateLimit float64       `envconfig:"BACKEND_RATE_LIMIT" default:"0"`
}

// LiveConfig holds the live channel settings.
type LiveConfig struct {
	Endpoint         string        `envconfig:"WS_ENDPOINT" default:"ws://localhost:8080/ws"`
	HandshakeTimeout time.Duration `envconfig:"WS_HANDSHAKE_TIMEOUT" default:"10s"`
}

// StoreConfig holds durable store settings. An empty Path resolves to the
// per-user data directory.
type StoreConfig struct {
	Driver   string `envconfig:"STORE_DRIVER" default:"bolt"`
	Path     string `envconfig:"STORE_PATH"`
	Compress bool   `envconfig:"STORE_COMPRESS" default:"false"`
}

// SessionConfig holds session engine settings.
type SessionConfig struct {
	AutosaveInterval time.Duration `envconfig:"AUTOSAVE_INTERVAL" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// MetricsConfig holds the optional Prometheus endpoint. Empty disables it.
type MetricsConfig struct {
	Addr string `envconfig:"METRICS_ADDR"`
}

// AgentConfig holds the development agent server settings.
type AgentConfig struct {
	Port string `envconfig:"AGENT_PORT" default:"8080"`
	Host string `envconfig:"AGENT_HOST" default:"0.0.0.0"`
	// RateLimit is requests per second per client; zero disables it
	RateLimit    float64  `envconfig:"AGENT_RATE_LIMIT" default:"0"`
	RateBurst    int      `envconfig:"AGENT_RATE_BURST" default:"40"`
	AllowOrigins []string `envconfig:"AGENT_ALLOW_ORIGINS"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.resolve()
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
	cfg := &Config{
		Backend: BackendConfig{
			URL:     "http://localhost:8080/api/session",
			Timeout: 60 * time.Second,
		},
		Live: LiveConfig{
			Endpoint:         "ws://localhost:8080/ws",
			HandshakeTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver: "bolt",
		},
		Session: SessionConfig{
			AutosaveInterval: 30 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Agent: AgentConfig{
			Port:      "8080",
			Host:      "0.0.0.0",
			RateBurst: 40,
		},
	}
	cfg.resolve()
	return cfg
}

// ResolveStorePath fills an empty store path from the driver. Call it
// again after flags change the driver.
func (c *Config) ResolveStorePath() {
	if c.Store.Path == "" && c.Store.Driver != "memory" {
		c.Store.Path = paths.StoreFile(c.Store.Driver)
	}
}

func (c *Config) resolve() {
	c.ResolveStorePath()
}
