// Package config provides 12-factor configuration for gadgeto.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags override environment variables.
//
// Configuration Sections:
//   - Backend: remote session API (URL, timeout, rate limit)
//   - Live: WebSocket live channel endpoint
//   - Store: durable store driver (bolt, sqlite, memory), path, compression
//   - Session: autosave interval
//   - Logging: log level and output format
//   - Metrics: optional Prometheus listen address
//   - Agent: development agent server (host, port)
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	client := backend.New(backend.Config{BaseURL: cfg.Backend.URL})
//
// Environment Variables:
//   - BACKEND_URL, BACKEND_TIMEOUT, BACKEND_RATE_LIMIT
//   - WS_ENDPOINT, WS_HANDSHAKE_TIMEOUT
//   - STORE_DRIVER, STORE_PATH, STORE_COMPRESS
//   - AUTOSAVE_INTERVAL
//   - LOG_LEVEL, LOG_DEV
//   - METRICS_ADDR
//   - AGENT_HOST, AGENT_PORT
package config
