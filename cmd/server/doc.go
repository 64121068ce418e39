// Package main runs the development agent server.
//
// The server stands in for the remote agent during local work. It speaks the
// same protocol the session engine expects:
//
//	POST   /api/session/new           create a session
//	POST   /api/session/message       exchange one message
//	GET    /api/session/{id}/history  session metadata
//	DELETE /api/session/{id}          discard a session
//	GET    /ws                        live channel
//	GET    /metrics                   Prometheus metrics
//
// Configuration:
//   - Environment variables (AGENT_PORT, AGENT_HOST, AGENT_RATE_LIMIT, ...)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./server -port 8080
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
