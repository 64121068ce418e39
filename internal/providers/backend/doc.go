// Package backend is the HTTP client for the remote agent session API.
//
// Endpoints (relative to the configured base URL):
//   - POST /new: create a session
//   - POST /message: send a message, answer carries a JSON-encoded envelope
//   - GET /{id}/history: session info
//   - DELETE /{id}: delete a session
//
// Built on go-resty/resty with a pooled retryablehttp transport, a
// token-bucket limiter and a circuit breaker. Calls are never retried.
// Every failure is a *CallError that matches ErrNetwork or ErrServer
// through errors.Is.
//
// Example Usage:
//
//	client := backend.New(backend.Config{BaseURL: "http://localhost:8080/api/session"})
//	session, err := client.Create(ctx)
//	reply, err := client.Send(ctx, session.SessionID, "scan the subnet")
package backend
