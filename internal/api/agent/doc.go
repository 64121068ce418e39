// Package agent is a development stand-in for the remote agent.
//
// It serves the same surface the client talks to:
//   - POST   /api/session/new           create a session
//   - POST   /api/session/message       exchange one message
//   - GET    /api/session/:id/history   session info
//   - DELETE /api/session/:id           forget a session
//   - GET    /ws                        live channel
//
// Sessions live in memory and get uuid ids. A message for an unknown
// session starts a new one and the reply carries the new id, which is how
// clients learn that their handle moved. Replies are produced by a
// Responder; Echo is the default.
//
// Example Usage:
//
//	srv := agent.New(agent.Config{Host: "0.0.0.0", Port: "8080"}, agent.WithLogger(log))
//	err := srv.Run(ctx)
package agent
