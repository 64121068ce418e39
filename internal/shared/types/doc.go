// Package types provides the data shared by the session engine, its
// transports and the development agent.
//
// Conversation Types:
//   - ConversationEntry: one chat turn, user or agent
//   - ReasoningEntry: diagnostic log record, free text or key/value
//   - Finding: user-curated artifact promoted from agent output
//   - Mode: active transport (backend or live)
//
// Wire Types:
//   - Envelope: agent reply carried as JSON text
//   - SessionRequest, SessionResponse: POST /message
//   - SessionInfo: session metadata (POST /new, GET /{id}/history)
//   - HistoryItem: agent-side history record
//
// Example Usage:
//
//	env, err := types.ParseEnvelope([]byte(resp.Response))
//	entry := types.AgentEntry(env.Response, &env.Reasoning)
package types
