// Package live is the WebSocket client for the agent's live channel.
//
// A Client moves Connecting -> Open -> Closed and never reopens. Outbound
// messages are raw text frames. Every inbound text frame is decoded as an
// agent envelope and delivered to the Sink as EventFrame; frames that fail
// to decode arrive as EventMalformed and leave the connection open. The
// end of the connection, remote or local, is reported once as EventClosed.
package live
