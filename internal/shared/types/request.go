package types

import "time"

// SessionRequest is the body of POST /message
type SessionRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

// SessionResponse is the reply to POST /message. Response holds a
// JSON-encoded Envelope.
type SessionResponse struct {
	SessionID string        `json:"sessionId"`
	Response  string        `json:"response"`
	History   []HistoryItem `json:"history,omitempty"`
}

// SessionInfo describes a backend session (POST /new, GET /{id}/history)
type SessionInfo struct {
	SessionID    string    `json:"sessionId"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccess   time.Time `json:"lastAccess"`
	MessageCount int       `json:"messageCount"`
}

// HistoryItem is one message of the agent-side conversation history
type HistoryItem struct {
	OrderID    int            `json:"orderId"`
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []ToolCallInfo `json:"toolCalls,omitempty"`
	ToolCallID string         `json:"toolCallId,omitempty"`
	Name       string         `json:"name,omitempty"`
}

// ToolCallInfo describes a tool invocation inside a history item
type ToolCallInfo struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionInfo `json:"function"`
}

// FunctionInfo holds the called function and its raw arguments
type FunctionInfo struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// DeleteResponse is the reply to DELETE /{id}
type DeleteResponse struct {
	Status string `json:"status"`
}
