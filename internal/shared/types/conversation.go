package types

import (
	"strings"

	"github.com/GriffinCanCode/gadgeto/internal/shared/value"
)

// Origin identifies who produced a conversation entry
type Origin string

const (
	OriginUser  Origin = "user"
	OriginAgent Origin = "agent"
)

// UserPrefix marks user turns in transcripts and legacy bundles
const UserPrefix = "You: "

// ConversationEntry is one chat turn. Its position in the transcript is the
// selection key.
type ConversationEntry struct {
	Origin    Origin       `json:"origin"`
	Text      string       `json:"text"`
	Reasoning *value.Value `json:"reasoning,omitempty"`
}

// UserEntry builds a user turn
func UserEntry(text string) ConversationEntry {
	return ConversationEntry{Origin: OriginUser, Text: text}
}

// AgentEntry builds an agent turn with an optional reasoning payload. A null
// payload is stored as nil, the form it takes after a save and load.
func AgentEntry(text string, reasoning *value.Value) ConversationEntry {
	if reasoning != nil && reasoning.IsNull() {
		reasoning = nil
	}
	return ConversationEntry{Origin: OriginAgent, Text: text, Reasoning: reasoning}
}

// IsAgent reports whether the entry came from the agent
func (e ConversationEntry) IsAgent() bool {
	return e.Origin == OriginAgent
}

// Transcript renders the entry the way the chat pane shows it
func (e ConversationEntry) Transcript() string {
	if e.Origin == OriginUser {
		return UserPrefix + e.Text
	}
	return e.Text
}

// ReasoningEntry is a diagnostic record. Entries with a Key are structural,
// the rest are free text.
type ReasoningEntry struct {
	Text  string       `json:"text,omitempty"`
	Key   string       `json:"key,omitempty"`
	Value *value.Value `json:"value,omitempty"`
}

// Note builds a free-text reasoning entry
func Note(text string) ReasoningEntry {
	return ReasoningEntry{Text: text}
}

// Structural builds a key/value reasoning entry. Null values are kept as nil.
func Structural(key string, v value.Value) ReasoningEntry {
	if v.IsNull() {
		return ReasoningEntry{Key: key}
	}
	return ReasoningEntry{Key: key, Value: &v}
}

// IsStructural reports whether the entry is a key/value pair
func (r ReasoningEntry) IsStructural() bool {
	return r.Key != ""
}

// Display renders the entry for the reasoning pane. String values that hold
// JSON text are re-parsed so they print as structure, not as a quoted blob.
func (r ReasoningEntry) Display() string {
	if !r.IsStructural() {
		return r.Text
	}
	if r.Value == nil {
		return r.Key + ": null"
	}
	if s, ok := r.Value.AsString(); ok {
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			if parsed, err := value.Parse([]byte(trimmed)); err == nil {
				return r.Key + ": " + parsed.String()
			}
		}
		return r.Key + ": " + s
	}
	return r.Key + ": " + r.Value.String()
}

// FindingStatusActive is the status every finding starts with
const FindingStatusActive = "Active"

// FindingName is the label given to promoted findings
const FindingName = "NodeType"

// Finding is a user-curated artifact promoted from agent output
type Finding struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Content string `json:"content"`
}

// Mode selects the transport used for sending messages
type Mode string

const (
	ModeBackend Mode = "backend"
	ModeLive    Mode = "live"
)
