package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
)

// Version is written into every new bundle
const Version = "1.0"

// FilenamePrefix starts every export artifact name
const FilenamePrefix = "gogogadgeto-session-"

// ErrInvalidBundle is returned for input that is not a usable bundle
var ErrInvalidBundle = errors.New("invalid session format")

// Bundle is a versioned session snapshot
type Bundle struct {
	Timestamp        int64   `json:"timestamp"`
	Version          string  `json:"version"`
	BackendSessionID *string `json:"backendSessionId,omitempty"`
	Data             Data    `json:"data"`
}

// Data is the session payload
type Data struct {
	Messages         []Message       `json:"messages"`
	Reasoning        []Reasoning     `json:"reasoning"`
	TableData        []types.Finding `json:"tableData"`
	SelectedMessages []int           `json:"selectedMessages"`
	Responses        []string        `json:"responses"`
	LeftPanelWidth   *float64        `json:"leftPanelWidth,omitempty"`
}

// Message is a persisted conversation entry
type Message struct {
	types.ConversationEntry
}

// UnmarshalJSON accepts both the object form and the legacy string form
func (m *Message) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		if rest, ok := strings.CutPrefix(legacy, types.UserPrefix); ok {
			m.ConversationEntry = types.UserEntry(rest)
		} else {
			m.ConversationEntry = types.AgentEntry(legacy, nil)
		}
		return nil
	}

	var entry types.ConversationEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return err
	}
	if entry.Origin != types.OriginUser && entry.Origin != types.OriginAgent {
		return fmt.Errorf("unknown message origin %q", entry.Origin)
	}
	m.ConversationEntry = entry
	return nil
}

// Reasoning is a persisted reasoning entry
type Reasoning struct {
	types.ReasoningEntry
}

// UnmarshalJSON accepts both the object form and the legacy string form
func (r *Reasoning) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		r.ReasoningEntry = types.Note(legacy)
		return nil
	}
	return json.Unmarshal(data, &r.ReasoningEntry)
}

// New stamps data into a bundle
func New(now time.Time, backendSessionID *string, data Data) Bundle {
	var id *string
	if backendSessionID != nil {
		copied := *backendSessionID
		id = &copied
	}
	return Bundle{
		Timestamp:        now.UnixMilli(),
		Version:          Version,
		BackendSessionID: id,
		Data:             data.normalized(),
	}
}

// Entries unwraps persisted messages
func (d Data) Entries() []types.ConversationEntry {
	out := make([]types.ConversationEntry, len(d.Messages))
	for i, m := range d.Messages {
		out[i] = m.ConversationEntry
	}
	return out
}

// ReasoningEntries unwraps persisted reasoning
func (d Data) ReasoningEntries() []types.ReasoningEntry {
	out := make([]types.ReasoningEntry, len(d.Reasoning))
	for i, r := range d.Reasoning {
		out[i] = r.ReasoningEntry
	}
	return out
}

// FromState builds a payload from engine state. Responses are derived from
// the agent entries.
func FromState(entries []types.ConversationEntry, reasoning []types.ReasoningEntry, findings []types.Finding, selection []int, panelSplit *float64) Data {
	d := Data{
		Messages:         make([]Message, len(entries)),
		Reasoning:        make([]Reasoning, len(reasoning)),
		TableData:        append([]types.Finding{}, findings...),
		SelectedMessages: append([]int{}, selection...),
		Responses:        []string{},
	}
	for i, e := range entries {
		d.Messages[i] = Message{e}
		if e.IsAgent() {
			d.Responses = append(d.Responses, e.Text)
		}
	}
	for i, r := range reasoning {
		d.Reasoning[i] = Reasoning{r}
	}
	if panelSplit != nil {
		w := *panelSplit
		d.LeftPanelWidth = &w
	}
	return d
}

// normalized replaces nil slices so they encode as [] rather than null
func (d Data) normalized() Data {
	if d.Messages == nil {
		d.Messages = []Message{}
	}
	if d.Reasoning == nil {
		d.Reasoning = []Reasoning{}
	}
	if d.TableData == nil {
		d.TableData = []types.Finding{}
	}
	if d.SelectedMessages == nil {
		d.SelectedMessages = []int{}
	}
	if d.Responses == nil {
		d.Responses = []string{}
	}
	return d
}

// Encode renders the compact form written to the durable store
func Encode(b Bundle) ([]byte, error) {
	b.Data = b.Data.normalized()
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bundle: %w", err)
	}
	return data, nil
}

// EncodePretty renders the indented form used for export artifacts
func EncodePretty(b Bundle) ([]byte, error) {
	b.Data = b.Data.normalized()
	data, err := sonic.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bundle: %w", err)
	}
	return data, nil
}

// Decode parses and validates a bundle. Any failure wraps ErrInvalidBundle.
func Decode(raw []byte) (Bundle, error) {
	var head struct {
		Timestamp        json.RawMessage `json:"timestamp"`
		Version          string          `json:"version"`
		BackendSessionID *string         `json:"backendSessionId"`
		Data             json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	if len(head.Data) == 0 || string(head.Data) == "null" {
		return Bundle{}, fmt.Errorf("%w: missing data", ErrInvalidBundle)
	}
	ts, err := parseTimestamp(head.Timestamp)
	if err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}

	var data Data
	if err := json.Unmarshal(head.Data, &data); err != nil {
		return Bundle{}, fmt.Errorf("%w: data: %v", ErrInvalidBundle, err)
	}

	b := Bundle{
		Timestamp: ts,
		Version:   head.Version,
		Data:      data.normalized(),
	}
	if head.BackendSessionID != nil && *head.BackendSessionID != "" {
		b.BackendSessionID = head.BackendSessionID
	}
	return b, nil
}

// parseTimestamp reads epoch milliseconds from a number, a numeric string or
// an RFC 3339 date. Fractional milliseconds are truncated.
func parseTimestamp(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errors.New("missing timestamp")
	}

	var ms int64
	var num json.Number
	var text string
	switch {
	case json.Unmarshal(raw, &num) == nil:
		if n, err := num.Int64(); err == nil {
			ms = n
		} else if f, err := num.Float64(); err == nil {
			ms = int64(f)
		} else {
			return 0, fmt.Errorf("timestamp out of range: %s", num)
		}
	case json.Unmarshal(raw, &text) == nil:
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(text))
		if err != nil {
			return 0, fmt.Errorf("unreadable timestamp %q", text)
		}
		ms = t.UnixMilli()
	default:
		return 0, fmt.Errorf("unreadable timestamp %s", raw)
	}

	if ms == 0 {
		return 0, errors.New("missing timestamp")
	}
	return ms, nil
}

// Filename names the export artifact after the bundle's UTC date
func Filename(b Bundle) string {
	return FilenamePrefix + time.UnixMilli(b.Timestamp).UTC().Format("2006-01-02") + ".json"
}

// IsTrivial reports whether the bundle recorded no conversation at all
func (b Bundle) IsTrivial() bool {
	return len(b.Data.Messages) == 0 && len(b.Data.Responses) == 0
}
