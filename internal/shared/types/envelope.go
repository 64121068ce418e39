package types

import (
	"encoding/json"
	"fmt"

	"github.com/GriffinCanCode/gadgeto/internal/shared/value"
)

// Envelope is the agent reply carried by both transports
type Envelope struct {
	Response  string      `json:"response"`
	Reasoning value.Value `json:"reasoning"`
	History   value.Value `json:"history"`
}

// ParseEnvelope decodes an agent reply. The payload must be a JSON object;
// missing reasoning or history decode as null.
func ParseEnvelope(data []byte) (Envelope, error) {
	var raw struct {
		Response  *string         `json:"response"`
		Reasoning json.RawMessage `json:"reasoning"`
		History   json.RawMessage `json:"history"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if raw.Response == nil {
		return Envelope{}, fmt.Errorf("decode envelope: missing response field")
	}

	env := Envelope{Response: *raw.Response}
	if len(raw.Reasoning) > 0 {
		v, err := value.Parse(raw.Reasoning)
		if err != nil {
			return Envelope{}, fmt.Errorf("decode envelope reasoning: %w", err)
		}
		env.Reasoning = v
	}
	if len(raw.History) > 0 {
		v, err := value.Parse(raw.History)
		if err != nil {
			return Envelope{}, fmt.Errorf("decode envelope history: %w", err)
		}
		env.History = v
	}
	return env, nil
}
