package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/gadgeto/internal/shared/value"
)

func TestReasoningDisplay(t *testing.T) {
	tests := []struct {
		name  string
		entry ReasoningEntry
		want  string
	}{
		{"note", Note("Session cleared"), "Session cleared"},
		{"mapping", Structural("Reasoning", value.Mapping(value.F("beforeNode", value.Sequence()))), `Reasoning: {"beforeNode":[]}`},
		{"json text", Structural("Result", value.String(` {"ok": true} `)), `Result: {"ok":true}`},
		{"plain text", Structural("Result", value.String("done")), "Result: done"},
		{"broken json text", Structural("Result", value.String("{oops")), "Result: {oops"},
		{"nil value", ReasoningEntry{Key: "Empty"}, "Empty: null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Display())
		})
	}
}

func TestConversationEntryTranscript(t *testing.T) {
	assert.Equal(t, "You: hi", UserEntry("hi").Transcript())
	assert.Equal(t, "pong", AgentEntry("pong", nil).Transcript())
	assert.True(t, AgentEntry("x", nil).IsAgent())
	assert.False(t, UserEntry("x").IsAgent())
}

func TestNullPayloadsStoredAsNil(t *testing.T) {
	null := value.Null()
	assert.Nil(t, AgentEntry("pong", &null).Reasoning)
	assert.Equal(t, AgentEntry("pong", nil), AgentEntry("pong", &null))

	r := Structural("History", value.Null())
	assert.Nil(t, r.Value)
	assert.True(t, r.IsStructural())
	assert.Equal(t, "History: null", r.Display())

	set := value.String("x")
	require.NotNil(t, AgentEntry("pong", &set).Reasoning)
	require.NotNil(t, Structural("Result", set).Value)
}

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"response":"pong","reasoning":{"beforeNode":["a"]},"history":[{"role":"user","content":"ping"}]}`))
	require.NoError(t, err)

	assert.Equal(t, "pong", env.Response)
	assert.Equal(t, `{"beforeNode":["a"]}`, env.Reasoning.String())
	assert.Equal(t, value.KindSequence, env.History.Kind())
}

func TestParseEnvelopeOptionalParts(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"response":""}`))
	require.NoError(t, err)

	assert.Equal(t, "", env.Response)
	assert.True(t, env.Reasoning.IsNull())
	assert.True(t, env.History.IsNull())
}

func TestParseEnvelopeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{`not json`, `"text"`, `null`, `{"reasoning":{}}`, `[1,2]`} {
		_, err := ParseEnvelope([]byte(raw))
		assert.Error(t, err, raw)
	}
}
