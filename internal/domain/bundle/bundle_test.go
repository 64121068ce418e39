package bundle

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
	"github.com/GriffinCanCode/gadgeto/internal/shared/value"
)

func sampleData() Data {
	reasoning := value.Mapping(value.F("beforeNode", value.Sequence(value.String("tools"))))
	width := 42.5
	return FromState(
		[]types.ConversationEntry{
			types.UserEntry("ping"),
			types.AgentEntry("<pre>pong</pre>", &reasoning),
		},
		[]types.ReasoningEntry{
			types.Note("Sent: ping"),
			types.Structural("Reasoning", reasoning),
		},
		[]types.Finding{{ID: 1, Name: types.FindingName, Status: types.FindingStatusActive, Content: "pong"}},
		[]int{1, 0, 7},
		&width,
	)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	id := "abc"
	b := New(time.UnixMilli(1718000000000), &id, sampleData())

	for name, encode := range map[string]func(Bundle) ([]byte, error){
		"compact": Encode,
		"pretty":  EncodePretty,
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := encode(b)
			require.NoError(t, err)

			decoded, err := Decode(raw)
			require.NoError(t, err)

			assert.Equal(t, b.Timestamp, decoded.Timestamp)
			assert.Equal(t, Version, decoded.Version)
			require.NotNil(t, decoded.BackendSessionID)
			assert.Equal(t, "abc", *decoded.BackendSessionID)
			assert.Equal(t, b.Data.Entries(), decoded.Data.Entries())
			assert.Equal(t, b.Data.ReasoningEntries(), decoded.Data.ReasoningEntries())
			assert.Equal(t, b.Data.TableData, decoded.Data.TableData)
			assert.Equal(t, []string{"<pre>pong</pre>"}, decoded.Data.Responses)
			require.NotNil(t, decoded.Data.LeftPanelWidth)
			assert.Equal(t, 42.5, *decoded.Data.LeftPanelWidth)
		})
	}
}

func TestSelectedMessagesRoundTripExactly(t *testing.T) {
	b := New(time.UnixMilli(1718000000000), nil, sampleData())

	raw, err := Encode(b)
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	again, err := Encode(decoded)
	require.NoError(t, err)

	selected := func(raw []byte) json.RawMessage {
		var doc struct {
			Data struct {
				SelectedMessages json.RawMessage `json:"selectedMessages"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &doc))
		return doc.Data.SelectedMessages
	}

	assert.Equal(t, string(selected(raw)), string(selected(again)))
	assert.Equal(t, `[1,0,7]`, string(selected(raw)))
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `hello`},
		{"missing timestamp", `{"version":"1.0","data":{"messages":[]}}`},
		{"zero timestamp", `{"timestamp":0,"data":{}}`},
		{"null timestamp", `{"timestamp":null,"data":{}}`},
		{"bool timestamp", `{"timestamp":true,"data":{}}`},
		{"text timestamp", `{"timestamp":"yesterday","data":{}}`},
		{"empty timestamp", `{"timestamp":"","data":{}}`},
		{"missing data", `{"timestamp":1718000000000,"version":"1.0"}`},
		{"null data", `{"timestamp":1718000000000,"data":null}`},
		{"data wrong type", `{"timestamp":1718000000000,"data":{"messages":{}}}`},
		{"unknown origin", `{"timestamp":1718000000000,"data":{"messages":[{"origin":"robot","text":"x"}]}}`},
		{"array", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidBundle)
		})
	}
}

func TestDecodeTimestampForms(t *testing.T) {
	tests := []struct {
		name string
		ts   string
		want int64
	}{
		{"integer", `1709640000000`, 1709640000000},
		{"exponent", `1.70964e12`, 1709640000000},
		{"fraction", `1709640000000.75`, 1709640000000},
		{"numeric string", `"1709640000000"`, 1709640000000},
		{"date string", `"2024-03-05T12:00:00.000Z"`, 1709640000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Decode([]byte(`{"timestamp":` + tt.ts + `,"data":{}}`))
			require.NoError(t, err)
			assert.Equal(t, tt.want, b.Timestamp)
			assert.Equal(t, "gogogadgeto-session-2024-03-05.json", Filename(b))
		})
	}
}

func TestDecodeLegacyStrings(t *testing.T) {
	raw := `{"timestamp":1718000000000,"version":"0.9","data":{
		"messages":["You: scan it","<pre>open ports: 22</pre>"],
		"reasoning":["Initial reasoning...","Sent: scan it"],
		"tableData":[],"selectedMessages":[1],"responses":["<pre>open ports: 22</pre>"]}}`

	b, err := Decode([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "0.9", b.Version, "version is carried, never migrated")
	assert.Nil(t, b.BackendSessionID)
	assert.Equal(t, []types.ConversationEntry{
		types.UserEntry("scan it"),
		types.AgentEntry("<pre>open ports: 22</pre>", nil),
	}, b.Data.Entries())
	assert.Equal(t, []types.ReasoningEntry{
		types.Note("Initial reasoning..."),
		types.Note("Sent: scan it"),
	}, b.Data.ReasoningEntries())
	assert.Nil(t, b.Data.LeftPanelWidth)
}

func TestDecodeFillsMissingLists(t *testing.T) {
	b, err := Decode([]byte(`{"timestamp":5,"data":{}}`))
	require.NoError(t, err)

	assert.NotNil(t, b.Data.Messages)
	assert.NotNil(t, b.Data.SelectedMessages)
	assert.True(t, b.IsTrivial())

	raw, err := Encode(b)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"messages":[]`)
	assert.NotContains(t, string(raw), `backendSessionId`)
}

func TestFilename(t *testing.T) {
	b := Bundle{Timestamp: time.Date(2024, 6, 10, 23, 30, 0, 0, time.UTC).UnixMilli()}
	assert.Equal(t, "gogogadgeto-session-2024-06-10.json", Filename(b))
}

func TestSummarize(t *testing.T) {
	raw, err := Encode(New(time.UnixMilli(1718000000000), nil, sampleData()))
	require.NoError(t, err)

	info, err := Summarize(raw)
	require.NoError(t, err)

	assert.Equal(t, int64(1718000000000), info.Timestamp)
	assert.Equal(t, 2, info.MessageCount)
	assert.Equal(t, 1, info.ResponseCount)
	assert.Equal(t, 1, info.TableDataCount)
	assert.Equal(t, len(raw), info.Size)
	assert.Equal(t, "Found a previous session with 2 messages, 1 responses, and 1 table items. Would you like to restore it?", info.RestorePrompt())

	_, err = Summarize([]byte(`{}`))
	assert.ErrorIs(t, err, ErrInvalidBundle)
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "0 Bytes", Info{Size: 0}.HumanSize())
	assert.Equal(t, "512 Bytes", Info{Size: 512}.HumanSize())
	assert.Equal(t, "1.50 KB", Info{Size: 1536}.HumanSize())
	assert.Equal(t, "2.00 MB", Info{Size: 2 * 1024 * 1024}.HumanSize())
}
