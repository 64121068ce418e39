package agent

import (
	"context"

	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
	"github.com/GriffinCanCode/gadgeto/internal/shared/value"
)

// Responder produces the agent side of one exchange. history holds every
// earlier item of the session, the new user message last.
type Responder interface {
	Respond(ctx context.Context, message string, history []types.HistoryItem) (string, value.Value, error)
}

// ResponderFunc adapts a function to Responder
type ResponderFunc func(ctx context.Context, message string, history []types.HistoryItem) (string, value.Value, error)

// Respond calls f
func (f ResponderFunc) Respond(ctx context.Context, message string, history []types.HistoryItem) (string, value.Value, error) {
	return f(ctx, message, history)
}

// Echo answers each message with its own text wrapped in a preformatted
// block, and reports empty graph reasoning in the shape the real agent uses.
type Echo struct{}

// Respond implements Responder
func (Echo) Respond(_ context.Context, message string, history []types.HistoryItem) (string, value.Value, error) {
	return "<pre>" + message + "</pre>", graphReasoning(len(history)), nil
}

func graphReasoning(turn int) value.Value {
	return value.Mapping(
		value.F("beforeNode", value.Sequence()),
		value.F("afterNode", value.Sequence()),
		value.F("rerunNode", value.Sequence()),
		value.F("rerunNodesExtra", value.Mapping()),
		value.F("subGraphs", value.Mapping()),
		value.F("turn", value.Int(int64(turn))),
	)
}
