package engine

import (
	"context"

	"github.com/GriffinCanCode/gadgeto/internal/providers/backend"
	"github.com/GriffinCanCode/gadgeto/internal/providers/live"
)

// Backend is the remote session API
type Backend interface {
	Create(ctx context.Context) (backend.Session, error)
	Send(ctx context.Context, sessionID, text string) (backend.Reply, error)
	History(ctx context.Context, sessionID string) (backend.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// LiveChannel is one live connection
type LiveChannel interface {
	Dial(ctx context.Context) error
	Send(text string) error
	Close() error
	State() live.State
}

// LiveFactory builds a live channel that reports to sink
type LiveFactory func(sink live.Sink) LiveChannel

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Always answers every question with answer
func Always(answer bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return answer })
}

// NewLiveFactory builds live.Client channels for endpoint
func NewLiveFactory(endpoint string, opts ...live.Option) LiveFactory {
	return func(sink live.Sink) LiveChannel {
		return live.New(endpoint, sink, opts...)
	}
}
