package engine

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/gadgeto/internal/domain/bundle"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/store"
	"github.com/GriffinCanCode/gadgeto/internal/providers/backend"
	"github.com/GriffinCanCode/gadgeto/internal/providers/live"
	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
	"github.com/GriffinCanCode/gadgeto/internal/shared/value"
)

var errStoreDown = errors.New("store down")

// MockBackend is a mock implementation of Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Create(ctx context.Context) (backend.Session, error) {
	args := m.Called(ctx)
	return args.Get(0).(backend.Session), args.Error(1)
}

func (m *MockBackend) Send(ctx context.Context, sessionID, text string) (backend.Reply, error) {
	args := m.Called(ctx, sessionID, text)
	return args.Get(0).(backend.Reply), args.Error(1)
}

func (m *MockBackend) History(ctx context.Context, sessionID string) (backend.Session, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(backend.Session), args.Error(1)
}

func (m *MockBackend) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// newBackend returns a backend whose first Create yields id
func newBackend(id string) *MockBackend {
	m := new(MockBackend)
	m.On("Create", mock.Anything).Return(backend.Session{SessionID: id}, nil).Once()
	return m
}

// fakeLive is a scripted live channel
type fakeLive struct {
	mu      sync.Mutex
	sink    live.Sink
	state   live.State
	sent    []string
	dialErr error
}

func newFakeLive() *fakeLive {
	return &fakeLive{state: live.StateConnecting}
}

func (f *fakeLive) factory() LiveFactory {
	return func(sink live.Sink) LiveChannel {
		f.mu.Lock()
		f.sink = sink
		f.mu.Unlock()
		return f
	}
}

func (f *fakeLive) Dial(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dialErr != nil {
		f.state = live.StateClosed
		return f.dialErr
	}
	f.state = live.StateOpen
	return nil
}

func (f *fakeLive) Send(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != live.StateOpen {
		return live.ErrNotOpen
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeLive) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = live.StateClosed
	return nil
}

func (f *fakeLive) State() live.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeLive) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sent)
}

func (f *fakeLive) deliver(ev live.Event) {
	f.mu.Lock()
	sink := f.sink
	f.mu.Unlock()
	sink(ev)
}

// recorder collects observer events
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) has(t EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

// flakyStore fails writes while fail is set
type flakyStore struct {
	*store.Memory
	fail atomic.Bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Memory: store.NewMemory()}
}

func (s *flakyStore) Set(ctx context.Context, key string, data []byte) error {
	if s.fail.Load() {
		return errStoreDown
	}
	return s.Memory.Set(ctx, key, data)
}

func startEngine(t *testing.T, st store.Store, opts ...Option) *Engine {
	t.Helper()
	e := New(st, append([]Option{WithAutosaveInterval(0)}, opts...)...)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e
}

func viewOf(t *testing.T, e *Engine) View {
	t.Helper()
	v, err := e.View(context.Background())
	require.NoError(t, err)
	return v
}

// notes returns the free-text reasoning entries
func notes(v View) []string {
	out := []string{}
	for _, r := range v.Reasoning {
		if !r.IsStructural() {
			out = append(out, r.Text)
		}
	}
	return out
}

func agentReply(sessionID, text string) backend.Reply {
	return backend.Reply{
		SessionID: sessionID,
		Envelope: types.Envelope{
			Response:  text,
			Reasoning: value.Mapping(value.F("step", value.String("lookup"))),
			History: value.Sequence(value.Mapping(
				value.F("role", value.String("user")),
				value.F("content", value.String("secret prompt")),
			)),
		},
	}
}

// seed writes a bundle straight into the store
func seed(t *testing.T, st store.Store, b bundle.Bundle) []byte {
	t.Helper()
	raw, err := bundle.Encode(b)
	require.NoError(t, err)
	require.NoError(t, st.Set(context.Background(), SessionKey, raw))
	return raw
}

func sampleBundle(entries ...types.ConversationEntry) bundle.Bundle {
	return bundle.New(time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), nil,
		bundle.FromState(entries, []types.ReasoningEntry{types.Note("earlier note")}, nil, nil, nil))
}
