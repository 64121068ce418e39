package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/store"
	"github.com/GriffinCanCode/gadgeto/internal/providers/backend"
	"github.com/GriffinCanCode/gadgeto/internal/providers/live"
	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
)

func TestStartCreatesBackendSession(t *testing.T) {
	st := store.NewMemory()
	mb := newBackend("abc")

	e := startEngine(t, st, WithBackend(mb))

	v := viewOf(t, e)
	assert.Equal(t, types.ModeBackend, v.Mode)
	assert.Equal(t, "abc", v.Handle)
	assert.Contains(t, notes(v), "Created new backend session: abc")

	cached, err := st.Get(context.Background(), BackendSessionKey)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(cached))
	mb.AssertExpectations(t)
}

func TestStartUsesCachedSession(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.Set(context.Background(), BackendSessionKey, []byte("cached")))
	mb := new(MockBackend)

	e := startEngine(t, st, WithBackend(mb))

	v := viewOf(t, e)
	assert.Equal(t, types.ModeBackend, v.Mode)
	assert.Equal(t, "cached", v.Handle)
	assert.Equal(t, []string{"Using existing backend session: cached"}, notes(v))
	mb.AssertNotCalled(t, "Create", mock.Anything)
}

func TestFallbackToLiveChannel(t *testing.T) {
	mb := new(MockBackend)
	mb.On("Create", mock.Anything).Return(backend.Session{}, errors.New("boom"))
	fl := newFakeLive()
	rec := &recorder{}

	e := startEngine(t, store.NewMemory(), WithBackend(mb), WithLive(fl.factory()), WithObserver(rec))

	v := viewOf(t, e)
	assert.Equal(t, types.ModeLive, v.Mode)
	assert.False(t, v.HasHandle())
	assert.Equal(t, live.StateOpen, v.LiveState)
	assert.Contains(t, notes(v), "Failed to create backend session, falling back to live channel: boom")
	assert.True(t, rec.has(EventFallback))

	require.NoError(t, e.SendMessage(context.Background(), "hi"))
	assert.Equal(t, []string{"hi"}, fl.Sent())

	v = viewOf(t, e)
	assert.True(t, v.Pending)
	require.Len(t, v.Entries, 1)
	assert.Equal(t, types.UserEntry("hi"), v.Entries[0])

	fl.deliver(live.Event{Kind: live.EventFrame, Envelope: types.Envelope{Response: "hello"}})

	require.Eventually(t, func() bool {
		return len(viewOf(t, e).Entries) == 2
	}, time.Second, 5*time.Millisecond)

	v = viewOf(t, e)
	assert.False(t, v.Pending)
	assert.Equal(t, "hello", v.Entries[1].Text)
	assert.True(t, v.Entries[1].IsAgent())
	assert.True(t, rec.has(EventEntryAdded))
	mb.AssertNumberOfCalls(t, "Send", 0)
}

func TestFallbackWithoutAnyTransport(t *testing.T) {
	e := startEngine(t, store.NewMemory())

	v := viewOf(t, e)
	assert.Equal(t, types.ModeLive, v.Mode)
	assert.Contains(t, notes(v), "Live channel unavailable: no endpoint configured")

	require.NoError(t, e.SendMessage(context.Background(), "anyone?"))

	v = viewOf(t, e)
	assert.False(t, v.Pending)
	assert.Equal(t, noConnection, notes(v)[len(notes(v))-1])
}

func TestLiveDialFailure(t *testing.T) {
	fl := newFakeLive()
	fl.dialErr = errors.New("refused")

	e := startEngine(t, store.NewMemory(), WithLive(fl.factory()))

	v := viewOf(t, e)
	assert.Equal(t, live.StateClosed, v.LiveState)
	assert.Contains(t, notes(v), "Live channel unavailable: refused")
}

func TestLiveMalformedAndClosed(t *testing.T) {
	fl := newFakeLive()
	e := startEngine(t, store.NewMemory(), WithLive(fl.factory()))

	require.NoError(t, e.SendMessage(context.Background(), "first"))
	fl.deliver(live.Event{Kind: live.EventMalformed, Err: errors.New("bad json")})
	fl.deliver(live.Event{Kind: live.EventClosed})

	require.Eventually(t, func() bool {
		ns := notes(viewOf(t, e))
		return ns[len(ns)-1] == "Live channel disconnected"
	}, time.Second, 5*time.Millisecond)

	v := viewOf(t, e)
	assert.Contains(t, notes(v), "Malformed frame dropped: bad json")
	assert.False(t, v.Pending)
	assert.Len(t, v.Entries, 1)
}

func TestLiveEventOutsideLiveModeDropped(t *testing.T) {
	rec := &recorder{}
	e := startEngine(t, store.NewMemory(), WithBackend(newBackend("abc")), WithObserver(rec))

	require.NoError(t, e.do(context.Background(), func() {
		e.onLiveEvent(live.Event{Kind: live.EventFrame, Envelope: types.Envelope{Response: "late"}})
	}))

	v := viewOf(t, e)
	assert.Empty(t, v.Entries)
	assert.True(t, rec.has(EventFrameDropped))
}

func TestRestoreAccepted(t *testing.T) {
	st := store.NewMemory()
	seed(t, st, sampleBundle(types.UserEntry("q"), types.AgentEntry("a", nil)))
	rec := &recorder{}

	var prompt string
	confirm := ConfirmFunc(func(_ context.Context, p string) bool {
		prompt = p
		return true
	})

	e := startEngine(t, st, WithBackend(newBackend("abc")), WithConfirmer(confirm), WithObserver(rec))

	assert.Equal(t, "Found a previous session with 2 messages, 1 responses, and 0 table items. Would you like to restore it?", prompt)

	v := viewOf(t, e)
	assert.Equal(t, []types.ConversationEntry{types.UserEntry("q"), types.AgentEntry("a", nil)}, v.Entries)
	assert.Equal(t, []string{"a"}, v.Responses())
	assert.Equal(t, []string{"earlier note", "Created new backend session: abc"}, notes(v))
	assert.True(t, rec.has(EventRestored))
}

func TestRestoreDeclinedKeepsBundle(t *testing.T) {
	st := store.NewMemory()
	raw := seed(t, st, sampleBundle(types.UserEntry("q"), types.AgentEntry("a", nil)))

	e := New(st, WithBackend(newBackend("abc")), WithConfirmer(Always(false)), WithAutosaveInterval(0))
	require.NoError(t, e.Start(context.Background()))

	v := viewOf(t, e)
	assert.Empty(t, v.Entries)

	require.NoError(t, e.Close(context.Background()))

	stored, err := st.Get(context.Background(), SessionKey)
	require.NoError(t, err)
	assert.Equal(t, raw, stored)
}

func TestRestoreSkipsTrivialBundle(t *testing.T) {
	st := store.NewMemory()
	seed(t, st, sampleBundle())

	asked := false
	confirm := ConfirmFunc(func(context.Context, string) bool {
		asked = true
		return true
	})

	e := startEngine(t, st, WithConfirmer(confirm))

	assert.False(t, asked)
	assert.Empty(t, viewOf(t, e).Entries)
}

func TestRestoreRemovesCorruptBundle(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.Set(context.Background(), SessionKey, []byte(`{"data":`)))
	rec := &recorder{}

	e := startEngine(t, st, WithConfirmer(Always(true)), WithObserver(rec))

	_, err := st.Get(context.Background(), SessionKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.True(t, rec.has(EventCorruptBundle))
	assert.Empty(t, viewOf(t, e).Entries)
}

func TestCommandsOutsideLifetime(t *testing.T) {
	e := New(store.NewMemory(), WithAutosaveInterval(0))

	_, err := e.View(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, e.Start(context.Background()))
	assert.Error(t, e.Start(context.Background()))
	require.NoError(t, e.Close(context.Background()))

	_, err = e.View(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, e.SendMessage(context.Background(), "x"), ErrClosed)
	assert.NoError(t, e.Close(context.Background()))
}
