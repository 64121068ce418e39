package engine

import (
	"context"
	"time"
)

// EventType identifies an engine event
type EventType string

const (
	EventSaved          EventType = "engine.save"
	EventSaveFailed     EventType = "engine.save.failed"
	EventRestored       EventType = "engine.restore"
	EventCorruptBundle  EventType = "engine.restore.corrupt"
	EventFallback       EventType = "engine.mode.fallback"
	EventEntryAdded     EventType = "engine.entry"
	EventStaleDiscarded EventType = "engine.exchange.stale"
	EventFrameDropped   EventType = "engine.frame.dropped"
	EventImported       EventType = "engine.import"
	EventCleared        EventType = "engine.clear"
)

// Event is emitted on the engine loop
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      map[string]any
}

// Observer receives engine events. OnEvent runs on the engine loop and must
// return quickly.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, event Event)

// OnEvent calls f
func (f ObserverFunc) OnEvent(ctx context.Context, event Event) {
	f(ctx, event)
}

type noopObserver struct{}

func (noopObserver) OnEvent(context.Context, Event) {}
