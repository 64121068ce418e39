package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/gadgeto/internal/domain/bundle"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/store"
	"github.com/GriffinCanCode/gadgeto/internal/providers/live"
	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
	"go.uber.org/zap"
)

// restore offers the saved session back to the user. A declined bundle is
// left in the store untouched.
func (e *Engine) restore(ctx context.Context) {
	raw, err := e.store.Get(ctx, SessionKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.log.Warn("Failed to read saved session", zap.Error(err))
		}
		return
	}

	b, err := bundle.Decode(raw)
	if err != nil {
		e.log.Warn("Discarding corrupt saved session", zap.Error(err))
		if err := e.store.Remove(ctx, SessionKey); err != nil {
			e.log.Warn("Failed to remove corrupt session", zap.Error(err))
		}
		_ = e.do(ctx, func() {
			e.emit(EventCorruptBundle, map[string]any{"error": err.Error()})
		})
		return
	}
	if b.IsTrivial() {
		return
	}

	info := bundle.Info{
		Timestamp:      b.Timestamp,
		MessageCount:   len(b.Data.Messages),
		ResponseCount:  len(b.Data.Responses),
		TableDataCount: len(b.Data.TableData),
		Size:           len(raw),
	}
	if !e.confirm.Confirm(ctx, info.RestorePrompt()) {
		_ = e.do(ctx, func() { e.st.keepStored = true })
		e.log.Info("Saved session not restored")
		return
	}

	_ = e.do(ctx, func() {
		e.st.load(b.Data)
		e.st.dirty = false
		e.metrics.SetConversationSize(len(e.st.entries))
		e.emit(EventRestored, map[string]any{"messages": info.MessageCount, "findings": info.TableDataCount})
	})
	e.log.Info("Session restored", zap.Int("messages", info.MessageCount))
}

// selectTransport adopts the cached backend session or creates one, falling
// back to the live channel when creation fails
func (e *Engine) selectTransport(ctx context.Context) {
	raw, err := e.store.Get(ctx, BackendSessionKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		e.log.Warn("Failed to read cached backend session", zap.Error(err))
	}

	if cached := string(raw); err == nil && cached != "" {
		_ = e.do(ctx, func() {
			e.setMode(types.ModeBackend)
			e.st.adopt(cached)
			e.st.note("Using existing backend session: " + cached)
		})
		e.log.Info("Using cached backend session", logging.SessionID(cached))
		return
	}

	e.createOrFallback(ctx)
}

// createOrFallback creates a backend session; on failure the engine moves to
// the live channel for the rest of its lifetime
func (e *Engine) createOrFallback(ctx context.Context) {
	err := ErrTransportUnavailable
	if e.backend != nil {
		var session types.SessionInfo
		session, err = e.backend.Create(ctx)
		if err == nil {
			_ = e.do(ctx, func() {
				e.setMode(types.ModeBackend)
				e.adoptHandle(session.SessionID)
				e.st.note("Created new backend session: " + session.SessionID)
			})
			e.log.Info("Created backend session", logging.SessionID(session.SessionID))
			return
		}
	}

	e.log.Warn("Backend session unavailable, falling back to live channel", zap.Error(err))
	_ = e.do(ctx, func() {
		e.setMode(types.ModeLive)
		e.st.note(fmt.Sprintf("Failed to create backend session, falling back to live channel: %v", err))
		e.emit(EventFallback, map[string]any{"error": err.Error()})
	})
	e.openLive(ctx)
}

// openLive dials the live channel outside the loop and hands it over
func (e *Engine) openLive(ctx context.Context) {
	if e.newLive == nil {
		_ = e.do(ctx, func() {
			e.st.note("Live channel unavailable: no endpoint configured")
		})
		return
	}

	ch := e.newLive(func(ev live.Event) {
		e.post(func() { e.onLiveEvent(ev) })
	})
	err := ch.Dial(ctx)

	_ = e.do(ctx, func() {
		if old := e.live; old != nil && old != ch {
			go old.Close()
		}
		e.live = ch
		if err != nil {
			e.st.note(fmt.Sprintf("Live channel unavailable: %v", err))
		}
	})
	if err != nil {
		e.log.Warn("Live channel unavailable", zap.Error(err))
	}
}

// adoptHandle makes id the active backend session and caches it. Runs on
// the loop.
func (e *Engine) adoptHandle(id string) {
	if !e.st.adopt(id) {
		return
	}
	if err := e.store.Set(e.runCtx, BackendSessionKey, []byte(id)); err != nil {
		e.log.Warn("Failed to cache backend session", zap.Error(err))
	}
}
