package engine

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/gadgeto/internal/domain/redact"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/providers/live"
	"github.com/GriffinCanCode/gadgeto/internal/shared/id"
	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
	"github.com/GriffinCanCode/gadgeto/internal/shared/value"
	"go.uber.org/zap"
)

// ClearPrompt is asked before a session is wiped
const ClearPrompt = "Are you sure you want to clear the current session? This will remove all conversation history."

const noConnection = "No connection available (neither backend session nor live channel)"

// SendMessage records text as a user entry and sends it over the active
// transport. In backend mode it returns once the reply (or its failure) has
// been applied; in live mode the reply arrives later through the channel.
// Transport problems end up as reasoning entries, not errors.
func (e *Engine) SendMessage(ctx context.Context, text string) error {
	var wait <-chan struct{}
	if err := e.do(ctx, func() { wait = e.send(text) }); err != nil {
		return err
	}
	if wait == nil {
		return nil
	}

	select {
	case <-wait:
		return nil
	case <-e.loopDone:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// send runs on the loop. It returns a channel closed when a backend reply
// has been applied, or nil when nothing is outstanding.
func (e *Engine) send(text string) <-chan struct{} {
	e.st.entries = append(e.st.entries, types.UserEntry(text))
	e.st.note("Sent: " + text)
	e.metrics.SetConversationSize(len(e.st.entries))

	switch e.st.mode {
	case types.ModeBackend:
		if e.st.handle == nil {
			e.st.note(noConnection)
			return nil
		}

		job := sendJob{
			id:     id.NewExchangeID(),
			text:   text,
			handle: *e.st.handle,
			epoch:  e.epoch.Load(),
			done:   make(chan struct{}),
		}
		e.st.inflight++
		e.metrics.RecordMessage(string(types.ModeBackend))
		e.log.Debug("Queued message", logging.Exchange(job.id), logging.SessionID(job.handle))
		e.worker.push(job)
		return job.done

	case types.ModeLive:
		if e.live == nil || e.live.State() != live.StateOpen {
			e.st.note(noConnection)
			return nil
		}
		if err := e.live.Send(text); err != nil {
			e.st.note(fmt.Sprintf("Live channel send failed: %v", err))
			return nil
		}
		e.st.inflight++
		e.metrics.RecordMessage(string(types.ModeLive))
	}
	return nil
}

// SelectEntry toggles index in the selection. Indices past the end are
// accepted and simply never promote.
func (e *Engine) SelectEntry(ctx context.Context, index int) error {
	return e.do(ctx, func() { e.st.toggle(index) })
}

// PromoteSelection turns every selected agent entry into a finding and
// clears the selection
func (e *Engine) PromoteSelection(ctx context.Context) ([]types.Finding, error) {
	var created []types.Finding
	err := e.do(ctx, func() {
		for _, idx := range e.st.selection {
			if idx < 0 || idx >= len(e.st.entries) {
				continue
			}
			entry := e.st.entries[idx]
			if !entry.IsAgent() {
				continue
			}
			content := cleanContent(entry.Text)
			if content == "" {
				continue
			}
			f := types.Finding{
				ID:      e.st.nextFindingID(),
				Name:    types.FindingName,
				Status:  types.FindingStatusActive,
				Content: content,
			}
			e.st.findings = append(e.st.findings, f)
			created = append(created, f)
		}
		e.st.selection = []int{}
		e.st.dirty = true
	})
	return created, err
}

// ClearReasoning empties the reasoning pane only
func (e *Engine) ClearReasoning(ctx context.Context) error {
	return e.do(ctx, func() {
		if len(e.st.reasoning) == 0 {
			return
		}
		e.st.reasoning = []types.ReasoningEntry{}
		e.st.dirty = true
	})
}

// SetPanelSplit records the chat pane width in percent, clamped to 10..90
func (e *Engine) SetPanelSplit(ctx context.Context, percent float64) error {
	return e.do(ctx, func() {
		e.st.panelSplit = clampSplit(percent)
		e.st.dirty = true
	})
}

// ClearSession wipes the conversation after confirmation. It reports
// whether the session was cleared.
func (e *Engine) ClearSession(ctx context.Context) (bool, error) {
	if !e.confirm.Confirm(ctx, ClearPrompt) {
		return false, nil
	}

	var (
		handle *string
		mode   types.Mode
	)
	if err := e.do(ctx, func() {
		handle = e.st.handle
		mode = e.st.mode
	}); err != nil {
		return false, err
	}

	if handle != nil && e.backend != nil {
		if err := e.backend.Delete(ctx, *handle); err != nil {
			e.log.Warn("Failed to delete backend session", logging.SessionID(*handle), zap.Error(err))
		}
	}

	if err := e.do(ctx, func() {
		e.epoch.Add(1)
		e.st.reset()
		for _, key := range []string{SessionKey, BackendSessionKey} {
			if err := e.store.Remove(e.runCtx, key); err != nil {
				e.log.Warn("Failed to remove stored slot", zap.String("key", key), zap.Error(err))
			}
		}
		e.st.note("Session cleared")
		e.metrics.SetConversationSize(0)
		e.emit(EventCleared, nil)
	}); err != nil {
		return false, err
	}
	e.log.Info("Session cleared")

	if mode == types.ModeBackend {
		e.createOrFallback(ctx)
	}
	return true, nil
}

// FetchHistory asks the backend for its view of the current session and
// records it as a redacted reasoning entry
func (e *Engine) FetchHistory(ctx context.Context) (types.SessionInfo, error) {
	var handle *string
	if err := e.do(ctx, func() { handle = e.st.handle }); err != nil {
		return types.SessionInfo{}, err
	}
	if handle == nil || e.backend == nil {
		return types.SessionInfo{}, ErrTransportUnavailable
	}

	info, err := e.backend.History(ctx, *handle)
	if err != nil {
		_ = e.do(ctx, func() {
			e.st.note(fmt.Sprintf("Backend session error: %v", err))
		})
		return types.SessionInfo{}, fmt.Errorf("%w: %w", ErrRemoteCallFailed, err)
	}

	v := redact.History(value.FromAny(info))
	err = e.do(ctx, func() {
		e.st.reasoning = append(e.st.reasoning, types.Structural("Backend session", v))
		e.st.dirty = true
	})
	return info, err
}
