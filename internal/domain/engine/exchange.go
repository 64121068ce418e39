package engine

import (
	"fmt"
	"sync"

	"github.com/GriffinCanCode/gadgeto/internal/domain/redact"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/providers/backend"
	"github.com/GriffinCanCode/gadgeto/internal/providers/live"
	"github.com/GriffinCanCode/gadgeto/internal/shared/id"
	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
	"go.uber.org/zap"
)

// sendJob is one backend exchange, tagged with the epoch it was issued in
type sendJob struct {
	id     id.ExchangeID
	text   string
	handle string
	epoch  uint64
	done   chan struct{}
}

// worker is an unbounded FIFO of backend sends. One call is in flight at a
// time, so replies are applied in send order.
type worker struct {
	mu    sync.Mutex
	queue []sendJob
	wake  chan struct{}

	// session id returned by the last reply of the current epoch
	epoch    uint64
	override string
}

func newWorker() *worker {
	return &worker{wake: make(chan struct{}, 1)}
}

func (w *worker) push(job sendJob) {
	w.mu.Lock()
	w.queue = append(w.queue, job)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *worker) pop() (sendJob, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		return sendJob{}, false
	}
	job := w.queue[0]
	w.queue[0] = sendJob{}
	w.queue = w.queue[1:]
	return job, true
}

func (e *Engine) runWorker() {
	defer e.loopWG.Done()

	for {
		job, ok := e.worker.pop()
		if !ok {
			select {
			case <-e.worker.wake:
				continue
			case <-e.quit:
				return
			}
		}
		e.exchange(job)
	}
}

// exchange performs one backend call outside the loop
func (e *Engine) exchange(job sendJob) {
	if job.epoch != e.epoch.Load() {
		e.post(func() { e.discard(job) })
		return
	}

	// a reply earlier in this epoch may have moved the session
	handle := job.handle
	if e.worker.epoch == job.epoch && e.worker.override != "" {
		handle = e.worker.override
	}

	var (
		reply backend.Reply
		err   = ErrTransportUnavailable
	)
	if e.backend != nil {
		reply, err = e.backend.Send(e.runCtx, handle, job.text)
	}
	if err == nil && reply.SessionID != "" {
		e.worker.epoch = job.epoch
		e.worker.override = reply.SessionID
	}

	e.post(func() { e.applyReply(job, reply, err) })
}

// applyReply runs on the loop
func (e *Engine) applyReply(job sendJob, reply backend.Reply, err error) {
	if job.epoch != e.epoch.Load() {
		e.discard(job)
		return
	}
	defer close(job.done)

	if e.st.inflight > 0 {
		e.st.inflight--
	}

	if err != nil {
		e.log.Warn("Backend send failed", logging.Exchange(job.id), zap.Error(err))
		e.st.note(fmt.Sprintf("Backend session error: %v", err))
		return
	}

	e.appendAgentReply(reply.Envelope)

	if reply.SessionID != "" {
		if e.st.handle == nil || *e.st.handle != reply.SessionID {
			e.log.Info("Backend session changed", zap.String("from", job.handle), zap.String("to", reply.SessionID))
		}
		e.adoptHandle(reply.SessionID)
	}
	e.log.Debug("Applied reply", logging.Exchange(job.id))
}

// discard drops a result issued before the last clear or import
func (e *Engine) discard(job sendJob) {
	e.log.Debug("Discarding stale reply", logging.Exchange(job.id))
	e.emit(EventStaleDiscarded, map[string]any{"exchange": job.id.String()})
	close(job.done)
}

// appendAgentReply records an agent envelope: the entry, its raw reasoning
// and the redacted history
func (e *Engine) appendAgentReply(env types.Envelope) {
	reasoning := env.Reasoning
	e.st.entries = append(e.st.entries, types.AgentEntry(env.Response, &reasoning))
	e.st.reasoning = append(e.st.reasoning,
		types.Structural("Reasoning", env.Reasoning),
		types.Structural("History", redact.History(env.History)),
	)
	e.st.dirty = true

	index := len(e.st.entries) - 1
	e.metrics.SetConversationSize(len(e.st.entries))
	e.emit(EventEntryAdded, map[string]any{"index": index, "text": env.Response})
}

// onLiveEvent runs on the loop
func (e *Engine) onLiveEvent(ev live.Event) {
	if e.st.mode != types.ModeLive {
		e.log.Error("Live event outside live mode", zap.String("kind", ev.Kind.String()), zap.String("mode", string(e.st.mode)))
		e.emit(EventFrameDropped, map[string]any{"kind": ev.Kind.String()})
		return
	}

	switch ev.Kind {
	case live.EventFrame:
		if e.st.staleFrames > 0 {
			e.st.staleFrames--
			e.log.Debug("Discarding stale live reply", zap.Int("remaining", e.st.staleFrames))
			e.emit(EventStaleDiscarded, map[string]any{"kind": ev.Kind.String()})
			return
		}
		e.appendAgentReply(ev.Envelope)
		if e.st.inflight > 0 {
			e.st.inflight--
		}

	case live.EventMalformed:
		e.st.note(fmt.Sprintf("Malformed frame dropped: %v", ev.Err))

	case live.EventClosed:
		if ev.Err != nil {
			e.st.note(fmt.Sprintf("Live channel error: %v", ev.Err))
		}
		e.st.note("Live channel disconnected")
		e.st.inflight = 0
		e.st.staleFrames = 0
	}
}
