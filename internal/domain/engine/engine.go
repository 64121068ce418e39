package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/store"
	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
	"go.uber.org/zap"
)

// Store slots
const (
	SessionKey        = "gogogadgeto_session"
	BackendSessionKey = "gogogadgeto_backend_session"
)

// DefaultAutosaveInterval is the autosave period when none is configured
const DefaultAutosaveInterval = 30 * time.Second

const taskQueueSize = 256

// Engine owns one chat session. Every state mutation runs on a single loop
// goroutine fed by a FIFO task queue; network calls run elsewhere and post
// their results back as tasks.
type Engine struct {
	store    store.Store
	backend  Backend
	newLive  LiveFactory
	confirm  Confirmer
	observer Observer
	log      *logging.Logger
	metrics  *monitoring.Metrics
	autosave time.Duration
	now      func() time.Time

	tasks  chan func()
	quit   chan struct{}
	loopWG sync.WaitGroup
	runCtx context.Context
	cancel context.CancelFunc

	// epoch advances on clear and import; results tagged with an older
	// epoch are discarded
	epoch  atomic.Uint64
	worker *worker

	started   atomic.Bool
	closeOnce sync.Once
	loopDone  chan struct{}

	// owned by the loop
	st   state
	live LiveChannel
}

// New creates an engine persisting to st. Start must be called before any
// command.
func New(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		autosave: DefaultAutosaveInterval,
		now:      time.Now,
		tasks:    make(chan func(), taskQueueSize),
		quit:     make(chan struct{}),
		loopDone: make(chan struct{}),
		worker:   newWorker(),
		st:       newState(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.log = logging.OrNop(e.log).Component("engine")
	if e.confirm == nil {
		e.confirm = Always(false)
	}
	if e.observer == nil {
		e.observer = noopObserver{}
	}
	return e
}

// Start launches the loop, the backend worker and the autosave ticker, then
// restores the saved session and selects the transport
func (e *Engine) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return errors.New("engine already started")
	}

	e.runCtx, e.cancel = context.WithCancel(context.WithoutCancel(ctx))

	e.loopWG.Add(2)
	go e.run()
	go e.runWorker()
	if e.autosave > 0 {
		e.loopWG.Add(1)
		go e.runAutosave()
	}

	e.restore(ctx)
	e.selectTransport(ctx)
	return nil
}

// Close saves one last time, stops every goroutine and closes the live
// channel
func (e *Engine) Close(ctx context.Context) error {
	if !e.started.Load() {
		return nil
	}

	var saveErr error
	e.closeOnce.Do(func() {
		_ = e.do(ctx, func() {
			saveErr = e.save(ctx, false)
		})

		close(e.quit)
		e.cancel()
		e.loopWG.Wait()

		if e.live != nil {
			if err := e.live.Close(); err != nil {
				e.log.Debug("Live channel close", zap.Error(err))
			}
		}
		e.log.Info("Engine stopped")
	})
	return saveErr
}

// View returns a copy of the current state
func (e *Engine) View(ctx context.Context) (View, error) {
	var v View
	err := e.do(ctx, func() {
		v = e.st.view()
		if e.live != nil {
			v.LiveState = e.live.State()
		}
	})
	return v, err
}

func (e *Engine) run() {
	defer e.loopWG.Done()
	defer close(e.loopDone)

	for {
		select {
		case task := <-e.tasks:
			task()
		case <-e.quit:
			return
		}
	}
}

func (e *Engine) runAutosave() {
	defer e.loopWG.Done()

	ticker := time.NewTicker(e.autosave)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.post(func() { _ = e.save(e.runCtx, false) })
		case <-e.quit:
			return
		}
	}
}

// do runs fn on the loop and waits for it
func (e *Engine) do(ctx context.Context, fn func()) error {
	if !e.started.Load() {
		return ErrNotStarted
	}

	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}

	select {
	case e.tasks <- task:
	case <-e.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-e.loopDone:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues fn without waiting. It gives up once the engine is closing.
func (e *Engine) post(fn func()) {
	select {
	case e.tasks <- fn:
	case <-e.quit:
	}
}

func (e *Engine) emit(t EventType, data map[string]any) {
	e.observer.OnEvent(e.runCtx, Event{Type: t, Timestamp: e.now(), Data: data})
}

// setMode switches the transport. Only the loop calls it.
func (e *Engine) setMode(mode types.Mode) {
	e.st.mode = mode
	e.metrics.SetMode(string(mode), string(types.ModeBackend), string(types.ModeLive))
}
