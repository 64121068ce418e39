package engine

import (
	"time"

	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/monitoring"
)

// Option configures an Engine
type Option func(*Engine)

// WithBackend sets the remote session API client
func WithBackend(b Backend) Option {
	return func(e *Engine) { e.backend = b }
}

// WithLive sets the live channel factory
func WithLive(f LiveFactory) Option {
	return func(e *Engine) { e.newLive = f }
}

// WithConfirmer sets who answers restore and clear prompts. Without one,
// every prompt is declined.
func WithConfirmer(c Confirmer) Option {
	return func(e *Engine) { e.confirm = c }
}

// WithObserver sets the event observer
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithAutosaveInterval sets the autosave period. Zero or negative disables
// the ticker; the final save on Close still runs.
func WithAutosaveInterval(d time.Duration) Option {
	return func(e *Engine) { e.autosave = d }
}

// WithClock overrides the clock used for bundle timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}
