package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gadgeto"

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing, so components can take it as an optional dependency.
type Metrics struct {
	// Client metrics
	MessagesSent    *prometheus.CounterVec
	BackendCalls    *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	LiveFrames      *prometheus.CounterVec
	Autosaves       *prometheus.CounterVec
	TransportMode   *prometheus.GaugeVec
	Conversation    prometheus.Gauge

	// Agent server metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SessionsActive  prometheus.Gauge
	WSConnections   prometheus.Gauge
	WSMessages      *prometheus.CounterVec
}

// NewMetrics registers every collector on reg. Use a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MessagesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_sent_total",
				Help:      "Messages sent by the user, per transport mode",
			},
			[]string{"mode"},
		),
		BackendCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_calls_total",
				Help:      "Backend session API calls",
			},
			[]string{"op", "status"},
		),
		BackendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_call_duration_seconds",
				Help:      "Backend session API call duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"op"},
		),
		LiveFrames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "live_frames_total",
				Help:      "Live channel events by kind",
			},
			[]string{"kind"},
		),
		Autosaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_saves_total",
				Help:      "Session bundle writes by result",
			},
			[]string{"result"},
		),
		TransportMode: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "transport_mode",
				Help:      "1 for the active transport mode",
			},
			[]string{"mode"},
		),
		Conversation: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "conversation_entries",
				Help:      "Entries in the current conversation",
			},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "agent",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "agent",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "agent",
				Name:      "sessions_active",
				Help:      "Number of live agent sessions",
			},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "agent",
				Name:      "ws_connections",
				Help:      "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "agent",
				Name:      "ws_messages_total",
				Help:      "Total number of WebSocket messages",
			},
			[]string{"direction"},
		),
	}
}

// RecordMessage counts a user message sent through mode
func (m *Metrics) RecordMessage(mode string) {
	if m == nil {
		return
	}
	m.MessagesSent.WithLabelValues(mode).Inc()
}

// RecordBackendCall records one backend API call
func (m *Metrics) RecordBackendCall(op, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.BackendCalls.WithLabelValues(op, status).Inc()
	m.BackendDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordLiveFrame counts a live channel event
func (m *Metrics) RecordLiveFrame(kind string) {
	if m == nil {
		return
	}
	m.LiveFrames.WithLabelValues(kind).Inc()
}

// RecordSave counts a bundle write
func (m *Metrics) RecordSave(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.Autosaves.WithLabelValues(result).Inc()
}

// SetMode marks mode as the active transport
func (m *Metrics) SetMode(active string, modes ...string) {
	if m == nil {
		return
	}
	for _, mode := range modes {
		m.TransportMode.WithLabelValues(mode).Set(0)
	}
	m.TransportMode.WithLabelValues(active).Set(1)
}

// SetConversationSize records the number of conversation entries
func (m *Metrics) SetConversationSize(n int) {
	if m == nil {
		return
	}
	m.Conversation.Set(float64(n))
}

// RecordHTTPRequest records an agent server request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetSessionsActive sets the number of live agent sessions
func (m *Metrics) SetSessionsActive(count int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(count))
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// RecordWSMessage records a WebSocket message ("in" or "out")
func (m *Metrics) RecordWSMessage(direction string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction).Inc()
}
