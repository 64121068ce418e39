package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordMessage("backend")
		m.RecordBackendCall("send", "ok", time.Millisecond)
		m.RecordLiveFrame("frame")
		m.RecordSave(nil)
		m.SetMode("live", "backend", "live")
		m.SetConversationSize(3)
		NewTimer(m, "create").Stop("ok")
	})
}

func TestClientMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordMessage("backend")
	m.RecordMessage("backend")
	m.RecordMessage("live")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesSent.WithLabelValues("backend")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesSent.WithLabelValues("live")))

	m.RecordSave(nil)
	m.RecordSave(errors.New("disk full"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Autosaves.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Autosaves.WithLabelValues("error")))

	m.SetMode("backend", "backend", "live")
	m.SetMode("live", "backend", "live")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TransportMode.WithLabelValues("backend")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransportMode.WithLabelValues("live")))

	NewTimer(m, "send").Stop("server_error")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls.WithLabelValues("send", "server_error")))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/api/session/:id/history", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/session/abc/history", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.RequestsTotal.WithLabelValues("GET", "/api/session/:id/history", "404")))
}
