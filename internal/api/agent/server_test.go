package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
	"github.com/GriffinCanCode/gadgeto/internal/shared/value"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := New(Config{Development: true}, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSessionLifecycle(t *testing.T) {
	srv, ts := newTestServer(t)
	base := ts.URL + "/api/session"

	resp := postJSON(t, base+"/new", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[types.SessionInfo](t, resp)
	_, err := uuid.Parse(info.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, info.MessageCount)

	resp = postJSON(t, base+"/message", types.SessionRequest{SessionID: info.SessionID, Message: "ping"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reply := decode[types.SessionResponse](t, resp)
	assert.Equal(t, info.SessionID, reply.SessionID)

	env, err := types.ParseEnvelope([]byte(reply.Response))
	require.NoError(t, err)
	assert.Equal(t, "<pre>ping</pre>", env.Response)
	turn, ok := env.Reasoning.Get("turn")
	require.True(t, ok)
	assert.Equal(t, `1`, turn.String())
	assert.Equal(t, 2, env.History.Len())

	require.Len(t, reply.History, 2)
	assert.Equal(t, RoleUser, reply.History[0].Role)
	assert.Equal(t, RoleAssistant, reply.History[1].Role)
	assert.Equal(t, 1, reply.History[1].OrderID)

	resp, err = http.Get(base + "/" + info.SessionID + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[types.SessionInfo](t, resp).MessageCount)

	req, err := http.NewRequest(http.MethodDelete, base+"/"+info.SessionID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "deleted", decode[types.DeleteResponse](t, resp).Status)
	assert.Equal(t, 0, srv.Sessions().Len())

	resp, err = http.Get(base + "/" + info.SessionID + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMessageValidation(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty message", `{"sessionId":"x","message":""}`},
		{"invalid json", `{"message":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/session/message", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestMessageForUnknownSessionCreatesOne(t *testing.T) {
	srv, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/session/message", types.SessionRequest{SessionID: "gone", Message: "hello"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reply := decode[types.SessionResponse](t, resp)

	assert.NotEqual(t, "gone", reply.SessionID)
	_, ok := srv.Sessions().Get(reply.SessionID)
	assert.True(t, ok)
}

func TestDeleteUnknownSession(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/session/nope", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "deleted", decode[types.DeleteResponse](t, resp).Status)
}

func TestResponderErrorBecomesReply(t *testing.T) {
	failing := ResponderFunc(func(context.Context, string, []types.HistoryItem) (string, value.Value, error) {
		return "", value.Null(), errors.New("model offline")
	})
	_, ts := newTestServer(t, WithResponder(failing))

	resp := postJSON(t, ts.URL+"/api/session/message", types.SessionRequest{Message: "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env, err := types.ParseEnvelope([]byte(decode[types.SessionResponse](t, resp).Response))
	require.NoError(t, err)
	assert.Equal(t, "[Agent error]: model offline", env.Response)
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return data
}

func TestWebSocketSessionRequest(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(types.SessionRequest{Message: "over ws"}))

	frame := readFrame(t, conn)
	assert.NotContains(t, string(frame), `"sessionId"`)

	env, err := types.ParseEnvelope(frame)
	require.NoError(t, err)
	assert.Equal(t, "<pre>over ws</pre>", env.Response)
	assert.Equal(t, 2, env.History.Len())
	assert.Equal(t, 1, srv.Sessions().Len())
}

func TestWebSocketRawTextBroadcasts(t *testing.T) {
	srv, ts := newTestServer(t)
	a := dialWS(t, ts)
	b := dialWS(t, ts)

	require.Eventually(t, func() bool { return srv.hub.Clients() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("plain text")))

	for _, conn := range []*websocket.Conn{a, b} {
		env, err := types.ParseEnvelope(readFrame(t, conn))
		require.NoError(t, err)
		assert.Equal(t, "<pre>plain text</pre>", env.Response)
	}

	// raw messages share one session
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("again")))
	env, err := types.ParseEnvelope(readFrame(t, a))
	require.NoError(t, err)
	assert.Equal(t, 4, env.History.Len())
	assert.Equal(t, 1, srv.Sessions().Len())
}

func TestServerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	_, ts := newTestServer(t, WithMetrics(metrics))

	postJSON(t, ts.URL+"/api/session/new", nil)
	postJSON(t, ts.URL+"/api/session/new", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SessionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("POST", "/api/session/new", "200")))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv := New(Config{Host: "127.0.0.1", Port: "0"})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
