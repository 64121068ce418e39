package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/gadgeto/internal/shared/id"
	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
)

const wsWriteWait = 10 * time.Second

type wsClient struct {
	id   id.ConnID
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub serves the live channel. Every reply is a bare envelope. A frame
// holding a SessionRequest is answered on its session, to the sender only;
// any other text is answered on a shared default session and broadcast to
// every connected client.
type Hub struct {
	sessions *Sessions
	agent    Responder
	log      *logging.Logger
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader

	mu        sync.Mutex
	clients   map[*wsClient]struct{}
	defaultID string
}

// NewHub creates the live channel endpoint
func NewHub(sessions *Sessions, agent Responder, log *logging.Logger, metrics *monitoring.Metrics) *Hub {
	return &Hub{
		sessions: sessions,
		agent:    agent,
		log:      logging.OrNop(log),
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// Handle upgrades the request and serves the connection until it closes
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{id: id.NewConnID(), conn: conn}
	h.add(client)
	defer h.remove(client)

	ctx := c.Request.Context()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("WebSocket read error", zap.String("conn", client.id.String()), zap.Error(err))
			}
			return
		}
		h.metrics.RecordWSMessage("in")
		h.dispatch(ctx, client, msg)
	}
}

// Clients returns the number of open connections
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close drops every connection
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.mu.Unlock()
		_ = c.conn.Close()
	}
}

func (h *Hub) dispatch(ctx context.Context, client *wsClient, msg []byte) {
	var req types.SessionRequest
	if err := json.Unmarshal(msg, &req); err == nil && req.Message != "" {
		resp := h.sessions.Exchange(ctx, req.SessionID, req.Message, h.agent)
		h.send(client, []byte(resp.Response))
		return
	}

	resp := h.sessions.Exchange(ctx, h.defaultSession(), string(msg), h.agent)
	h.setDefaultSession(resp.SessionID)
	h.broadcast([]byte(resp.Response))
}

func (h *Hub) defaultSession() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.defaultID
}

func (h *Hub) setDefaultSession(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.defaultID = id
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.send(c, data)
	}
}

func (h *Hub) send(c *wsClient, data []byte) {
	if err := c.write(data); err != nil {
		h.log.Warn("WebSocket write failed", zap.String("conn", c.id.String()), zap.Error(err))
		_ = c.conn.Close()
		return
	}
	h.metrics.RecordWSMessage("out")
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.IncWSConnections()
	h.log.Info("WebSocket connected", zap.String("conn", c.id.String()))
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !ok {
		return
	}
	_ = c.conn.Close()
	h.metrics.DecWSConnections()
	h.log.Info("WebSocket disconnected", zap.String("conn", c.id.String()))
}
