package live

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// ErrNotOpen is returned by Send unless the channel is Open
	ErrNotOpen = errors.New("live channel not open")
	// ErrMalformedFrame marks an inbound frame that is not an agent envelope
	ErrMalformedFrame = errors.New("malformed frame")
)

const writeWait = 10 * time.Second

// State is the connection state
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventKind identifies an Event
type EventKind int

const (
	// EventFrame carries a decoded envelope
	EventFrame EventKind = iota
	// EventMalformed reports a frame that failed to decode; the connection stays open
	EventMalformed
	// EventClosed reports the end of the connection
	EventClosed
)

// String returns the kind name
func (k EventKind) String() string {
	switch k {
	case EventFrame:
		return "frame"
	case EventMalformed:
		return "malformed"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is emitted by the read loop
type Event struct {
	Kind     EventKind
	Envelope types.Envelope
	Raw      []byte
	Err      error
}

// Sink receives events. It is called from the read goroutine and must not block
// for long.
type Sink func(Event)

// Client is a single WebSocket connection to the agent
type Client struct {
	endpoint string
	dialer   *websocket.Dialer
	header   http.Header
	sink     Sink
	log      *logging.Logger
	metrics  *monitoring.Metrics

	state   atomic.Int32
	mu      sync.Mutex // guards conn and serializes writes
	conn    *websocket.Conn
	closing atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHandshakeTimeout bounds the opening handshake
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialer.HandshakeTimeout = d }
}

// WithHeader adds headers to the handshake request
func WithHeader(h http.Header) Option {
	return func(c *Client) { c.header = h }
}

// New creates a client for endpoint. Events go to sink.
func New(endpoint string, sink Sink, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		sink: sink,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrNop(c.log).Component("live")
	if c.sink == nil {
		c.sink = func(Event) {}
	}
	return c
}

// State returns the current connection state
func (c *Client) State() State {
	return State(c.state.Load())
}

// Dial opens the connection and starts the read loop. A client dials once;
// a closed client stays closed.
func (c *Client) Dial(ctx context.Context) error {
	if c.State() == StateClosed {
		return ErrNotOpen
	}

	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, c.header)
	if err != nil {
		c.state.Store(int32(StateClosed))
		c.markDone()
		return fmt.Errorf("dial %s: %w", c.endpoint, err)
	}

	c.mu.Lock()
	if c.closing.Load() {
		c.mu.Unlock()
		conn.Close()
		return ErrNotOpen
	}
	c.conn = conn
	c.state.Store(int32(StateOpen))
	c.mu.Unlock()

	c.log.Info("Live channel open", zap.String("endpoint", c.endpoint))
	go c.readLoop(conn)
	return nil
}

// Send writes text as a single text frame
func (c *Client) Send(text string) error {
	if c.State() != StateOpen {
		return ErrNotOpen
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotOpen
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close sends a close frame and waits for the read loop to finish
func (c *Client) Close() error {
	if !c.closing.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		c.state.Store(int32(StateClosed))
		c.markDone()
		return nil
	}

	c.mu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.mu.Unlock()

	err := conn.Close()
	<-c.done
	return err
}

// Done is closed once the connection has ended
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) markDone() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.markDone()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			c.state.Store(int32(StateClosed))
			if c.closing.Load() {
				err = nil
			} else {
				c.log.Warn("Live channel closed", zap.Error(err))
			}
			c.emit(Event{Kind: EventClosed, Err: err})
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		env, err := types.ParseEnvelope(data)
		if err != nil {
			c.log.Debug("Dropping malformed frame", zap.Error(err))
			c.emit(Event{Kind: EventMalformed, Raw: data, Err: fmt.Errorf("%w: %v", ErrMalformedFrame, err)})
			continue
		}
		c.emit(Event{Kind: EventFrame, Envelope: env, Raw: data})
	}
}

func (c *Client) emit(ev Event) {
	c.metrics.RecordLiveFrame(ev.Kind.String())
	c.sink(ev)
}
