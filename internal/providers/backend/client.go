package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Operation names used in errors, logs and metrics
const (
	OpCreate  = "create"
	OpSend    = "send"
	OpHistory = "history"
	OpDelete  = "delete"
)

// Session describes a backend session
type Session = types.SessionInfo

// Reply is the decoded answer to a message
type Reply struct {
	SessionID string
	Envelope  types.Envelope
	// Raw is the JSON-encoded envelope exactly as the server sent it
	Raw string
}

// Config configures the client
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, <= 0 means unlimited
}

// Client talks to the remote session API. Each method issues exactly one
// HTTP request; retrying is left to the caller.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	log     *logging.Logger
	metrics *monitoring.Metrics
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

// WithBreaker replaces the default circuit breaker
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// New creates a client for the session API rooted at cfg.BaseURL
func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// pooled transport only; retries stay disabled
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil

	restyClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "gadgeto/1.0").
		SetTransport(retryClient.HTTPClient.Transport)

	c := &Client{
		resty:   restyClient,
		limiter: newLimiter(cfg.RateLimit),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.log = logging.OrNop(c.log).Component("backend")
	if c.breaker == nil {
		c.breaker = resilience.New("backend", resilience.Settings{
			MaxRequests:  1,
			Interval:     60 * time.Second,
			Timeout:      30 * time.Second,
			IsSuccessful: healthy,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to resilience.State) {
				c.log.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}
	return c
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// healthy reports whether err leaves the server's health unquestioned:
// client errors and caller cancellation do not trip the breaker
func healthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Status >= 400 && callErr.Status < 500
	}
	return false
}

// Create opens a new backend session
func (c *Client) Create(ctx context.Context) (Session, error) {
	var session Session
	err := c.call(ctx, OpCreate, func(r *resty.Request) (*resty.Response, error) {
		return r.Post("/new")
	}, &session)
	if err != nil {
		return Session{}, err
	}
	if session.SessionID == "" {
		return Session{}, &CallError{Op: OpCreate, Status: http.StatusOK, Err: errors.New("reply without sessionId")}
	}

	c.log.Debug("Backend session created", logging.SessionID(session.SessionID))
	return session, nil
}

// Send posts text to sessionID. The server may answer under a different
// session id; Reply.SessionID carries whatever it returned.
func (c *Client) Send(ctx context.Context, sessionID, text string) (Reply, error) {
	var out types.SessionResponse
	body := types.SessionRequest{SessionID: sessionID, Message: text}

	status := 0
	err := c.call(ctx, OpSend, func(r *resty.Request) (*resty.Response, error) {
		resp, err := r.SetBody(body).Post("/message")
		if resp != nil {
			status = resp.StatusCode()
		}
		return resp, err
	}, &out)
	if err != nil {
		return Reply{}, err
	}

	env, err := types.ParseEnvelope([]byte(out.Response))
	if err != nil {
		return Reply{}, &CallError{Op: OpSend, Status: status, Err: err}
	}

	return Reply{SessionID: out.SessionID, Envelope: env, Raw: out.Response}, nil
}

// History fetches the server's view of sessionID
func (c *Client) History(ctx context.Context, sessionID string) (Session, error) {
	var session Session
	err := c.call(ctx, OpHistory, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("id", sessionID).Get("/{id}/history")
	}, &session)
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

// Delete removes sessionID on the server
func (c *Client) Delete(ctx context.Context, sessionID string) error {
	var out types.DeleteResponse
	return c.call(ctx, OpDelete, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("id", sessionID).Delete("/{id}")
	}, &out)
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// call runs one request through the limiter and breaker and decodes a 2xx
// JSON body into out
func (c *Client) call(ctx context.Context, op string, do func(*resty.Request) (*resty.Response, error), out any) error {
	timer := monitoring.NewTimer(c.metrics, op)

	err := c.breaker.Execute(func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return &CallError{Op: op, Err: fmt.Errorf("rate limit: %w", err)}
		}

		resp, err := do(c.resty.R().SetContext(ctx))
		if err != nil {
			return &CallError{Op: op, Err: err}
		}
		if resp.IsError() {
			return &CallError{Op: op, Status: resp.StatusCode(), Err: errors.New(errorText(resp))}
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return &CallError{Op: op, Status: resp.StatusCode(), Err: fmt.Errorf("decode reply: %w", err)}
		}
		return nil
	})

	var callErr *CallError
	switch {
	case err == nil:
		timer.Stop("ok")
		return nil
	case errors.As(err, &callErr):
		timer.Stop(callErr.kind())
	default:
		// rejected by the breaker
		err = &CallError{Op: op, Err: err}
		timer.Stop("rejected")
	}

	c.log.Debug("Backend call failed", zap.String("op", op), zap.Error(err))
	return err
}

func errorText(resp *resty.Response) string {
	text := strings.TrimSpace(resp.String())
	if text == "" {
		return resp.Status()
	}
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
