package agent

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/gadgeto/internal/api/middleware"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/monitoring"
)

const shutdownTimeout = 5 * time.Second

// Config configures the agent server
type Config struct {
	Host        string
	Port        string
	Development bool
	// RateLimit is the per-client request rate; zero disables limiting
	RateLimit    float64
	RateBurst    int
	AllowOrigins []string
}

// Server is the development agent: the session API under /api/session and
// the live channel at /ws
type Server struct {
	cfg      Config
	router   *gin.Engine
	sessions *Sessions
	hub      *Hub
	log      *logging.Logger
	metrics  *monitoring.Metrics
	agent    Responder
	metricsH http.Handler
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics records request and connection metrics
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithResponder replaces the echo agent
func WithResponder(r Responder) Option {
	return func(s *Server) { s.agent = r }
}

// WithMetricsHandler exposes h at GET /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsH = h }
}

// New builds the server and its routes
func New(cfg Config, opts ...Option) *Server {
	s := &Server{cfg: cfg, agent: Echo{}}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrNop(s.log).Component("agent")
	s.sessions = NewSessions(s.log, s.metrics)
	s.hub = NewHub(s.sessions, s.agent, s.log, s.metrics)

	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(s.metrics))

	cors := middleware.DefaultCORSConfig()
	if len(cfg.AllowOrigins) > 0 {
		cors.AllowOrigins = cfg.AllowOrigins
	}
	router.Use(middleware.CORS(cors))

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(cfg.RateLimit) + 1
		}
		s.log.Info("Rate limiting enabled", zap.Float64("rps", cfg.RateLimit), zap.Int("burst", burst))
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit,
			Burst:             burst,
		}))
	}

	handlers := NewHandlers(s.sessions, s.agent)

	router.GET("/health", handlers.Health)

	api := router.Group("/api/session")
	api.POST("/new", handlers.NewSession)
	api.POST("/message", handlers.Message)
	api.GET("/:id/history", handlers.History)
	api.DELETE("/:id", handlers.Delete)

	router.GET("/ws", s.hub.Handle)

	if s.metricsH != nil {
		router.GET("/metrics", gin.WrapH(s.metricsH))
	}

	s.router = router
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions exposes the session registry
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// Addr is the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, s.cfg.Port)
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting agent server", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down agent server")
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
