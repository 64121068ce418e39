package cli

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/gadgeto/internal/domain/engine"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/gadgeto/internal/providers/backend"
	"github.com/GriffinCanCode/gadgeto/internal/providers/live"
)

const closeTimeout = 10 * time.Second

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		Long: `chat restores the saved session (after asking), connects to the agent and
reads messages from stdin. Lines starting with / are commands; /help lists
them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.chat(ctx, cmd)
		},
	}
}

func (a *app) chat(ctx context.Context, cmd *cobra.Command) error {
	logger, err := a.logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	if a.cfg.Metrics.Addr != "" {
		srv := serveMetrics(a.cfg.Metrics.Addr, reg, logger)
		defer func() { _ = srv.Close() }()
	}

	out := newLockedWriter(cmd.OutOrStdout())
	in := bufio.NewScanner(cmd.InOrStdin())
	r := &repl{in: in, out: out, copyText: a.copyText}

	b := backend.New(backend.Config{
		BaseURL:   a.cfg.Backend.URL,
		Timeout:   a.cfg.Backend.Timeout,
		RateLimit: a.cfg.Backend.RateLimit,
	}, backend.WithLogger(logger), backend.WithMetrics(metrics))

	eng := engine.New(st,
		engine.WithBackend(b),
		engine.WithLive(engine.NewLiveFactory(a.cfg.Live.Endpoint,
			live.WithLogger(logger),
			live.WithMetrics(metrics),
			live.WithHandshakeTimeout(a.cfg.Live.HandshakeTimeout),
		)),
		engine.WithConfirmer(engine.ConfirmFunc(r.confirm)),
		engine.WithObserver(engine.ObserverFunc(r.onEvent)),
		engine.WithLogger(logger),
		engine.WithMetrics(metrics),
		engine.WithAutosaveInterval(a.cfg.Session.AutosaveInterval),
	)
	r.eng = eng

	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := eng.Close(closeCtx); err != nil {
			out.Printf("Could not save the session: %v\n", err)
		}
	}()

	return r.run(ctx)
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return srv
}
