package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/gadgeto/internal/api/agent"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/config"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/monitoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override the environment
	port := flag.String("port", cfg.Agent.Port, "Server port")
	host := flag.String("host", cfg.Agent.Host, "Listen host")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (debug logs, gin debug output)")
	rate := flag.Float64("rate", cfg.Agent.RateLimit, "Per-client requests per second (0 disables)")
	flag.Parse()

	logCfg := logging.Config{Level: cfg.Logging.Level, Development: *dev}
	if *dev {
		logCfg = logging.DevelopmentConfig()
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(reg)

	srv := agent.New(agent.Config{
		Host:         *host,
		Port:         *port,
		Development:  *dev,
		RateLimit:    *rate,
		RateBurst:    cfg.Agent.RateBurst,
		AllowOrigins: cfg.Agent.AllowOrigins,
	},
		agent.WithLogger(logger),
		agent.WithMetrics(metrics),
		agent.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
