/*
Package monitoring provides Prometheus metrics for the session client and the
development agent server.

# Overview

Collectors are registered on an injected prometheus.Registerer. A nil
*Metrics records nothing, so every component takes metrics as optional.

# Client metrics

- messages sent per transport mode
- backend API calls per op and status, with a duration histogram
- live channel events per kind
- bundle writes per result
- active transport mode and conversation size

# Agent server metrics

- HTTP requests per route template and status
- live sessions and WebSocket connections

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "send")
	// ... perform call ...
	timer.Stop("ok")

# Metrics Endpoint

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
*/
package monitoring
