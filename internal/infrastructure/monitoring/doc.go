/*
Package monitoring provides metrics collection for the sandbox service.

# Overview

This package implements Prometheus-based metrics collection, tracking HTTP
requests, workspace lifecycle, preview compiles, failure boundaries, and
websocket streams.

# Features

- HTTP request metrics (latency, throughput, size) labelled by route template
- Workspace lifecycle and file operation counters
- Compile counts and latency by outcome
- Boundary transitions and currently errored panels
- WebSocket connection metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Time a compile
	timer := monitoring.NewTimer(metrics)
	// ... run the program ...
	timer.Stop("success")

Tests should use NewMetricsWithRegistry(prometheus.NewRegistry()) so repeated
construction does not collide on the default registry.

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
