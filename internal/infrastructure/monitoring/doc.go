/*
Package monitoring provides Prometheus metrics for the desktop service.

# Overview

Every collector lives on a registry owned by the Metrics value, so tests and
multiple servers in one process never collide on registration. A nil
*Metrics is accepted everywhere and records nothing.

# Features

- HTTP request metrics (latency, throughput, size)
- Instance lifecycle and launch outcome counters
- Event bridge emission, delivery, miss and panic counters
- Session and catalog gauges
- WebSocket connection metrics

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "session", "save")
	// ... perform operation ...
	timer.StopErr(err)
*/
package monitoring
