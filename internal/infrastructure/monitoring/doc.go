/*
Package monitoring provides Prometheus metrics for the orchestration backend.

# Overview

Each Metrics value owns a private registry, so several servers (or tests) can
live in one process without duplicate-registration panics.

# Metrics

- HTTP requests (count, latency) keyed by route template
- Agent registry (live agents, constructions, construction failures)
- Navigation operations by op and outcome
- Visibility transitions, armed show timers, host notifications
- WebSocket connections by role and messages by direction

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

All recording methods accept a nil receiver.
*/
package monitoring
