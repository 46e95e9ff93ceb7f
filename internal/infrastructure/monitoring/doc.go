/*
Package monitoring provides Prometheus metrics for the driver.

# Overview

Metrics are registered on a caller-supplied prometheus.Registerer, so a
test can build as many collectors as it needs on private registries.

# Metrics

  - deskdriver_http_*: request count, latency and sizes by route template
  - deskdriver_sessions_active: live sessions
  - deskdriver_sessions_{created,deleted,reaped}_total: session lifecycle
  - deskdriver_commands_total{command,status}: session commands
  - deskdriver_command_duration_seconds{command}
  - deskdriver_uptime_seconds

Metrics also implements the registry's lifecycle observer
(SessionCreated, SessionDeleted, SessionsActive).

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))
	registry.WithObserver(metrics)

	timer := monitoring.NewTimer(metrics, "click")
	err := session.Click(eid)
	timer.Stop(status)
*/
package monitoring
