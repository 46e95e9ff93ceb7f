// Package server assembles the driver: logger, metrics, tracer, desktop
// provider, session registry, cleanup scheduler and the gin router.
//
// Middleware order:
//
//	Recovery → Tracing → Metrics → Logging → CORS → RateLimit → BasicAuth
//
// Rate limiting and basic auth are only installed when configured. The
// health and metrics endpoints bypass auth.
package server
