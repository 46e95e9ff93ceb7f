// Package middleware provides the HTTP middleware of the driver.
//
// Middleware stack includes:
//   - Recovery: Panic recovery answering with a WebDriver "unknown error"
//   - Logging: One zap line per request, optionally with bodies
//   - CORS: Cross-origin resource sharing for browser-based clients
//   - RateLimit: Per-IP token bucket rate limiting with idle client cleanup
//   - BasicAuth: Optional single-account basic auth (plain or bcrypt)
//
// Rejections use the WebDriver error envelope:
//
//	{"value": {"error": "unknown error", "message": "rate limit exceeded"}}
//
// Example Usage:
//
//	router.Use(middleware.Recovery(logger))
//	router.Use(middleware.Logging(logger, middleware.LoggingConfig{Bodies: cfg.Logging.Bodies}))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
package middleware
