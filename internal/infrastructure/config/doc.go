// Package config provides 12-factor configuration management for the driver.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags in cmd/server override environment variables.
//
// Configuration Sections:
//   - Server: HTTP listener and WebDriver base path
//   - Logging: Log level, output format and body logging
//   - RateLimit: Per-IP rate limiting, off by default for a local driver
//   - Auth: Optional HTTP basic auth
//   - Automation: Provider, shell gate, cleanup cycle and worker pool
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Listening on %s%s\n", cfg.Server.Address(), cfg.Server.BasePath)
//
// Environment Variables:
//   - PORT, HOST, BASE_PATH
//   - LOG_LEVEL, LOG_DEV, LOG_BODIES
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - AUTH_USERNAME, AUTH_PASSWORD
//   - PROVIDER, DESKTOP_FIXTURE, ALLOW_SHELL, SHELL_BINARY, SHELL_TEMP_DIR
//   - SESSION_CLEANUP_CYCLE, AUTOMATION_WORKERS, MAX_ELEMENT_HANDLES, SYSTEM_CLIPBOARD
package config
