// Package config provides 12-factor configuration management for the desktop service.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, shutdown, CORS origins)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Store: SQLite path for app hints and saved sessions
//   - Catalog: App manifest directory and match pattern
//   - Events: Event bridge durability and launch delay
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT, ALLOWED_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - DESKTOP_DB_PATH, APPS_DIR, APPS_PATTERN
//   - EVENTS_DURABLE, EVENTS_LAUNCH_DELAY
package config
