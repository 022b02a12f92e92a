// Package main is the entry point for the desktop runtime server.
//
// The server holds the window state of one desktop: open app instances,
// their stacking order and focus, launch routing and persisted app hints.
// The browser renderer reads it over REST and a WebSocket stream.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -db data/desktop.db -apps apps
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
