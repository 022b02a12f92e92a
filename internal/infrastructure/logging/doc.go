// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Domain packages take a plain *zap.Logger; Component hands each one a
// child logger tagged with its name.
//
// Example Usage:
//
//	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
//	registry := window.New(cat, window.WithLogger(logger.Component("registry")))
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
