// Package logging provides structured logging configuration for schemagate.
//
// This package wraps log/slog so every gateway component logs the same way.
// Components accept a *slog.Logger through a constructor option; when none is
// provided they fall back to Nop().
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("validator cache ready", "capacity", 5)
//
// Log levels are debug, info, warn and error. Output is either text (for
// development) or JSON (for log aggregation).
package logging
