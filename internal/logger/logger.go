// Package logger builds the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/courierhub-platform/internal/config"
)

// NewLogger creates and configures a new slog.Logger. Output is JSON on
// stdout with the application name attached, so gateway and processor logs
// stay distinguishable in a shared aggregate.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source code location to log output
		AddSource: level == slog.LevelDebug,
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	if cfg.Application.Name != "" {
		logger = logger.With("app", cfg.Application.Name)
	}

	logger.Info("logger initialized", "level", level)

	return logger
}

// parseLevel maps the configured level name onto a slog.Level, defaulting
// to info for anything unrecognized
func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
