// Package logger builds the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"

	"lifeline/internal/platform/config"
)

// New returns a JSON slog logger writing to stdout. Level names are debug,
// info, warn, and error; anything else means info.
func New(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
