package ctxlog

import (
	"io"
	"log/slog"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[slog.Logger]

func init() {
	defaultLogger.Store(New("info", "text", io.Discard))
}

// Default returns the package-wide fallback logger used when no logger
// has been installed into a context.Context.
func Default() *slog.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the package-wide fallback logger.
func SetDefault(logger *slog.Logger) {
	defaultLogger.Store(logger)
}

// New builds a slog.Logger from a level name ("debug", "info", "warn",
// "error") and a format name ("text" or "json"), writing to w. It does
// not set the global slog default, so callers can hold several
// independent loggers.
func New(levelStr, formatStr string, w io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
