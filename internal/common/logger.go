package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts a config string into a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, level)
	}
}

// NewLogger builds a logger writing to w in the given format ("json" or "console").
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// SetupLogger configures the global logger with appropriate settings.
func SetupLogger(level slog.Level, format string) error {
	if format != "" && format != "json" && format != "console" {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, format)
	}
	slog.SetDefault(NewLogger(os.Stderr, level, format))
	return nil
}

// LogError logs an error with additional key/value context.
func LogError(err error, msg string, args ...any) {
	slog.Error(msg, append([]any{"error", err}, args...)...)
}
