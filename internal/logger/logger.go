// Package logger sets up structured JSON logging with log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init creates a JSON logger for the given service writing to stdout and
// installs it as the slog default.
func Init(service string, level slog.Level) *slog.Logger {
	return InitWriter(os.Stdout, service, level)
}

// InitWriter is Init with an explicit destination. The returned logger is
// also the slog default, which package-level loggers derive from.
func InitWriter(w io.Writer, service string, level slog.Level) *slog.Logger {
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})).
		With(slog.String("service", service))
	slog.SetDefault(l)
	return l
}

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" (any case)
// to a level. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
