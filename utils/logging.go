package utils

import (
	"io"
	"log/slog"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// NewLogger builds the run logger. Console output goes to w in the requested
// format; when journal is non-nil every record is also written to it as JSON,
// which is what ParseLogFile reads back on the next run.
func NewLogger(level slog.Level, format string, w io.Writer, journal io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	switch strings.ToLower(format) {
	case "json":
		console = slog.NewJSONHandler(w, opts)
	default:
		console = slog.NewTextHandler(w, opts)
	}

	if journal == nil {
		return slog.New(console)
	}
	jsonHandler := slog.NewJSONHandler(journal, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(slogmulti.Fanout(console, jsonHandler))
}

// ParseLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
