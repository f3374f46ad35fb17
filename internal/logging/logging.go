// Package logging configures the process-wide slog logger.
//
// Diagnostics always go to stderr so they never interleave with event
// streams written to stdout.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init installs the default slog logger. When eventsOnStdout is true the
// handler emits JSON, keeping stderr machine-readable alongside the NDJSON
// event stream; otherwise it uses the text handler.
func Init(eventsOnStdout bool, level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if eventsOnStdout {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// ForRun returns a logger that stamps every record with the run identifier,
// so logs from concurrent or repeated runs can be told apart.
func ForRun(runID string) *slog.Logger {
	return slog.Default().With("run_id", runID)
}

// ParseLevel converts a level name to slog.Level. Unknown names fall back
// to LevelInfo.
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
