// Package logging configures the global slog default logger used by
// every other internal package for diagnostic output. The progress
// stream and SyncMetrics are the structured, consumable record of a
// run; logs are diagnostic only.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup configures the global slog default logger with the given level
// and format ("json" for JSON output, anything else for text). All
// output goes to os.Stderr, keeping stdout free for piped output. Safe
// to call more than once; each call replaces the prior configuration.
func Setup(level slog.Level, format string) {
	SetupWithWriter(level, format, os.Stderr)
}

// SetupWithWriter is Setup with an explicit writer, for tests that want
// to capture log output instead of writing to os.Stderr.
func SetupWithWriter(level slog.Level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// ResolveLevel picks a log level from verbose/quiet flags, verbose
// winning if both are set.
func ResolveLevel(verbose, quiet bool) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a child of the global default logger tagged with a
// component attribute.
func NewLogger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
