// Package logging builds the structured loggers used by the commands and
// the pipeline.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with consistent field names for library work.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing to w (stderr when nil) in the given format,
// "text" or "json".
func New(level slog.Level, format string, w io.Writer) (*Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}

	return &Logger{Logger: slog.New(handler)}, nil
}

// Noop creates a Logger that discards all log output.
func Noop() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// ParseLevel converts debug, info, warn or error to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// WithFile adds a file field to the logger.
func (l *Logger) WithFile(path string) *Logger {
	return &Logger{Logger: l.Logger.With("file", path)}
}

// WithRun adds a run_id field to the logger.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{Logger: l.Logger.With("run_id", id)}
}

// LogRejected logs every record a reader skipped.
func (l *Logger) LogRejected(rejected []error) {
	for _, err := range rejected {
		l.Warn("skipped malformed record", "error", err)
	}
}

// LogSkipped logs IDs dropped from a stage, at most a few by value.
func (l *Logger) LogSkipped(reason string, ids []int) {
	if len(ids) == 0 {
		return
	}
	const shown = 10
	l.Warn("skipped library entries",
		"reason", reason,
		"count", len(ids),
		"ids", ids[:min(len(ids), shown)],
	)
}
