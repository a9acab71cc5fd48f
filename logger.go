package epsel

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with sampler-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithLabel adds an ensemble label field to the logger.
func (l *Logger) WithLabel(label string) *Logger {
	return &Logger{Logger: l.Logger.With("label", label)}
}

// WithIndex adds a stream index field to the logger.
func (l *Logger) WithIndex(index int) *Logger {
	return &Logger{Logger: l.Logger.With("index", index)}
}

// LogSkip logs a configuration skipped after an evaluation failure.
func (l *Logger) LogSkip(ctx context.Context, index int, err error) {
	l.WarnContext(ctx, "configuration skipped",
		"index", index,
		"error", err,
	)
}

// LogRunDone logs a completed sampling run.
func (l *Logger) LogRunDone(ctx context.Context, streamed, candidates, selected, skipped int) {
	l.InfoContext(ctx, "sampling run completed",
		"streamed", streamed,
		"candidates", candidates,
		"selected", selected,
		"skipped", skipped,
	)
}
