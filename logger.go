package giftbuf

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/giftbuf/internal/dict"
)

// Logger wraps slog.Logger with giftbuf-specific context.
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
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithRole tags every record with the process role.
func (l *Logger) WithRole(role string) *Logger {
	return &Logger{
		Logger: l.Logger.With("role", role),
	}
}

// WithName adds the enumerated name and distance.
func (l *Logger) WithName(name string, maxDist int) *Logger {
	return &Logger{
		Logger: l.Logger.With("name", name, "max_distance", maxDist),
	}
}

// LogFlush logs a page gift to the channel.
func (l *Logger) LogFlush(ctx context.Context, chunk, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "flush failed",
			"chunk", chunk,
			"bytes", bytes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "flush completed",
			"chunk", chunk,
			"bytes", bytes,
		)
	}
}

// LogFill logs a chunk read from the channel.
func (l *Logger) LogFill(ctx context.Context, chunk, bytes int, eof bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fill failed",
			"chunk", chunk,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "fill completed",
			"chunk", chunk,
			"bytes", bytes,
			"eof", eof,
		)
	}
}

// LogDictionary logs a dictionary load.
func (l *Logger) LogDictionary(ctx context.Context, path string, stats dict.Stats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dictionary load failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "dictionary loaded",
			"path", path,
			"compression", stats.Compression.String(),
			"bytes", stats.Bytes,
			"words", stats.Words,
			"duplicates", stats.Duplicates,
			"segments", stats.Segments,
		)
	}
}

// LogSummary logs the totals of a finished role.
func (l *Logger) LogSummary(ctx context.Context, stats Stats) {
	l.DebugContext(ctx, "run completed",
		"candidates", stats.Candidates,
		"chunks", stats.Chunks,
		"bytes", stats.Bytes,
	)
}
