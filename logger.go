package assetstream

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with streaming-specific context.
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
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(1000),
		})),
	}
}

// WithResource adds resource id and type fields to the logger.
func (l *Logger) WithResource(id string, t ResourceType) *Logger {
	return &Logger{
		Logger: l.Logger.With("resource", id, "type", t.String()),
	}
}

// WithRegion adds a region field to the logger.
func (l *Logger) WithRegion(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("region", id),
	}
}

// LogRequest logs the outcome of a stream request.
func (l *Logger) LogRequest(ctx context.Context, d Descriptor, hit bool, err error) {
	if err != nil {
		l.WarnContext(ctx, "request failed",
			"resource", d.ID,
			"type", d.Type.String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "request served",
		"resource", d.ID,
		"type", d.Type.String(),
		"cache_hit", hit,
	)
}

// LogLoad logs an executor load.
func (l *Logger) LogLoad(ctx context.Context, task Task, size int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"job", task.JobID.String(),
			"resource", task.ID,
			"type", task.Type.String(),
			"lod", task.LOD.String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "load completed",
		"job", task.JobID.String(),
		"resource", task.ID,
		"type", task.Type.String(),
		"lod", task.LOD.String(),
		"bytes", size,
		"duration", duration,
	)
}

// LogEviction logs a resource reclaimed by budget enforcement.
func (l *Logger) LogEviction(ctx context.Context, r Resource) {
	l.DebugContext(ctx, "resource evicted",
		"resource", r.ID,
		"type", r.Type.String(),
		"priority", r.Priority.String(),
		"bytes", r.SizeBytes,
	)
}

// LogRegion logs a region registration or removal.
func (l *Logger) LogRegion(ctx context.Context, op, id string, resources int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "region "+op+" failed",
			"region", id,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "region "+op,
		"region", id,
		"resources", resources,
	)
}

// LogShutdown logs the end of a manager's lifetime.
func (l *Logger) LogShutdown(ctx context.Context, abandoned int, err error) {
	if err != nil {
		l.WarnContext(ctx, "shutdown did not wait for all loads",
			"abandoned", abandoned,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "shutdown completed",
		"abandoned", abandoned,
	)
}
