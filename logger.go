package terrastore

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with store-specific context.
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

// WithBackend adds a backend field to the logger.
func (l *Logger) WithBackend(backend string) *Logger {
	return &Logger{
		Logger: l.Logger.With("backend", backend),
	}
}

// WithLocation adds a location field to the logger.
func (l *Logger) WithLocation(location string) *Logger {
	return &Logger{
		Logger: l.Logger.With("location", location),
	}
}

// LogWrite logs a write operation.
func (l *Logger) LogWrite(ctx context.Context, key string, size int64, errMsg string) {
	if errMsg != "" {
		l.WarnContext(ctx, "write failed",
			"key", key,
			"error", errMsg,
		)
	} else {
		l.DebugContext(ctx, "write completed",
			"key", key,
			"size", size,
		)
	}
}

// LogRead logs a read operation. found is false when the key is absent.
func (l *Logger) LogRead(ctx context.Context, key string, found bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "read completed",
			"key", key,
			"found", found,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, key string, errMsg string) {
	if errMsg != "" {
		l.WarnContext(ctx, "delete failed",
			"key", key,
			"error", errMsg,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"key", key,
		)
	}
}

// LogList logs a list operation.
func (l *Logger) LogList(ctx context.Context, prefix string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "list failed",
			"prefix", prefix,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "list completed",
			"prefix", prefix,
			"count", count,
		)
	}
}

// LogBackup logs a backup operation.
func (l *Logger) LogBackup(ctx context.Context, res BackupResult, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "backup failed",
			"original_key", res.OriginalKey,
			"error", err,
		)
	case !res.Created:
		l.InfoContext(ctx, "backup skipped",
			"original_key", res.OriginalKey,
			"reason", res.Reason,
		)
	default:
		l.InfoContext(ctx, "backup created",
			"original_key", res.OriginalKey,
			"backup_key", res.Key,
		)
	}
}

// LogRestore logs a backup restore.
func (l *Logger) LogRestore(ctx context.Context, backupKey, originalKey string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"backup_key", backupKey,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "restore completed",
			"backup_key", backupKey,
			"original_key", originalKey,
		)
	}
}
