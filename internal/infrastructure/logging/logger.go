package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/loopmarket/treasury/internal/domain"
)

// ContextKey is the type for context keys carried alongside log records.
type ContextKey string

// RequestIDKey is the context key for request IDs.
const RequestIDKey ContextKey = "request_id"

// Logger wraps slog.Logger with context-aware field extraction.
type Logger struct {
	*slog.Logger
}

// New creates a structured logger writing to stdout. Format "json" selects
// the JSON handler, anything else falls back to text.
func New(level slog.Level, format string) *Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithContext returns a logger annotated with the request ID and the
// authenticated account, when the context carries them.
func (l *Logger) WithContext(ctx context.Context) *slog.Logger {
	logger := l.Logger

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		logger = logger.With("request_id", requestID)
	}

	if user, ok := domain.UserFromContext(ctx); ok {
		logger = logger.With("account_id", user.ID)
	}

	return logger
}

// InfoCtx logs at info level with fields extracted from ctx.
func (l *Logger) InfoCtx(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Info(msg, args...)
}

// WarnCtx logs at warn level with fields extracted from ctx.
func (l *Logger) WarnCtx(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Warn(msg, args...)
}

// ErrorCtx logs at error level with fields extracted from ctx.
func (l *Logger) ErrorCtx(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Error(msg, args...)
}

// DebugCtx logs at debug level with fields extracted from ctx.
func (l *Logger) DebugCtx(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Debug(msg, args...)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
