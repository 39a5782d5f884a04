// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// SetLevel rebuilds the global logger with the given minimum level.
func SetLevel(level slog.Level) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

const (
	// CorrelationID is the context key carrying the request correlation ID.
	CorrelationID LogContextKey = "correlation_id"
)

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// SyncLogger provides structured logging for synchronization operations
// against the backend.
type SyncLogger struct {
	resource string
	logger   *Logger
}

// NewSyncLogger creates a new SyncLogger for the given backend resource.
func NewSyncLogger(resource string) *SyncLogger {
	return &SyncLogger{resource: resource, logger: GlobalLogger}
}

// LogConfirm logs a backend-confirmed mutation before it is applied locally.
func (l *SyncLogger) LogConfirm(ctx context.Context, operation string, fields map[string]any) {
	attrs := []any{
		slog.String("resource", l.resource),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "backend mutation confirmed", attrs...)
}

// LogError logs a failed backend mutation. Local state is left untouched.
func (l *SyncLogger) LogError(ctx context.Context, operation string, err error) {
	l.logger.ErrorContext(ctx, "backend mutation failed",
		slog.String("resource", l.resource),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.String("error", err.Error()),
	)
}

// LogPublishStart logs the start of a publish fan-out.
func LogPublishStart(ctx context.Context, postID string, pages int) {
	GlobalLogger.InfoContext(ctx, "publish started",
		slog.String("post_id", postID),
		slog.Int("pages", pages),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogPublishEnd logs the resolution of a publish fan-out.
func LogPublishEnd(ctx context.Context, postID string, succeeded, failed int) {
	GlobalLogger.InfoContext(ctx, "publish finished",
		slog.String("post_id", postID),
		slog.Int("succeeded", succeeded),
		slog.Int("failed", failed),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}
