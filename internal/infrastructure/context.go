package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type traceIDKey struct{}

// WithTraceID stores traceID in ctx. The trace handler adds it to every
// record logged with ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// GetTraceID returns the trace ID stored in ctx, falling back to the ID of
// the active OpenTelemetry span. Empty when neither is set.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok {
		return traceID
	}
	return TraceIDFromContext(ctx)
}

// EnsureTraceID returns ctx unchanged when it carries a trace ID, otherwise
// a child context with a fresh UUID
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, uuid.NewString())
}

// LoggerFromContext returns the global logger bound to the trace ID of ctx,
// for code that logs without passing ctx along
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if traceID := GetTraceID(ctx); traceID != "" {
		return logger.With(slog.String("trace_id", traceID))
	}
	return logger
}
