package shared

import "context"

type contextKey string

const correlationIDContextKey contextKey = "correlation_id"

// WithCorrelationID stores the request correlation ID on the context so it
// travels into outbox events written by the services.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDContextKey, correlationID)
}

// CorrelationIDFromContext returns the correlation ID, or "" when absent
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDContextKey).(string); ok {
		return id
	}
	return ""
}
