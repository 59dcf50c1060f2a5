// Package requestctx carries request-scoped correlation values through
// context.Context.
package requestctx

import "context"

type (
	requestIDContextKey struct{}
	traceIDContextKey   struct{}
	userIDContextKey    struct{}
)

// WithRequestID stores the inbound HTTP request id in context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext returns the HTTP request id stored in context.
func RequestIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, requestIDContextKey{})
}

// WithTraceID stores the invocation trace id in context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return withString(ctx, traceIDContextKey{}, traceID)
}

// TraceIDFromContext returns the invocation trace id stored in context.
func TraceIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, traceIDContextKey{})
}

// WithUserID stores the invoking user id in context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withString(ctx, userIDContextKey{}, userID)
}

// UserIDFromContext returns the invoking user id stored in context.
func UserIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, userIDContextKey{})
}

func withString(ctx context.Context, key any, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
