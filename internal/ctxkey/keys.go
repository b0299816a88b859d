// Package ctxkey defines shared context key types used across multiple packages.
// This package should have no dependencies on other internal packages to avoid import cycles.
package ctxkey

import "context"

// RequestIDKey is the context key type for the outbound request ID.
// Callers may pin a request ID on the context; otherwise the API client
// generates one per request.
type RequestIDKey struct{}

// WithRequestID returns ctx carrying id as the outbound request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey{}, id)
}

// RequestID returns the request ID carried by ctx, if any.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(RequestIDKey{}).(string)
	return id, ok && id != ""
}
