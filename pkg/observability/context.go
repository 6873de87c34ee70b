package observability

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	runIDCtxKey     contextKey = "run_id"
	requestIDCtxKey contextKey = "request_id"
)

// Attribute keys shared by logs and metrics.
const (
	RunIDKey     = "run_id"
	RequestIDKey = "request_id"
	OperationKey = "operation"
	DurationKey  = "duration_ms"
	ErrorKey     = "error"
	StatusKey    = "status"
)

// WithRunID tags the context with the identifier of one CLI or scheduled
// run. An empty id gets a fresh UUID.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, runIDCtxKey, id)
}

// RunIDFromContext extracts the run ID from context.
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDCtxKey).(string)
	return id
}

// WithRequestID tags the context with an HTTP request ID. An empty id gets a
// fresh UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDCtxKey, id)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDCtxKey).(string)
	return id
}
