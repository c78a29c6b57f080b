package context

import (
	"context"
)

type contextKey string

var requestIDKey contextKey = "request_id"

// SetRequestID stores the request id used to correlate log lines of one request
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request id or an empty string
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
