package util

import (
	"context"

	"github.com/RoyceAzure/lab/cartstore/internal/constants"
)

func GetRequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(constants.RequestIDKey).(string); ok {
		return v
	}
	return ""
}

func GetSessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(constants.SessionIDKey).(string); ok {
		return v
	}
	return ""
}

// IsSessionIssued reports whether the session id was minted for this request
// rather than brought by the client.
func IsSessionIssued(ctx context.Context) bool {
	v, _ := ctx.Value(constants.SessionIssuedKey).(bool)
	return v
}

func WithSessionIssued(ctx context.Context) context.Context {
	return context.WithValue(ctx, constants.SessionIssuedKey, true)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, constants.RequestIDKey, requestID)
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, constants.SessionIDKey, sessionID)
}
