// Package identity normalizes the display name of a chat session and carries
// session and request identity through contexts.
package identity

import (
	"context"
	"strings"
)

type contextKey int

const (
	usernameKey contextKey = iota
	sessionIDKey
	requestIDKey
)

// NormalizeUsername trims surrounding whitespace. The name is otherwise sent
// as typed; an empty result means the name is invalid.
func NormalizeUsername(name string) string {
	return strings.TrimSpace(name)
}

// WithSession returns a context carrying the session identity for logging.
func WithSession(ctx context.Context, username, sessionID string) context.Context {
	ctx = context.WithValue(ctx, usernameKey, username)
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithRequestID returns a context carrying the outbound request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// UsernameFromContext extracts the username from the context.
func UsernameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(usernameKey).(string); ok {
		return v
	}
	return ""
}

// SessionIDFromContext extracts the session id from the context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// RequestIDFromContext extracts the request id from the context.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
