// Package middleware provides request hooks for the chat API client.
package middleware

import (
	"log/slog"

	"github.com/ashureev/shsh-chat/internal/identity"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// RequestID returns a hook that tags every outgoing request with a request id.
// An id already present in the request context is reused.
func RequestID() resty.RequestMiddleware {
	return func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get(RequestIDHeader) != "" {
			return nil
		}
		id := identity.RequestIDFromContext(r.Context())
		if id == "" {
			id = uuid.NewString()
		}
		r.SetHeader(RequestIDHeader, id)
		return nil
	}
}

// Logger returns a hook that logs every completed request at debug level.
func Logger(logger *slog.Logger) resty.ResponseMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(_ *resty.Client, resp *resty.Response) error {
		req := resp.Request
		logger.Debug("Chat API request",
			"method", req.Method,
			"url", req.URL,
			"status", resp.StatusCode(),
			"duration", resp.Time(),
			"request_id", req.Header.Get(RequestIDHeader),
			"username", identity.UsernameFromContext(req.Context()),
			"session_id", identity.SessionIDFromContext(req.Context()),
		)
		return nil
	}
}

// ErrorLogger returns a hook that logs requests that failed before a
// response was received.
func ErrorLogger(logger *slog.Logger) resty.ErrorHook {
	if logger == nil {
		logger = slog.Default()
	}
	return func(req *resty.Request, err error) {
		logger.Warn("Chat API request failed",
			"method", req.Method,
			"url", req.URL,
			"request_id", req.Header.Get(RequestIDHeader),
			"error", err,
		)
	}
}
