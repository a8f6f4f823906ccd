// Package transport implements the chat API client over HTTP/JSON.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/shsh-chat/internal/chat"
	"github.com/ashureev/shsh-chat/internal/middleware"
	"github.com/go-resty/resty/v2"
)

// ErrMalformedResponse is returned when a 2xx reply cannot be decoded.
var ErrMalformedResponse = errors.New("malformed chat response")

// maxErrorBody bounds how much of an error body is kept in StatusError.
const maxErrorBody = 512

// StatusError is returned for non-2xx replies.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat API returned status %d", e.Code)
	}
	return fmt.Sprintf("chat API returned status %d: %s", e.Code, e.Body)
}

// Options configures an HTTP transport.
type Options struct {
	BaseURL string
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration
	Logger  *slog.Logger
	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client
}

// HTTP talks to the chat API with resty. It performs no retries.
type HTTP struct {
	client *resty.Client
}

var _ chat.Transport = (*HTTP)(nil)

type messageRequest struct {
	Message   string  `json:"message"`
	Username  string  `json:"username"`
	SessionID *string `json:"sessionId"`
}

type messageResponse struct {
	Response   *string  `json:"response"`
	SessionID  string   `json:"sessionId"`
	Intent     string   `json:"intent,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// NewHTTP creates a transport for the API rooted at opts.BaseURL.
func NewHTTP(opts Options) *HTTP {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var client *resty.Client
	if opts.HTTPClient != nil {
		client = resty.NewWithClient(opts.HTTPClient)
	} else {
		client = resty.New()
	}

	client.
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		SetLogger(restyLogger{logger: logger})
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	client.OnBeforeRequest(middleware.RequestID())
	client.OnAfterResponse(middleware.Logger(logger))
	client.OnError(middleware.ErrorLogger(logger))

	return &HTTP{client: client}
}

// Send posts one message and decodes the reply.
func (t *HTTP) Send(ctx context.Context, req chat.Request) (*chat.Reply, error) {
	body := messageRequest{
		Message:  req.Message,
		Username: req.Username,
	}
	if req.SessionID != "" {
		sid := req.SessionID
		body.SessionID = &sid
	}

	res, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/message")
	if err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}

	if !res.IsSuccess() {
		return nil, &StatusError{Code: res.StatusCode(), Body: truncate(strings.TrimSpace(res.String()), maxErrorBody)}
	}

	var decoded messageResponse
	if err := json.Unmarshal(res.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if decoded.Response == nil {
		return nil, fmt.Errorf("%w: missing response field", ErrMalformedResponse)
	}

	return &chat.Reply{
		Response:   *decoded.Response,
		SessionID:  decoded.SessionID,
		Intent:     decoded.Intent,
		Confidence: decoded.Confidence,
	}, nil
}

// Health probes GET /health.
func (t *HTTP) Health(ctx context.Context) error {
	res, err := t.client.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if !res.IsSuccess() {
		return &StatusError{Code: res.StatusCode(), Body: truncate(strings.TrimSpace(res.String()), maxErrorBody)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// restyLogger routes resty's internal messages into slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}
