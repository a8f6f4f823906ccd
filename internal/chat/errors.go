package chat

import (
	"errors"
	"fmt"
)

// Validation errors. They are reported to the Renderer and never mutate state.
var (
	ErrEmptyUsername = errors.New("username is required")
	ErrEmptyMessage  = errors.New("message is required")
	ErrNoSession     = errors.New("no active session")
	ErrSessionActive = errors.New("session already started")
)

// ErrSendInFlight is returned when a send is dropped because another one is
// still pending.
var ErrSendInFlight = errors.New("a message is already being sent")

// TransportError wraps a failure of the Transport during a send.
// The controller has already degraded it to a bot apology when it is returned.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is one of the validation errors.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyUsername) ||
		errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrNoSession)
}
