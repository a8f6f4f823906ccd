// Package chat implements the session controller of the chat client.
package chat

import (
	"context"
	"time"

	"github.com/ashureev/shsh-chat/internal/domain"
)

// Request is the outbound payload for one user message.
// SessionID is empty until the server has assigned one.
type Request struct {
	Message   string
	Username  string
	SessionID string
}

// Reply is a successful response from the chat API.
type Reply struct {
	Response   string
	SessionID  string
	Intent     string
	Confidence *float64
}

// Transport exchanges messages with the remote chat API.
// Any returned error is a transport failure; a nil error implies a non-nil Reply.
type Transport interface {
	// Send delivers one message and waits for the reply.
	Send(ctx context.Context, req Request) (*Reply, error)

	// Health probes the API liveness endpoint.
	Health(ctx context.Context) error
}

// Renderer presents controller output to the user.
type Renderer interface {
	// DisplayMessage appends a message to the visible log.
	DisplayMessage(msg domain.Message)

	// SetTyping toggles the "bot is typing" indicator.
	SetTyping(typing bool)

	// ShowTransientError displays a notice that dismisses itself.
	ShowTransientError(text string)

	// RequestConfirmation asks a yes/no question and blocks for the answer.
	RequestConfirmation(prompt string) bool

	// SaveExport delivers exported bytes to the user.
	SaveExport(data []byte, suggestedFilename string) error

	// Focus returns input focus to the message field.
	Focus()
}

// State is the conversation state.
type State int

const (
	// StateNoSession is the state before a username has been entered.
	StateNoSession State = iota
	// StateChatting is the idle state of an active session.
	StateChatting
	// StateSending is the transient state while a message is in flight.
	StateSending
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateNoSession:
		return "no_session"
	case StateChatting:
		return "chatting"
	case StateSending:
		return "sending"
	default:
		return "unknown"
	}
}

// Fixed user-facing texts.
const (
	greetingFormat       = "Hello %s! 👋 I'm your AI assistant. How can I help you today?"
	apologyText          = "Sorry, I'm having trouble connecting right now. Please make sure the backend server is running."
	connectionNoticeText = "Failed to connect to chatbot. Make sure the backend is running."
	emptyUsernameNotice  = "Please enter your name to start chatting"
	emptyMessageNotice   = "Please enter a message"
	noSessionNotice      = "Please enter your name before sending messages"
	clearPrompt          = "Are you sure you want to clear the chat?"
	restartPrompt        = "End this conversation and start over?"
)

// ExportRecord is one exported message.
type ExportRecord struct {
	Sender    string    `json:"sender" yaml:"sender"`
	Text      string    `json:"text" yaml:"text"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}
