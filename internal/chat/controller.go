package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/shsh-chat/internal/domain"
	"github.com/ashureev/shsh-chat/internal/identity"
)

var errNilReply = errors.New("transport returned no reply")

// Controller owns one conversation: the session identity, the message log
// and the single-flight send guard.
type Controller struct {
	transport     Transport
	renderer      Renderer
	convLog       ConversationLogger
	logger        *slog.Logger
	now           func() time.Time
	healthTimeout time.Duration

	mu      sync.Mutex
	session domain.Session
	sending bool
	draft   string

	messages domain.Log
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConversationLogger sets the NDJSON transcript logger.
func WithConversationLogger(l ConversationLogger) Option {
	return func(c *Controller) {
		if l != nil {
			c.convLog = l
		}
	}
}

// WithClock overrides the message timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithHealthTimeout bounds the startup health probe.
func WithHealthTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.healthTimeout = d
		}
	}
}

// NewController creates a controller in the NoSession state.
func NewController(transport Transport, renderer Renderer, opts ...Option) *Controller {
	c := &Controller{
		transport:     transport,
		renderer:      renderer,
		convLog:       noopConversationLogger{},
		logger:        slog.Default(),
		now:           time.Now,
		healthTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartSession sets the username and greets the user.
func (c *Controller) StartSession(name string) error {
	name = identity.NormalizeUsername(name)
	if name == "" {
		c.renderer.ShowTransientError(emptyUsernameNotice)
		return ErrEmptyUsername
	}

	c.mu.Lock()
	if c.session.Active() {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.session = domain.Session{Username: name}
	c.mu.Unlock()

	c.logger.Info("Chat session started", "username", name)

	greeting := domain.Message{
		Sender:    domain.SenderBot,
		Text:      fmt.Sprintf(greetingFormat, name),
		Intent:    domain.IntentGreeting,
		Timestamp: c.now(),
	}
	c.emit(greeting)
	c.logMessage(name, "", "outbound", "chat_greeting", greeting)
	c.renderer.Focus()
	return nil
}

// SendMessage sends text to the chat API and renders the reply.
//
// Calls made while another send is pending are dropped with ErrSendInFlight.
// A transport failure is rendered as a bot apology and returned as a
// *TransportError; the session stays usable either way.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		c.renderer.ShowTransientError(emptyMessageNotice)
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if !c.session.Active() {
		c.mu.Unlock()
		c.renderer.ShowTransientError(noSessionNotice)
		return ErrNoSession
	}
	if c.sending {
		c.mu.Unlock()
		c.logger.Debug("Send dropped, previous message still pending")
		return ErrSendInFlight
	}
	c.sending = true
	req := Request{
		Message:   text,
		Username:  c.session.Username,
		SessionID: c.session.SessionID,
	}
	c.mu.Unlock()

	defer func() {
		defer c.renderer.Focus()
		defer c.releaseGuard()
		c.renderer.SetTyping(false)
	}()

	userMsg := domain.Message{
		Sender:    domain.SenderUser,
		Text:      text,
		Timestamp: c.now(),
	}
	c.emit(userMsg)
	c.logMessage(req.Username, req.SessionID, "outbound", "chat_user_message", userMsg)

	c.renderer.SetTyping(true)

	requestID := uuid.NewString()
	ctx = identity.WithRequestID(identity.WithSession(ctx, req.Username, req.SessionID), requestID)

	started := time.Now()
	reply, err := c.transport.Send(ctx, req)
	if err == nil && reply == nil {
		err = errNilReply
	}
	if err != nil {
		c.logger.Error("Chat request failed",
			"request_id", requestID,
			"username", req.Username,
			"session_id", req.SessionID,
			"duration", time.Since(started),
			"error", err,
		)
		apology := domain.Message{
			Sender:    domain.SenderBot,
			Text:      apologyText,
			Intent:    domain.IntentError,
			Timestamp: c.now(),
		}
		c.emit(apology)
		c.logMessage(req.Username, req.SessionID, "inbound", "chat_error", apology)
		c.renderer.ShowTransientError(connectionNoticeText)
		return &TransportError{Err: err}
	}

	sessionID := c.adoptSessionID(reply.SessionID)

	botMsg := domain.Message{
		Sender:     domain.SenderBot,
		Text:       reply.Response,
		Intent:     reply.Intent,
		Confidence: reply.Confidence,
		Timestamp:  c.now(),
	}
	c.emit(botMsg)
	c.logMessage(req.Username, sessionID, "inbound", "chat_assistant_message", botMsg)

	c.logger.Debug("Chat reply received",
		"request_id", requestID,
		"session_id", sessionID,
		"intent", reply.Intent,
		"duration", time.Since(started),
	)
	return nil
}

// adoptSessionID stores id if none is set yet and returns the current id.
func (c *Controller) adoptSessionID(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.HasSessionID() {
		if id != "" && id != c.session.SessionID {
			c.logger.Debug("Ignoring differing session id from server",
				"session_id", c.session.SessionID,
				"received", id,
			)
		}
		return c.session.SessionID
	}
	if !c.session.AdoptSessionID(id) {
		return ""
	}
	c.logger.Info("Session id assigned", "username", c.session.Username, "session_id", id)
	return id
}

func (c *Controller) releaseGuard() {
	c.mu.Lock()
	c.sending = false
	c.mu.Unlock()
}

// ClearConversation empties the message log after the user confirms.
// The session identity is kept. Returns true if the log was cleared.
func (c *Controller) ClearConversation() bool {
	if !c.renderer.RequestConfirmation(clearPrompt) {
		return false
	}
	n := c.messages.Len()
	c.messages.Clear()

	c.logger.Info("Conversation cleared", "messages_dropped", n)
	return true
}

// EndSession returns the controller to the NoSession state after the user
// confirms, discarding the session identity and the message log.
// Returns true if the session was ended.
func (c *Controller) EndSession() (bool, error) {
	c.mu.Lock()
	if !c.session.Active() {
		c.mu.Unlock()
		return false, ErrNoSession
	}
	c.mu.Unlock()

	if !c.renderer.RequestConfirmation(restartPrompt) {
		return false, nil
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return false, ErrSendInFlight
	}
	old := c.session
	c.session = domain.Session{}
	c.draft = ""
	c.mu.Unlock()

	c.messages.Clear()
	c.logger.Info("Chat session ended", "username", old.Username, "session_id", old.SessionID)
	return true, nil
}

// Suggest pre-fills a draft message for the quick-start flow.
// It has no effect before a session is started.
func (c *Controller) Suggest(text string) bool {
	text = strings.TrimSpace(text)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.session.Active() || text == "" {
		return false
	}
	c.draft = text
	return true
}

// TakeDraft returns the pending draft and clears it.
func (c *Controller) TakeDraft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.draft
	c.draft = ""
	return d
}

// Draft returns the pending draft without clearing it.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// HealthCheck probes the chat API in the background and logs the outcome.
// It never changes session state. The returned channel is closed when the
// probe finishes; callers are free to ignore it.
func (c *Controller) HealthCheck(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("Health check panicked", "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
		defer cancel()

		if err := c.transport.Health(ctx); err != nil {
			c.logger.Warn("Backend not connected", "error", err)
			return
		}
		c.logger.Info("Backend connected successfully")
	}()
	return done
}

// State returns the current conversation state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case !c.session.Active():
		return StateNoSession
	case c.sending:
		return StateSending
	default:
		return StateChatting
	}
}

// Session returns a copy of the session identity.
func (c *Controller) Session() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Sending reports whether a message is in flight.
func (c *Controller) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Messages returns a copy of the message log.
func (c *Controller) Messages() []domain.Message {
	return c.messages.Messages()
}

func (c *Controller) emit(msg domain.Message) {
	c.messages.Append(msg)
	c.renderer.DisplayMessage(msg)
}

func (c *Controller) logMessage(username, sessionID, direction, eventType string, msg domain.Message) {
	meta := map[string]any{"sender": msg.Sender.String()}
	if msg.Intent != "" {
		meta["intent"] = msg.Intent
	}
	if msg.Confidence != nil {
		meta["confidence"] = *msg.Confidence
	}
	c.convLog.Log(ConversationLogEvent{
		Timestamp:  msg.Timestamp.UTC().Format(time.RFC3339Nano),
		Username:   username,
		SessionID:  sessionID,
		Channel:    "chat_http",
		Direction:  direction,
		EventType:  eventType,
		ContentRaw: msg.Text,
		Meta:       meta,
	})
}
