// Package domain contains core domain types for the chat client.
package domain

import (
	"sync"
	"time"
)

// Sender identifies who authored a message.
type Sender int

const (
	// SenderUser marks a message typed by the local user.
	SenderUser Sender = iota
	// SenderBot marks a message produced by the chat API or the client itself.
	SenderBot
)

// String returns the export label for the sender.
func (s Sender) String() string {
	switch s {
	case SenderUser:
		return "user"
	case SenderBot:
		return "bot"
	default:
		return "unknown"
	}
}

// Reserved intent labels.
const (
	IntentGreeting = "GREETING"
	IntentError    = "ERROR"
)

// Message is a single entry in the conversation log.
type Message struct {
	Sender     Sender
	Text       string
	Intent     string
	Confidence *float64
	Timestamp  time.Time
}

// HasIntentBadge reports whether the intent should be shown next to the text.
// The ERROR marker is internal and never displayed.
func (m Message) HasIntentBadge() bool {
	return m.Intent != "" && m.Intent != IntentError
}

// Log is an append-only, insertion-ordered message sequence.
// Entries are never removed individually; Clear drops all of them.
type Log struct {
	mu       sync.RWMutex
	messages []Message
}

// Append adds a message to the end of the log.
func (l *Log) Append(m Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, m)
}

// Messages returns a copy of the log in insertion order.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Clear discards every message.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
}
