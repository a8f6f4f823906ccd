package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ashureev/shsh-chat/internal/domain"
	"github.com/ashureev/shsh-chat/internal/identity"
)

type fakeResult struct {
	reply *Reply
	err   error
}

// fakeTransport returns scripted results in order. When gate is set, Send
// blocks until the gate is closed.
type fakeTransport struct {
	mu         sync.Mutex
	results    []fakeResult
	requests   []Request
	requestIDs []string

	gate    chan struct{}
	entered chan struct{}
	panics  bool

	healthErr  error
	healthGate chan struct{}
}

func (f *fakeTransport) Send(ctx context.Context, req Request) (*Reply, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.requestIDs = append(f.requestIDs, identity.RequestIDFromContext(ctx))
	var res fakeResult
	if len(f.results) > 0 {
		res = f.results[0]
		f.results = f.results[1:]
	} else {
		res = fakeResult{err: errors.New("no scripted result")}
	}
	gate, entered, panics := f.gate, f.entered, f.panics
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if panics {
		panic("transport exploded")
	}
	return res.reply, res.err
}

func (f *fakeTransport) Health(ctx context.Context) error {
	if f.healthGate != nil {
		select {
		case <-f.healthGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.healthErr
}

func (f *fakeTransport) RequestIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requestIDs...)
}

func (f *fakeTransport) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.requests))
	copy(out, f.requests)
	return out
}

type recordingRenderer struct {
	mu       sync.Mutex
	messages []domain.Message
	typing   []bool
	notices  []string
	prompts  []string
	confirm  bool
	focus    int
	saved    map[string][]byte
	saveErr  error
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{saved: make(map[string][]byte)}
}

func (r *recordingRenderer) DisplayMessage(msg domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingRenderer) SetTyping(typing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typing = append(r.typing, typing)
}

func (r *recordingRenderer) ShowTransientError(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, text)
}

func (r *recordingRenderer) RequestConfirmation(prompt string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
	return r.confirm
}

func (r *recordingRenderer) SaveExport(data []byte, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved[name] = data
	return nil
}

func (r *recordingRenderer) Focus() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focus++
}

func (r *recordingRenderer) Notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notices...)
}

func (r *recordingRenderer) Typing() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.typing...)
}

func (r *recordingRenderer) Displayed() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Message(nil), r.messages...)
}

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func ok(response, sessionID, intent string) fakeResult {
	return fakeResult{reply: &Reply{Response: response, SessionID: sessionID, Intent: intent}}
}
