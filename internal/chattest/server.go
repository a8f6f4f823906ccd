// Package chattest provides a scriptable fake of the chat API for tests.
package chattest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// BasePath is the mount point of the fake API, matching the real backend.
const BasePath = "/api/chat"

// MessageRequest is the decoded body of POST /message.
type MessageRequest struct {
	Message   string  `json:"message"`
	Username  string  `json:"username"`
	SessionID *string `json:"sessionId"`
}

// MessageResponse is the body returned by POST /message.
type MessageResponse struct {
	Response   string   `json:"response"`
	SessionID  string   `json:"sessionId"`
	Intent     string   `json:"intent,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Recorded is one request received by the server.
type Recorded struct {
	Body      MessageRequest
	RawBody   map[string]json.RawMessage
	RequestID string
}

// ReplyFunc decides the status and body for a message request.
// A nil body with a 2xx status writes an empty response.
type ReplyFunc func(req MessageRequest) (status int, body any)

// Server is a fake chat API backed by httptest.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	reply        ReplyFunc
	healthStatus int
	delay        time.Duration
	recorded     []Recorded
	healthHits   int
}

// New starts a fake server that echoes messages and assigns session id
// "sess-1". It is closed when the test finishes.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		reply:        Echo("sess-1"),
		healthStatus: http.StatusOK,
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Route(BasePath, func(r chi.Router) {
		r.Post("/message", s.handleMessage)
		r.Get("/health", s.handleHealth)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the API base URL to configure a client with.
func (s *Server) BaseURL() string {
	return s.URL + BasePath
}

// SetReply replaces the reply function.
func (s *Server) SetReply(fn ReplyFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply = fn
}

// SetHealthStatus sets the status code of GET /health.
func (s *Server) SetHealthStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthStatus = code
}

// SetDelay makes every message request wait before replying.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Requests returns the message requests received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recorded, len(s.recorded))
	copy(out, s.recorded)
	return out
}

// HealthHits returns how many health probes were received.
func (s *Server) HealthHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthHits
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		Error(w, http.StatusBadRequest, "unreadable request body")
		return
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var req MessageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	s.recorded = append(s.recorded, Recorded{
		Body:      req,
		RawBody:   raw,
		RequestID: r.Header.Get("X-Request-ID"),
	})
	reply, delay := s.reply, s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	status, out := reply(req)
	if out == nil {
		w.WriteHeader(status)
		return
	}
	if text, ok := out.(string); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(text))
		return
	}
	JSON(w, status, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.healthHits++
	status := s.healthStatus
	s.mu.Unlock()

	if status >= 200 && status < 300 {
		JSON(w, status, map[string]string{"status": "UP"})
		return
	}
	Error(w, status, "unhealthy")
}

// Echo replies with the message text and the given session id.
func Echo(sessionID string) ReplyFunc {
	return func(req MessageRequest) (int, any) {
		return http.StatusOK, MessageResponse{
			Response:  "You said: " + req.Message,
			SessionID: sessionID,
			Intent:    "ECHO",
		}
	}
}

// Status replies with a bare error status.
func Status(code int) ReplyFunc {
	return func(MessageRequest) (int, any) {
		return code, map[string]string{"error": http.StatusText(code)}
	}
}

// Raw replies with a literal body, for malformed-response tests.
func Raw(code int, body string) ReplyFunc {
	return func(MessageRequest) (int, any) {
		return code, body
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
