package domain

// Session holds the identity of one conversation.
type Session struct {
	Username  string
	SessionID string
}

// Active returns true once a username has been set.
func (s *Session) Active() bool {
	return s.Username != ""
}

// HasSessionID returns true once the server has assigned an id.
func (s *Session) HasSessionID() bool {
	return s.SessionID != ""
}

// AdoptSessionID stores id if no id has been assigned yet.
// The first non-empty id wins; later ids are ignored.
// Returns true if id was adopted.
func (s *Session) AdoptSessionID(id string) bool {
	if s.SessionID != "" || id == "" {
		return false
	}
	s.SessionID = id
	return true
}
