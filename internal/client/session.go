package client

import "sync"

// Session holds the bearer token of the signed-in user. The zero value is a
// signed-out session.
type Session struct {
	mu    sync.RWMutex
	token string
}

func NewSession() *Session {
	return &Session{}
}

// Begin stores the token returned by a successful login.
func (s *Session) Begin(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// End forgets the token. The client calls it when the server answers 401.
func (s *Session) End() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Active() bool {
	return s.Token() != ""
}
