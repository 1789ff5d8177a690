package auth

import (
	"sync"

	"github.com/google/uuid"
)

// SessionManager maps opaque bearer tokens to usernames. Sessions live in
// memory; a restart signs everyone out.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]string
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]string)}
}

// Issue creates a session for username and returns its token.
func (m *SessionManager) Issue(username string) string {
	token := uuid.NewString()
	m.mu.Lock()
	m.sessions[token] = username
	m.mu.Unlock()
	return token
}

// Resolve returns the username a token belongs to.
func (m *SessionManager) Resolve(token string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	username, ok := m.sessions[token]
	return username, ok
}

// Revoke deletes a session. Unknown tokens are a no-op.
func (m *SessionManager) Revoke(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}
