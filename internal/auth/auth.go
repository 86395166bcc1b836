// Package auth provides the delegated sign-in boundary.
//
// Credentials are issued and validated by the external OAuth provider;
// this package only holds the opaque identity the provider returned,
// keyed by a session cookie.
package auth

import (
	"sync"

	"github.com/google/uuid"
)

// Identity is the opaque current-user record. The core never inspects
// it beyond display.
type Identity struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"image"`
}

// Sessions is an in-memory session store. Sessions live for the
// process lifetime; restarting the server signs everyone out.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]Identity
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]Identity)}
}

// Create stores an identity and returns its opaque session ID.
func (s *Sessions) Create(id Identity) string {
	sessionID := uuid.NewString()
	s.mu.Lock()
	s.sessions[sessionID] = id
	s.mu.Unlock()
	return sessionID
}

// Get looks up the identity for a session ID.
func (s *Sessions) Get(sessionID string) (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[sessionID]
	return id, ok
}

// Delete removes a session (sign-out).
func (s *Sessions) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Count returns the number of active sessions.
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
