package relay

import (
	"sync"

	"chat-relay/internal/models"
)

// Session is the server-side state for one live connection. It is created
// exactly once, immediately after the credential check, and destroyed when
// the transport goes away. Room is the only field mutated afterwards, and
// only by join handling.
type Session struct {
	Identity models.Identity
	ConnID   string
	Token    string

	mu   sync.Mutex
	room string
}

// CurrentRoom returns the room this session is joined to, or "" if none.
func (s *Session) CurrentRoom() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *Session) setRoom(room string) {
	s.mu.Lock()
	s.room = room
	s.mu.Unlock()
}

// Registry tracks one session per live connection, keyed by connection ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) Register(connID string, identity models.Identity, token string) *Session {
	s := &Session{
		Identity: identity,
		ConnID:   connID,
		Token:    token,
	}

	r.mu.Lock()
	r.sessions[connID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(connID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[connID]
}

// Destroy removes and returns the session for connID. The second and any
// later call for the same connection returns nil, which is what makes
// disconnect handling exactly-once under races.
func (r *Registry) Destroy(connID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return nil
	}
	delete(r.sessions, connID)
	return s
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
