package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound signals an unknown or already-ended session id.
var ErrSessionNotFound = errors.New("session not found")

// Session binds one UI instance to its controller. Sessions share nothing:
// each owns a private store, so many can coexist in one process.
type Session struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Controller *Controller
}

// Registry owns the live sessions of this process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  func() *Controller
}

// NewRegistry builds a registry that provisions controllers via factory.
func NewRegistry(factory func() *Controller) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
	}
}

// Create provisions a new session.
func (r *Registry) Create() *Session {
	session := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Controller: r.factory(),
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	return session
}

// Get looks up a session by id.
func (r *Registry) Get(sessionID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete ends a session and discards all of its conversations.
func (r *Registry) Delete(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, sessionID)
	return nil
}

// Len reports how many sessions are live.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
