package sessions

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is an in-memory implementation of Repo
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewInMemoryRepo creates a new in-memory session repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]Session),
	}
}

// Upsert creates or replaces a session
func (r *InMemoryRepo) Upsert(_ context.Context, session Session) error {
	if session.ID == "" {
		return fmt.Errorf("[sessions Upsert] sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = session
	return nil
}

// Replace overwrites a session only if it is still stored
func (r *InMemoryRepo) Replace(_ context.Context, session Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return apperrors.ErrSessionNotFound
	}
	r.sessions[session.ID] = session
	return nil
}

// Get retrieves a session by ID
func (r *InMemoryRepo) Get(_ context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, apperrors.ErrSessionNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, apperrors.ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session
func (r *InMemoryRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID) // Already doesn't exist, no error
	return nil
}
