// Package memory provides an in-memory implementation of the storage.Store
// interface. Sessions live only as long as the process; durable storage is
// intentionally not part of this system.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platesplit/platesplit/internal/storage"
)

// Ensure MemoryStore implements storage.Store
var _ storage.Store = (*MemoryStore)(nil)

// MemoryStore implements storage.Store with a mutex-guarded map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*storage.Session
	closed   bool
}

// New creates an empty MemoryStore.
func New() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*storage.Session),
	}
}

// CreateSession registers the session under a freshly generated ID.
func (s *MemoryStore) CreateSession(_ context.Context, session *storage.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.LastActive = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	s.sessions[session.ID] = session
	return nil
}

// GetSession resolves a session by ID.
func (s *MemoryStore) GetSession(_ context.Context, sessionID string) (*storage.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrSessionNotFound, sessionID)
	}
	return session, nil
}

// DeleteSession removes a session; unknown IDs are a no-op.
func (s *MemoryStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// PurgeIdle drops every session whose last activity predates the cutoff.
// LastActive is written under the session lock by request handlers, so each
// session is locked before reading it.
func (s *MemoryStore) PurgeIdle(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, session := range s.sessions {
		session.Lock()
		idle := session.LastActive.Before(cutoff)
		session.Unlock()
		if idle {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged, nil
}

// Close drops all sessions and refuses further creations.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sessions = nil
	return nil
}
