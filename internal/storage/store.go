// Package storage provides abstractions for hosting many concurrent ledger
// sessions.
package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/platesplit/platesplit/internal/ledger"
)

// ErrSessionNotFound is returned when a session ID does not resolve.
var ErrSessionNotFound = errors.New("session not found")

// Session is one hosted dining session: a ledger engine plus bookkeeping.
// The engine itself is single-writer; callers must hold the session lock
// across every command or query so each mutation is atomic.
type Session struct {
	ID         string
	Ledger     *ledger.Engine
	CreatedAt  time.Time
	LastActive time.Time

	mu sync.Mutex
}

// Lock acquires the session's mutation lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's mutation lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records activity so idle sweeping spares the session. Callers must
// hold the session lock.
func (s *Session) Touch() { s.LastActive = time.Now() }

// Store defines the interface for session storage. This abstraction keeps
// the service layer independent of the backend; the shipped implementation
// is in-memory (persistence across sessions is deliberately out of scope),
// but a durable backend could be swapped in without touching callers.
type Store interface {
	// CreateSession registers a new session. The session's ID, CreatedAt,
	// and LastActive fields will be populated by the store.
	CreateSession(ctx context.Context, session *Session) error

	// GetSession resolves a session by ID.
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// DeleteSession removes a session. Deleting an unknown ID is a no-op.
	DeleteSession(ctx context.Context, sessionID string) error

	// PurgeIdle removes sessions with no activity since the cutoff and
	// returns how many were removed.
	PurgeIdle(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
