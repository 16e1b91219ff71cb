package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no session exists for the given id.
	ErrNotFound = errors.New("session not found")
	// ErrExists is returned by Create when the id is already taken.
	ErrExists = errors.New("session already exists")
	// ErrStoreUnavailable wraps backend failures of a store.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrUpdateConflict is returned when an optimistic update kept losing races.
	ErrUpdateConflict = errors.New("session update conflict")
	// ErrCorrupt is returned when a stored session cannot be decoded.
	ErrCorrupt = errors.New("session record corrupt")
)

// Store reads and writes sessions. Implementations must be safe for
// concurrent use and must apply each [Patch] atomically.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, s *Session) error
	// Read returns a copy of the session or ErrNotFound.
	Read(ctx context.Context, id string) (*Session, error)
	// Update applies p atomically and returns the committed session.
	Update(ctx context.Context, id string, p Patch) (*Session, error)
	// Clear removes the session. Clearing a missing session is not an error.
	Clear(ctx context.Context, id string) error
}

// NewID returns a fresh random session identifier.
func NewID() string {
	return uuid.NewString()
}
