// Package repository keeps the registry of live client sessions.
package repository

import (
	"context"
	"time"

	"github.com/okian/droidpad/internal/domain/session"
)

// Entry is one registered session.
type Entry struct {
	ID       string
	Label    string
	Remote   string
	Slot     int
	Backend  string
	OpenedAt time.Time
	Session  *session.Session
}

// Store provides read/write access to the live sessions.
type Store interface {
	// Add registers e. Returns ErrDuplicate if the id is taken.
	Add(ctx context.Context, e Entry) error

	// Remove unregisters id and returns what was stored.
	// Returns ErrNotFound if the id is unknown.
	Remove(ctx context.Context, id string) (Entry, error)

	// Get returns the session registered under id.
	Get(ctx context.Context, id string) (Entry, error)

	// List returns up to limit sessions, oldest first.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Count returns the number of live sessions.
	Count(ctx context.Context) int
}
