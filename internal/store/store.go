// Package store defines the datastore contract for canonical server
// entries, keyed uniquely by repository URL.
package store

import (
	"context"
	"errors"

	"github.com/mcpdir/ingest-server/internal/registry"
)

// ErrNotFound is returned by FindByURL when no entry exists for the key.
var ErrNotFound = errors.New("server entry not found")

// ErrDuplicateEntry is returned by Insert when an entry with the same
// github URL already exists. Callers treat it as a skip, never a failure:
// the unique-key constraint is the authority for deduplication and the
// pre-check lookup is only an optimization.
var ErrDuplicateEntry = errors.New("server entry already exists")

// Store is the datastore interface for server entries.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store
type Store interface {
	// FindByURL looks up an entry by its unique github URL.
	FindByURL(ctx context.Context, githubURL string) (*registry.ServerEntry, error)

	// Insert persists a new entry. A unique-key conflict yields
	// ErrDuplicateEntry.
	Insert(ctx context.Context, entry *registry.ServerEntry) error

	// List returns all stored entries, newest first.
	List(ctx context.Context) ([]*registry.ServerEntry, error)

	// Ping verifies the datastore is reachable.
	Ping(ctx context.Context) error

	// Close releases datastore resources.
	Close()
}
