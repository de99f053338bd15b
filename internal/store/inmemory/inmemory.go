// Package inmemory provides an in-memory Store implementation used by
// tests and dry runs.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcpdir/ingest-server/internal/registry"
	"github.com/mcpdir/ingest-server/internal/store"
)

// Store is a thread-safe in-memory implementation of store.Store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*registry.ServerEntry
	order   []string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		entries: make(map[string]*registry.ServerEntry),
	}
}

// FindByURL looks up an entry by its unique github URL.
func (s *Store) FindByURL(_ context.Context, githubURL string) (*registry.ServerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[githubURL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, githubURL)
	}

	copied := *entry
	return &copied, nil
}

// Insert persists a new entry, enforcing the unique-key constraint the
// same way the database does.
func (s *Store) Insert(_ context.Context, entry *registry.ServerEntry) error {
	if entry == nil {
		return fmt.Errorf("server entry is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entry.GithubURL]; ok {
		return fmt.Errorf("%w: %s", store.ErrDuplicateEntry, entry.GithubURL)
	}

	copied := *entry
	s.entries[entry.GithubURL] = &copied
	s.order = append(s.order, entry.GithubURL)
	return nil
}

// List returns all stored entries, newest first.
func (s *Store) List(_ context.Context) ([]*registry.ServerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*registry.ServerEntry, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		copied := *s.entries[s.order[i]]
		entries = append(entries, &copied)
	}
	return entries, nil
}

// Ping always succeeds for the in-memory store.
func (*Store) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (*Store) Close() {}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
