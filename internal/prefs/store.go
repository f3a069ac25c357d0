package prefs

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by a Store when no value exists for the
// client/name pair.
var ErrNotFound = errors.New("preference not found")

// Store is the server-side half of the dual-store preference write. It
// persists name/value pairs per browser client so a preference survives the
// client clearing its cookies.
//
// Implementations:
// - MemoryStore: process-local map for development and tests
// - RedisStore: shared store for production
type Store interface {
	// Set persists the value under the client's name. An existing value is
	// overwritten.
	Set(ctx context.Context, clientID, name, value string) error

	// Get returns the stored value, or ErrNotFound.
	Get(ctx context.Context, clientID, name string) (string, error)

	// Delete removes the value. Deleting a missing value is not an error.
	Delete(ctx context.Context, clientID, name string) error
}

// =============================================================================
// MemoryStore
// =============================================================================

// MemoryStore is an in-memory Store for the development preset and tests.
// Values do not survive a restart; the cookie half of the dual write covers
// persistence in that setup.
type MemoryStore struct {
	mu    sync.RWMutex
	prefs map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory preference store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prefs: make(map[string]map[string]string),
	}
}

func (s *MemoryStore) Set(ctx context.Context, clientID, name, value string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.prefs[clientID]
	if !ok {
		client = make(map[string]string)
		s.prefs[clientID] = client
	}
	client[name] = value
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, clientID, name string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.prefs[clientID][name]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Delete(ctx context.Context, clientID, name string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.prefs[clientID], name)
	return nil
}
