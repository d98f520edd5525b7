package session

import (
	"context"
	"slices"
	"sync"
)

// Store persists one named session snapshot as opaque bytes.
// Implementations do not interpret the payload; validation happens on load in the Manager.
type Store interface {
	// Load returns ErrNotFound when nothing has been saved yet.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
}

// MemoryStore keeps the snapshot in process memory. Useful for tests and ephemeral runs.
type MemoryStore struct {
	mu      sync.Mutex
	payload []byte
	saves   int
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payload == nil {
		return nil, ErrNotFound
	}
	return slices.Clone(s.payload), nil
}

func (s *MemoryStore) Save(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = slices.Clone(payload)
	s.saves++
	return nil
}

// Saves reports how many snapshots were written.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
