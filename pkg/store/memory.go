package store

import (
	"context"
	"sync"
)

// MemoryStore keeps diagrams in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	diagrams map[string]Diagram
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{diagrams: make(map[string]Diagram)}
}

func (s *MemoryStore) Put(ctx context.Context, d *Diagram) error {
	if err := ValidateID(d.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagrams[d.ID] = *d
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Diagram, error) {
	s.mu.RLock()
	d, ok := s.diagrams[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if d.IsExpired() {
		_ = s.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.diagrams, id)
	return nil
}

// Cleanup removes expired diagrams.
func (s *MemoryStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, d := range s.diagrams {
		if d.IsExpired() {
			delete(s.diagrams, id)
		}
	}
	return nil
}

// Len returns the number of stored diagrams, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.diagrams)
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
