package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps values in process memory. Values are stored as JSON so
// callers never share state with the store. Entries never expire.
type MemoryStore[T any] struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{data: make(map[string][]byte)}
}

func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, bool, error) {
	var v T

	s.mu.RLock()
	raw, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return v, false, nil
	}

	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return v, true, nil
}

func (s *MemoryStore[T]) Upsert(_ context.Context, id string, mutate func(*T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v T
	if raw, ok := s.data[id]; ok {
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decoding session %s: %w", id, err)
		}
	}

	if err := mutate(&v); err != nil {
		return err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", id, err)
	}
	s.data[id] = raw
	return nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ Store[Record] = (*MemoryStore[Record])(nil)
