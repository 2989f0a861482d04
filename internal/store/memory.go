package store

import (
	"context"
	"sync"
)

// MemoryStore is a concurrency-safe in-memory Store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: cache key, value: last saved entry
	data map[string]Entry

	// maxEntries bounds the number of keys; <= 0 means unlimited.
	maxEntries int
	order      []string
}

// NewMemoryStore creates a new MemoryStore. When maxEntries is reached the
// oldest key is evicted.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]Entry),
		maxEntries: maxEntries,
	}
}

// Save replaces the entry under key.
func (s *MemoryStore) Save(_ context.Context, key string, e Entry) error {
	value := make([]byte, len(e.Value))
	copy(value, e.Value)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		s.order = append(s.order, key)
	}
	s.data[key] = Entry{Value: value, CapturedAt: e.CapturedAt}

	// Enforce retention by count.
	if s.maxEntries > 0 && len(s.order) > s.maxEntries {
		over := len(s.order) - s.maxEntries
		for _, k := range s.order[:over] {
			delete(s.data, k)
		}
		s.order = s.order[over:]
	}
	return nil
}

// Load returns the entry under key.
func (s *MemoryStore) Load(_ context.Context, key string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
