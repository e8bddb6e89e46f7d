package files

import (
	"context"
	"fmt"
	"sync"

	"docverify/pkg/platform/sentinel"
)

// InMemoryStore keeps files in a map; used in tests and when no storage is
// configured.
type InMemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{files: make(map[string][]byte)}
}

func (s *InMemoryStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.files[key]; exists {
		return fmt.Errorf("file %s: %w", key, sentinel.ErrConflict)
	}
	s.files[key] = append([]byte(nil), data...)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[key]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", key, sentinel.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}

// Overwrite replaces a file's bytes in place, bypassing the write-once rule.
func (s *InMemoryStore) Overwrite(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = append([]byte(nil), data...)
}

// Keys returns every stored key.
func (s *InMemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.files))
	for k := range s.files {
		keys = append(keys, k)
	}
	return keys
}
