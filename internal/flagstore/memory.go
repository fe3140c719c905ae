package flagstore

import (
	"context"
	"sync"
)

// MemoryStore keeps flags for the lifetime of the process. It backs session
// scope when no Redis is configured.
type MemoryStore struct {
	namespace

	mu   sync.RWMutex
	vals map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vals: map[string]string{}}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vals[s.current()+"/"+key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[s.current()+"/"+key] = value
	return nil
}
