package settings

import (
	"sync"
	"time"
)

// Store holds the current settings record. Both the REST and the GraphQL
// adapters depend only on this interface.
type Store interface {
	Get() Settings
	Update(Update) Settings
}

// MemoryStore keeps the record in process memory. Update takes the write lock,
// Get the read lock, and both return copies.
type MemoryStore struct {
	mu       sync.RWMutex
	settings Settings
	now      func() time.Time
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		settings: Defaults(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *MemoryStore) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.clone()
}

func (s *MemoryStore) Update(u Update) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings.Apply(u) {
		t := s.now()
		s.settings.LastUpdated = &t
	}

	return s.settings.clone()
}
