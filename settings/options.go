package settings

import (
	"time"
)

type StoreOption func(*MemoryStore)

// WithClock replaces time.Now as the source of lastUpdated.
func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// WithInitial starts the store from the given record instead of the defaults.
func WithInitial(initial Settings) StoreOption {
	return func(s *MemoryStore) {
		s.settings = initial.clone()
	}
}

type ServiceOption func(*Service)

// WithUpdatedHandlers registers handlers for the service's Updated event.
func WithUpdatedHandlers(handlers ...UpdatedHandler) ServiceOption {
	return func(svc *Service) {
		for _, h := range handlers {
			svc.Updated.Register(h)
		}
	}
}
