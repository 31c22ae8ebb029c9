package settings

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Service wraps a Store with logging and the Updated event. It is itself a
// Store, so adapters take either.
//
// Updates through a Service are serialized, so Updated handlers see records
// in the order they were stored. The Service must be the only writer of its
// Store.
type Service struct {
	mu      sync.Mutex
	store   Store
	Updated *Updated
}

func NewService(store Store, opts ...ServiceOption) *Service {
	svc := &Service{
		store:   store,
		Updated: NewUpdated(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

func (svc *Service) Get() Settings {
	return svc.store.Get()
}

func (svc *Service) Update(u Update) Settings {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	before := svc.store.Get()
	after := svc.store.Update(u)

	if u.IsEmpty() {
		log.Trace("Settings update carried no recognized field")
		return after
	}

	if before.Theme != after.Theme {
		log.WithFields(log.Fields{"from": before.Theme, "to": after.Theme}).Debug("Theme changed")
	}

	log.WithFields(log.Fields{"settings": after.String()}).Trace("Updated settings")

	svc.Updated.Trigger(UpdatedPayload{Settings: after, Update: u})

	return after
}

// Close drains the Updated handlers. See Updated.Close.
func (svc *Service) Close(ctx context.Context) error {
	return svc.Updated.Close(ctx)
}
