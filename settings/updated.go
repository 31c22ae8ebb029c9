package settings

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// updatedQueueSize is how many payloads a handler may lag behind before
// Trigger blocks.
const updatedQueueSize = 64

type UpdatedPayload struct {
	Settings Settings
	Update   Update
}

type UpdatedHandler interface {
	Handle(context.Context, UpdatedPayload)
}

// UpdatedHandlerFunc adapts a plain function to UpdatedHandler.
type UpdatedHandlerFunc func(context.Context, UpdatedPayload)

func (f UpdatedHandlerFunc) Handle(ctx context.Context, p UpdatedPayload) {
	f(ctx, p)
}

// Updated is the event fired after an update carrying a recognized field.
// Every handler gets its own worker goroutine and sees payloads in the order
// they were triggered.
type Updated struct {
	mu      sync.RWMutex
	workers []*updatedWorker
	closed  bool

	// ctx is handed to handlers and cancelled when Close runs out of time.
	ctx    context.Context
	cancel context.CancelFunc

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type updatedWorker struct {
	handler UpdatedHandler
	queue   chan UpdatedPayload
}

func NewUpdated() *Updated {
	ctx, cancel := context.WithCancel(context.Background())
	return &Updated{
		ctx:    ctx,
		cancel: cancel,
		stop:   make(chan struct{}),
	}
}

// Register adds an event handler for this event
func (e *Updated) Register(handler UpdatedHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		log.Warn("Settings Updated event is closed, handler not registered")
		return
	}

	log.Debug("Registering settings Updated event handler")

	w := &updatedWorker{
		handler: handler,
		queue:   make(chan UpdatedPayload, updatedQueueSize),
	}
	e.workers = append(e.workers, w)

	e.wg.Add(1)
	go e.run(w)
}

func (e *Updated) run(w *updatedWorker) {
	defer e.wg.Done()
	for p := range w.queue {
		w.handler.Handle(e.ctx, p)
	}
}

// Trigger queues the payload for every handler. It blocks while a handler's
// queue is full and returns without queueing once Close has been called.
func (e *Updated) Trigger(payload UpdatedPayload) {
	log.
		WithFields(log.Fields{"fields": payload.Update.Fields()}).
		Trace("Handling settings Updated event")

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return
	}

	for _, w := range e.workers {
		select {
		case w.queue <- payload:
		case <-e.stop:
			return
		}
	}
}

// Close stops accepting payloads and waits for the handlers to work through
// what is already queued. If ctx is done first the handlers' context is
// cancelled, Close still waits for them to return, and ctx.Err() is returned.
func (e *Updated) Close(ctx context.Context) error {
	// Unblock any Trigger waiting on a full queue so the write lock can be taken
	e.stopOnce.Do(func() { close(e.stop) })

	e.mu.Lock()
	if !e.closed {
		e.closed = true
		for _, w := range e.workers {
			close(w.queue)
		}
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.cancel()
		return nil
	case <-ctx.Done():
		log.Warn("Timed out draining settings Updated handlers, cancelling")
		e.cancel()
		<-done
		return ctx.Err()
	}
}
