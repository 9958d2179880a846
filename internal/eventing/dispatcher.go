package eventing

import (
	"context"
	"log"
	"sync"
	"time"
)

// Handler consumes a dispatched envelope.
type Handler func(ctx context.Context, env Envelope) error

// OutboxStore provides access to outbox records.
type OutboxStore interface {
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// OutboxRecord represents a pending outbox entry.
type OutboxRecord struct {
	ID       string
	Envelope Envelope
}

// Dispatcher delivers pending outbox records to the handlers of their event type.
type Dispatcher struct {
	outbox OutboxStore
	logger *log.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(outbox OutboxStore, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{outbox: outbox, logger: logger, handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for an event type.
func (d *Dispatcher) Subscribe(eventType string, handler Handler) {
	d.mu.Lock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
	d.mu.Unlock()
}

// Dispatch pulls pending outbox records and delivers them. A record whose handler
// fails is marked failed and not retried.
func (d *Dispatcher) Dispatch(ctx context.Context, limit int) error {
	if d == nil || d.outbox == nil {
		return nil
	}
	if limit <= 0 {
		limit = 50
	}
	records, err := d.outbox.ListPending(ctx, limit)
	if err != nil {
		return err
	}

	for _, record := range records {
		env := record.Envelope
		d.mu.RLock()
		handlers := d.handlers[env.EventType]
		d.mu.RUnlock()

		failed := false
		for _, handler := range handlers {
			if err := handler(WithEnvelope(ctx, env), env); err != nil {
				d.logger.Printf("event=outbox_dispatch_failed event_id=%s type=%s error=%v", env.EventID, env.EventType, err)
				failed = true
				break
			}
		}
		if failed {
			_ = d.outbox.MarkFailed(ctx, record.ID)
			continue
		}
		_ = d.outbox.MarkSent(ctx, record.ID)
	}
	return nil
}

// Run drains the outbox every interval until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Dispatch(ctx, 0); err != nil {
				d.logger.Printf("event=outbox_poll_failed error=%v", err)
			}
		}
	}
}
