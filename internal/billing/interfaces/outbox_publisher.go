package interfaces

import (
	"context"
	"log"

	"gd-invoice/internal/billing/application"
	"gd-invoice/internal/eventing"
)

// OutboxPublisher writes cycle closed events to the outbox.
type OutboxPublisher struct {
	publisher *eventing.Publisher
}

// NewOutboxPublisher constructs an outbox publisher.
func NewOutboxPublisher(publisher *eventing.Publisher) *OutboxPublisher {
	return &OutboxPublisher{publisher: publisher}
}

// PublishCycleClosed writes the event to the outbox.
func (p *OutboxPublisher) PublishCycleClosed(ctx context.Context, event application.CycleClosed) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	return p.publisher.Publish(ctx, event)
}

// CycleClosedLogHandler logs dispatched cycle closed events through the logging publisher.
func CycleClosedLogHandler(logger *log.Logger) eventing.Handler {
	logging := NewLoggingPublisher(logger)
	return func(ctx context.Context, env eventing.Envelope) error {
		var event application.CycleClosed
		if err := env.Decode(&event); err != nil {
			return err
		}
		return logging.PublishCycleClosed(ctx, event)
	}
}
