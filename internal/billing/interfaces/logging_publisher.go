package interfaces

import (
	"context"
	"errors"
	"log"

	"gd-invoice/internal/billing/application"
)

// LoggingPublisher logs cycle closed events.
type LoggingPublisher struct {
	logger *log.Logger
}

// NewLoggingPublisher constructs a logging publisher.
func NewLoggingPublisher(logger *log.Logger) *LoggingPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingPublisher{logger: logger}
}

// PublishCycleClosed logs the event.
func (p *LoggingPublisher) PublishCycleClosed(ctx context.Context, event application.CycleClosed) error {
	_ = ctx
	if p == nil {
		return errors.New("cycle publisher: nil publisher")
	}
	p.logger.Printf("cycle closed: unit=%s month=%s version=%d total=%.2f status=%s",
		event.UnitID, event.ReferenceMonth.Format("2006-01"), event.Version, event.Total, event.Status)
	return nil
}
