package memory

import (
	"context"
	"sync"

	"gd-invoice/internal/eventing"
)

// Outbox statuses.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

type outboxEntry struct {
	record eventing.OutboxRecord
	status string
}

// OutboxStore keeps outbox records in memory, in insertion order.
type OutboxStore struct {
	mu      sync.Mutex
	entries []*outboxEntry
}

// NewOutboxStore constructs an empty store.
func NewOutboxStore() *OutboxStore {
	return &OutboxStore{}
}

// Insert appends a pending record.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	_ = ctx
	id := eventing.NewEventID()
	s.mu.Lock()
	s.entries = append(s.entries, &outboxEntry{record: eventing.OutboxRecord{ID: id, Envelope: env}, status: StatusPending})
	s.mu.Unlock()
	return id, nil
}

// ListPending returns up to limit pending records, oldest first.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []eventing.OutboxRecord
	for _, entry := range s.entries {
		if entry.status != StatusPending {
			continue
		}
		out = append(out, entry.record)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkSent marks a record as sent.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	s.mark(id, StatusSent)
	return nil
}

// MarkFailed marks a record as failed.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string) error {
	s.mark(id, StatusFailed)
	return nil
}

// Status returns the status of a record, or "" when unknown.
func (s *OutboxStore) Status(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.record.ID == id {
			return entry.status
		}
	}
	return ""
}

func (s *OutboxStore) mark(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.record.ID == id {
			entry.status = status
			return
		}
	}
}
