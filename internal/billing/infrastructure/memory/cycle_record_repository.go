package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	billing "gd-invoice/internal/billing/domain"
)

// CycleRecordRepository is an in-memory cycle record store.
type CycleRecordRepository struct {
	mu      sync.RWMutex
	records map[string]billing.CycleRecord
}

// NewCycleRecordRepository constructs an empty repository.
func NewCycleRecordRepository() *CycleRecordRepository {
	return &CycleRecordRepository{records: make(map[string]billing.CycleRecord)}
}

// Save stores a copy of the record.
func (r *CycleRecordRepository) Save(ctx context.Context, record *billing.CycleRecord) error {
	_ = ctx
	if record == nil {
		return errors.New("cycle record repo: nil record")
	}
	r.mu.Lock()
	r.records[record.ID] = cloneRecord(*record)
	r.mu.Unlock()
	return nil
}

// Get returns the record or nil.
func (r *CycleRecordRepository) Get(ctx context.Context, id string) (*billing.CycleRecord, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	out := cloneRecord(record)
	return &out, nil
}

// NextVersion returns the next version for a unit and month.
func (r *CycleRecordRepository) NextVersion(ctx context.Context, unitID string, month time.Time) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	latest := 0
	for _, record := range r.records {
		if record.UnitID == unitID && sameMonth(record.ReferenceMonth, month) && record.Version > latest {
			latest = record.Version
		}
	}
	return latest + 1, nil
}

// ListByUnit lists records of a unit by month and version.
func (r *CycleRecordRepository) ListByUnit(ctx context.Context, unitID string) ([]billing.CycleRecord, error) {
	_ = ctx
	r.mu.RLock()
	var out []billing.CycleRecord
	for _, record := range r.records {
		if record.UnitID == unitID {
			out = append(out, cloneRecord(record))
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReferenceMonth.Equal(out[j].ReferenceMonth) {
			return out[i].ReferenceMonth.Before(out[j].ReferenceMonth)
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func cloneRecord(record billing.CycleRecord) billing.CycleRecord {
	record.Alerts = append([]billing.Alert(nil), record.Alerts...)
	return record
}
