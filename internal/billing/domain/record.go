package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	regulatory "gd-invoice/internal/regulatory/domain"
)

var (
	// ErrEmptyUnitID is returned when closing a cycle without a consumer unit.
	ErrEmptyUnitID = errors.New("billing: empty unit id")
	// ErrInvalidReferenceMonth is returned when closing a cycle without a reference month.
	ErrInvalidReferenceMonth = errors.New("billing: invalid reference month")
	// ErrEmptyActor is returned when closing a cycle without a confirming user.
	ErrEmptyActor = errors.New("billing: empty closing actor")
)

// CycleRecord is the persisted outcome of a closed billing cycle. Closing the same
// unit and month again creates a new version.
type CycleRecord struct {
	ID               string                          `json:"id"`
	UnitID           string                          `json:"unit_id"`
	ReferenceMonth   time.Time                       `json:"reference_month"`
	Version          int                             `json:"version"`
	TariffsAvailable bool                            `json:"tariffs_available"`
	Classification   regulatory.ClassificationResult `json:"classification"`
	Components       InvoiceComponents               `json:"components"`
	Balance          BalanceResult                   `json:"balance"`
	Alerts           []Alert                         `json:"alerts"`
	Validation       Validation                      `json:"validation"`
	SnapshotHash     string                          `json:"snapshot_hash"`
	ClosedBy         string                          `json:"closed_by"`
	ClosedAt         time.Time                       `json:"closed_at"`
}

// NewCycleRecord builds the record of a computed cycle.
func NewCycleRecord(in CycleInput, res Result, version int, closedBy string, closedAt time.Time) (*CycleRecord, error) {
	if in.UnitID == "" {
		return nil, ErrEmptyUnitID
	}
	if in.ReferenceMonth.IsZero() {
		return nil, ErrInvalidReferenceMonth
	}
	if closedBy == "" {
		return nil, ErrEmptyActor
	}
	if version < 1 {
		version = 1
	}
	month := time.Date(in.ReferenceMonth.Year(), in.ReferenceMonth.Month(), 1, 0, 0, 0, 0, time.UTC)
	rec := &CycleRecord{
		ID:               uuid.NewString(),
		UnitID:           in.UnitID,
		ReferenceMonth:   month,
		Version:          version,
		TariffsAvailable: res.TariffsAvailable,
		Classification:   res.Classification,
		Components:       res.Components,
		Balance:          res.Balance,
		Alerts:           append([]Alert(nil), res.Alerts...),
		Validation:       res.Validation,
		ClosedBy:         closedBy,
		ClosedAt:         closedAt.UTC(),
	}
	hash, err := rec.Snapshot()
	if err != nil {
		return nil, err
	}
	rec.SnapshotHash = hash
	return rec, nil
}

// Snapshot hashes the figures of the record.
func (r *CycleRecord) Snapshot() (string, error) {
	payload := struct {
		UnitID         string                          `json:"unit_id"`
		ReferenceMonth string                          `json:"reference_month"`
		Classification regulatory.ClassificationResult `json:"classification"`
		Components     InvoiceComponents               `json:"components"`
		Balance        BalanceResult                   `json:"balance"`
		Validation     Validation                      `json:"validation"`
	}{
		UnitID:         r.UnitID,
		ReferenceMonth: r.ReferenceMonth.Format("2006-01"),
		Classification: r.Classification,
		Components:     r.Components,
		Balance:        r.Balance,
		Validation:     r.Validation,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Repository persists cycle records. Lookups return nil, nil when nothing matches.
type Repository interface {
	Save(ctx context.Context, record *CycleRecord) error
	Get(ctx context.Context, id string) (*CycleRecord, error)
	NextVersion(ctx context.Context, unitID string, month time.Time) (int, error)
	ListByUnit(ctx context.Context, unitID string) ([]CycleRecord, error)
}
