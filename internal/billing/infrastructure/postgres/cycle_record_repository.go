package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	billing "gd-invoice/internal/billing/domain"
	regulatory "gd-invoice/internal/regulatory/domain"
)

const defaultCycleRecordsTable = "cycle_records"

// CycleRecordRepository persists closed cycles.
type CycleRecordRepository struct {
	db    *sql.DB
	table string
}

// Option configures the repository.
type Option func(*CycleRecordRepository)

// WithTable overrides the cycle records table name.
func WithTable(table string) Option {
	return func(r *CycleRecordRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewCycleRecordRepository constructs a repository.
func NewCycleRecordRepository(db *sql.DB, opts ...Option) *CycleRecordRepository {
	r := &CycleRecordRepository{db: db, table: defaultCycleRecordsTable}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save inserts a record. Records are immutable once written.
func (r *CycleRecordRepository) Save(ctx context.Context, record *billing.CycleRecord) error {
	if r == nil || r.db == nil {
		return errors.New("cycle record repo: nil db")
	}
	if record == nil {
		return errors.New("cycle record repo: nil record")
	}
	components, err := json.Marshal(record.Components)
	if err != nil {
		return err
	}
	balance, err := json.Marshal(record.Balance)
	if err != nil {
		return err
	}
	alerts, err := json.Marshal(record.Alerts)
	if err != nil {
		return err
	}
	validation, err := json.Marshal(record.Validation)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`
INSERT INTO %s (
	id, unit_id, reference_month, version, tariffs_available,
	regime, non_compensable_fraction, reference_year,
	components, balance, alerts, validation_status, validation,
	total_amount, snapshot_hash, closed_by, closed_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17
)`, r.table)
	_, err = r.db.ExecContext(ctx, stmt,
		record.ID, record.UnitID, record.ReferenceMonth, record.Version, record.TariffsAvailable,
		string(record.Classification.Regime), record.Classification.NonCompensableFraction, record.Classification.ReferenceYear,
		components, balance, alerts, string(record.Validation.Status), validation,
		record.Components.Total, record.SnapshotHash, record.ClosedBy, record.ClosedAt,
	)
	return err
}

// Get fetches a record by id.
func (r *CycleRecordRepository) Get(ctx context.Context, id string) (*billing.CycleRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("cycle record repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, selectColumns, r.table), id)
	return scanRecord(row)
}

// NextVersion returns the next version for a unit and month.
func (r *CycleRecordRepository) NextVersion(ctx context.Context, unitID string, month time.Time) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("cycle record repo: nil db")
	}
	var maxVersion sql.NullInt64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT MAX(version)
FROM %s
WHERE unit_id = $1 AND reference_month = $2`, r.table), unitID, monthStart(month)).Scan(&maxVersion)
	if err != nil {
		return 0, err
	}
	if !maxVersion.Valid {
		return 1, nil
	}
	return int(maxVersion.Int64) + 1, nil
}

// ListByUnit lists records of a unit by month and version.
func (r *CycleRecordRepository) ListByUnit(ctx context.Context, unitID string) ([]billing.CycleRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("cycle record repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT %s
FROM %s
WHERE unit_id = $1
ORDER BY reference_month ASC, version ASC`, selectColumns, r.table), unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []billing.CycleRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if record != nil {
			result = append(result, *record)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

const selectColumns = `id, unit_id, reference_month, version, tariffs_available,
	regime, non_compensable_fraction, reference_year,
	components, balance, alerts, validation,
	snapshot_hash, closed_by, closed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*billing.CycleRecord, error) {
	var (
		record     billing.CycleRecord
		regime     string
		components []byte
		balance    []byte
		alerts     []byte
		validation []byte
	)
	err := row.Scan(
		&record.ID,
		&record.UnitID,
		&record.ReferenceMonth,
		&record.Version,
		&record.TariffsAvailable,
		&regime,
		&record.Classification.NonCompensableFraction,
		&record.Classification.ReferenceYear,
		&components,
		&balance,
		&alerts,
		&validation,
		&record.SnapshotHash,
		&record.ClosedBy,
		&record.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	record.Classification.Regime = regulatory.Regime(regime)
	record.ReferenceMonth = record.ReferenceMonth.UTC()
	record.ClosedAt = record.ClosedAt.UTC()
	for target, data := range map[any][]byte{
		&record.Components: components,
		&record.Balance:    balance,
		&record.Alerts:     alerts,
		&record.Validation: validation,
	} {
		if len(data) == 0 {
			continue
		}
		if err := json.Unmarshal(data, target); err != nil {
			return nil, fmt.Errorf("cycle record repo: decode %s: %w", record.ID, err)
		}
	}
	return &record, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
