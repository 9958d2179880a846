package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	tariff "gd-invoice/internal/tariff/domain"
)

const defaultRateCardsTable = "rate_cards"

// RateCardSource resolves rate cards from Postgres.
type RateCardSource struct {
	db    *sql.DB
	table string
}

// Option configures the source.
type Option func(*RateCardSource)

// WithTable overrides the rate cards table name.
func WithTable(table string) Option {
	return func(s *RateCardSource) {
		if table != "" {
			s.table = table
		}
	}
}

// NewRateCardSource constructs a source.
func NewRateCardSource(db *sql.DB, opts ...Option) *RateCardSource {
	s := &RateCardSource{db: db, table: defaultRateCardsTable}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns the latest card covering the query instant, or nil when none matches.
func (s *RateCardSource) Lookup(ctx context.Context, query tariff.Query) (*tariff.RateCard, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("rate card source: nil db")
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if query.At.IsZero() {
		return nil, errors.New("rate card source: invalid timestamp")
	}

	stmt := fmt.Sprintf(`
SELECT id, distributor, tariff_group, modality, valid_from, valid_to,
	energy, network_usage, demand_rate, demand_overage_rate, price_alert,
	pis, cofins, icms
FROM %s
WHERE lower(distributor) = lower($1) AND tariff_group = $2
	AND ($3 = '' OR lower(modality) = lower($3))
	AND valid_from <= $4 AND (valid_to IS NULL OR valid_to > $4)
ORDER BY valid_from DESC
LIMIT 1`, s.table)

	var (
		card         tariff.RateCard
		group        string
		validTo      sql.NullTime
		energy       []byte
		networkUsage []byte
		priceAlert   []byte
	)
	err := s.db.QueryRowContext(ctx, stmt, query.Distributor, string(query.Group), query.Modality, query.At.UTC()).Scan(
		&card.ID,
		&card.Distributor,
		&group,
		&card.Modality,
		&card.ValidFrom,
		&validTo,
		&energy,
		&networkUsage,
		&card.Demand.Rate,
		&card.Demand.OverageRate,
		&priceAlert,
		&card.Taxes.PIS,
		&card.Taxes.COFINS,
		&card.Taxes.ICMS,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	card.Group = tariff.Group(group)
	card.ValidFrom = card.ValidFrom.UTC()
	if validTo.Valid {
		card.ValidTo = validTo.Time.UTC()
	}
	if err := decodeJSON(energy, &card.Energy); err != nil {
		return nil, fmt.Errorf("rate card source: energy: %w", err)
	}
	if err := decodeJSON(networkUsage, &card.NetworkUsage); err != nil {
		return nil, fmt.Errorf("rate card source: network usage: %w", err)
	}
	if err := decodeJSON(priceAlert, &card.PriceAlert); err != nil {
		return nil, fmt.Errorf("rate card source: price alert: %w", err)
	}
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("rate card source: card %s: %w", card.ID, err)
	}
	return &card, nil
}

// Upsert stores a rate card, used by seeding tools and tests.
func (s *RateCardSource) Upsert(ctx context.Context, card tariff.RateCard) error {
	if s == nil || s.db == nil {
		return errors.New("rate card source: nil db")
	}
	if err := card.Validate(); err != nil {
		return err
	}
	energy, err := json.Marshal(card.Energy)
	if err != nil {
		return err
	}
	networkUsage, err := json.Marshal(card.NetworkUsage)
	if err != nil {
		return err
	}
	priceAlert, err := json.Marshal(card.PriceAlert)
	if err != nil {
		return err
	}
	var validTo *time.Time
	if !card.ValidTo.IsZero() {
		t := card.ValidTo.UTC()
		validTo = &t
	}

	stmt := fmt.Sprintf(`
INSERT INTO %s (
	id, distributor, tariff_group, modality, valid_from, valid_to,
	energy, network_usage, demand_rate, demand_overage_rate, price_alert,
	pis, cofins, icms
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (id) DO UPDATE SET
	distributor = EXCLUDED.distributor,
	tariff_group = EXCLUDED.tariff_group,
	modality = EXCLUDED.modality,
	valid_from = EXCLUDED.valid_from,
	valid_to = EXCLUDED.valid_to,
	energy = EXCLUDED.energy,
	network_usage = EXCLUDED.network_usage,
	demand_rate = EXCLUDED.demand_rate,
	demand_overage_rate = EXCLUDED.demand_overage_rate,
	price_alert = EXCLUDED.price_alert,
	pis = EXCLUDED.pis,
	cofins = EXCLUDED.cofins,
	icms = EXCLUDED.icms`, s.table)

	_, err = s.db.ExecContext(ctx, stmt,
		card.ID, card.Distributor, string(card.Group), card.Modality, card.ValidFrom.UTC(), validTo,
		energy, networkUsage, card.Demand.Rate, card.Demand.OverageRate, priceAlert,
		card.Taxes.PIS, card.Taxes.COFINS, card.Taxes.ICMS,
	)
	return err
}

func decodeJSON(data []byte, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
