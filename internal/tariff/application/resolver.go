package application

import (
	"context"
	"errors"
	"log"

	"gd-invoice/internal/observability/metrics"
	tariff "gd-invoice/internal/tariff/domain"
)

// Resolution is the outcome of a rate card lookup. Available is false when no card
// applies; callers switch to manual entry instead of failing.
type Resolution struct {
	Card      *tariff.RateCard
	Available bool
}

// Resolver resolves the rate card applicable to a cycle.
type Resolver struct {
	source tariff.RateCardSource
	logger *log.Logger
}

// NewResolver constructs a resolver.
func NewResolver(source tariff.RateCardSource, logger *log.Logger) (*Resolver, error) {
	if source == nil {
		return nil, errors.New("rate resolver: nil source")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{source: source, logger: logger}, nil
}

// Resolve looks up the card. It never fails: malformed queries, missing cards and
// source errors all resolve to an unavailable card.
func (r *Resolver) Resolve(ctx context.Context, query tariff.Query) Resolution {
	if err := query.Validate(); err != nil {
		metrics.IncRateCardLookup(metrics.LookupMissing)
		return Resolution{}
	}
	card, err := r.source.Lookup(ctx, query)
	if err != nil {
		metrics.IncRateCardLookup(metrics.LookupSourceError)
		r.logger.Printf("event=rate_card_lookup_failed distributor=%s group=%s modality=%s at=%s error=%v",
			query.Distributor, query.Group, query.Modality, query.At.Format("2006-01-02"), err)
		return Resolution{}
	}
	if card == nil {
		metrics.IncRateCardLookup(metrics.LookupMissing)
		return Resolution{}
	}
	metrics.IncRateCardLookup(metrics.LookupFound)
	return Resolution{Card: card.Clone(), Available: true}
}
