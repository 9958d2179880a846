package tariff

import (
	"context"
	"time"
)

// Query identifies the rate card needed for a cycle.
type Query struct {
	Distributor string
	Group       Group
	Modality    string
	At          time.Time
}

// Validate checks that the query can be looked up.
func (q Query) Validate() error {
	if q.Distributor == "" {
		return ErrEmptyDistributor
	}
	if !q.Group.Valid() {
		return ErrInvalidGroup
	}
	return nil
}

// RateCardSource looks up rate cards. Lookup returns nil, nil when nothing matches.
type RateCardSource interface {
	Lookup(ctx context.Context, query Query) (*RateCard, error)
}
