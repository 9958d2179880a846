package tariff

import "errors"

var (
	// ErrEmptyDistributor is returned when a query has no distributor.
	ErrEmptyDistributor = errors.New("tariff: empty distributor")
	// ErrInvalidGroup is returned for an unknown tariff group.
	ErrInvalidGroup = errors.New("tariff: invalid group")
	// ErrInvalidValidity is returned when a rate card window is empty or inverted.
	ErrInvalidValidity = errors.New("tariff: invalid validity window")
	// ErrNegativeRate is returned when a rate card carries a negative rate.
	ErrNegativeRate = errors.New("tariff: negative rate")
)
