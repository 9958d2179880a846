package billing

import "errors"

var (
	// ErrNegativeQuantity is returned when an input quantity is negative or not finite.
	ErrNegativeQuantity = errors.New("billing: negative or non-finite quantity")
	// ErrUnknownPeriod is returned when an input references an unknown time-of-use period.
	ErrUnknownPeriod = errors.New("billing: unknown period")
	// ErrUnknownAlertColor is returned for an unknown price-alert color.
	ErrUnknownAlertColor = errors.New("billing: unknown price-alert color")
	// ErrInvalidGroup is returned for an unknown tariff group.
	ErrInvalidGroup = errors.New("billing: invalid tariff group")
)
