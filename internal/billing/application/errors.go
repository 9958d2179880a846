package application

import "errors"

var (
	// ErrValidationMismatch blocks closing a cycle whose totals do not reconcile.
	ErrValidationMismatch = errors.New("invoice service: declared total does not match computed total")
	// ErrRecordNotFound is returned when a cycle record does not exist.
	ErrRecordNotFound = errors.New("invoice service: cycle record not found")
)
