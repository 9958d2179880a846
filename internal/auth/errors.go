package auth

import "errors"

var (
	// ErrEmptyToken is returned when the request carries no bearer token.
	ErrEmptyToken = errors.New("auth: empty token")
	// ErrEmptySecret is returned when the signing secret is not configured.
	ErrEmptySecret = errors.New("auth: empty secret")
	// ErrInvalidToken is returned for tokens that fail signature or claim checks.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrInvalidRole is returned when the role claim is unknown.
	ErrInvalidRole = errors.New("auth: invalid role")
)
