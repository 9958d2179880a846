package application

import "errors"

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("capture: session not found")
