package session

import "errors"

var (
	// ErrNotFound is returned by a Store that holds no snapshot yet.
	ErrNotFound = errors.New("session: snapshot not found")

	// ErrInvalidSnapshot is returned when a persisted snapshot fails validation.
	// The manager falls back to the signed-out state.
	ErrInvalidSnapshot = errors.New("session: invalid snapshot")
)
