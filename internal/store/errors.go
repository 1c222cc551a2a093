package store

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrConflict means a version-checked write lost a race. Callers
	// reload the row and recompute before retrying.
	ErrConflict = errors.New("version conflict")
)
