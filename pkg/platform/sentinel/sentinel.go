// Package sentinel holds store-level error facts. Stores return them,
// possibly wrapped, and services translate them into domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound: no row for the key.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a uniqueness or optimistic version check rejected the write.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable: the backend could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
