package core

import "errors"

// Common errors.
var (
	// ErrInvalidRecord is returned when an input misses the dedup key fields.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrDuplicateKey is returned when a replace would give two records the same dedup key.
	ErrDuplicateKey = errors.New("a record with this customer and package already exists")

	// ErrConflict is returned by Versioned providers on a stale write, and by the Store
	// once its retries are exhausted.
	ErrConflict = errors.New("slot was modified concurrently")

	// ErrReadOnly is returned by providers opened in read-only mode.
	ErrReadOnly = errors.New("storage is in read-only mode")
)
