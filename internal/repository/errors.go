package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrVersionConflict is returned when an optimistic-concurrency check
	// fails: the row changed since the caller read it.
	ErrVersionConflict = errors.New("version conflict")

	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("duplicate entity")
)
