package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrJobNotFound indicates that the requested job does not exist.
	ErrJobNotFound = fmt.Errorf("%w: job", ErrNotFound)

	// ErrJobExists indicates that a job with the given ID already exists.
	// Returned by Create when the submission path reuses an ID.
	ErrJobExists = fmt.Errorf("%w: job", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
