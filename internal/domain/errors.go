package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for missing or malformed input, before any state is read
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an entity id is unknown
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a precondition no longer holds at commit time
	ErrConflict = errors.New("conflict")

	// ErrForbidden is returned when the actor is not authorized for this entity
	ErrForbidden = errors.New("forbidden")
)

var (
	// ErrAlreadyRejected is returned on a duplicate rejection of the same job by the same worker
	ErrAlreadyRejected = fmt.Errorf("%w: job already rejected by this worker", ErrConflict)

	// ErrDuplicateDispute is returned when a pending dispute already exists for the job
	ErrDuplicateDispute = fmt.Errorf("%w: pending dispute already exists for this job", ErrConflict)
)

// Validationf builds an ErrValidation with a formatted reason.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Forbiddenf builds an ErrForbidden with a formatted reason.
func Forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Conflictf builds an ErrConflict with a formatted reason.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
