// Package domain holds the entities of the flight inventory and the error
// taxonomy shared by repositories, services and handlers. Callers classify
// failures with errors.Is against the sentinels below.
package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when an operation is illegal for the
	// current state of the entity, e.g. booking a cancelled flight or
	// checking in a cancelled booking.
	ErrInvalidState = errors.New("invalid state")

	// ErrSeatsUnavailable is returned when the aircraft capacity for a
	// flight is exhausted.
	ErrSeatsUnavailable = errors.New("no seats available")

	// ErrSeatTaken is returned when the requested seat is already held by
	// an active booking on the same flight.
	ErrSeatTaken = errors.New("seat already taken")

	// ErrConflict signals a booking reference collision. It is retried
	// internally by the booking engine and only surfaces when the retry
	// budget is exhausted.
	ErrConflict = errors.New("conflict")

	// ErrValidation is returned for malformed input: negative prices,
	// empty seat numbers, empty actors.
	ErrValidation = errors.New("validation failed")
)
