package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a conditional update found the row in a
	// different state than expected. The write did not apply; the caller may
	// re-read and retry.
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrDuplicateRequest is returned when a rider already holds a live
	// booking request on the trip.
	ErrDuplicateRequest = errors.New("rider already has a live request on this trip")
)
