package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTripID is returned when the trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidRiderID is returned when the rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidRequestID is returned when the request ID is empty.
	ErrInvalidRequestID = errors.New("invalid request id")

	// ErrInvalidDriverID is returned when the driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidSeatCount is returned when requested or total seats are below one.
	ErrInvalidSeatCount = errors.New("seat count must be at least 1")

	// ErrInvalidCoordinates is returned when coordinates are out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrDepartureNotInFuture is returned when publishing a trip that departs in the past.
	ErrDepartureNotInFuture = errors.New("departure must be in the future")

	// ErrInvalidStateTransition is returned when an operation is attempted
	// from a request state that does not permit it.
	ErrInvalidStateTransition = errors.New("invalid request state transition")

	// ErrTripNotBookable is returned when the trip's status no longer
	// permits boarding (cancelled, completed, in progress, or on hold).
	ErrTripNotBookable = errors.New("trip is not accepting bookings")

	// ErrDuplicateActiveRequest is returned when the rider already holds a
	// live request on the trip.
	ErrDuplicateActiveRequest = errors.New("rider already has an active request on this trip")

	// ErrConcurrentModification is returned when the seat-inventory
	// compare-and-swap kept conflicting after the bounded internal retries.
	// The condition is transient; callers may retry the operation.
	ErrConcurrentModification = errors.New("concurrent modification, retry")
)

// CapacityExceededError is returned when accepting a request would commit
// more seats than the trip has. SeatsLeft reports how many seats are
// actually still free so callers can surface a useful message.
type CapacityExceededError struct {
	TripID    string
	Requested int
	SeatsLeft int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("trip %s cannot seat %d more riders: %d seats left", e.TripID, e.Requested, e.SeatsLeft)
}
