package domain

import "time"

// RequestStatus represents the current status of a booking request.
type RequestStatus string

const (
	RequestStatusWaiting    RequestStatus = "WAITING"
	RequestStatusAccepted   RequestStatus = "ACCEPTED"
	RequestStatusRejected   RequestStatus = "REJECTED"
	RequestStatusCheckedIn  RequestStatus = "CHECKED_IN"
	RequestStatusCheckedOut RequestStatus = "CHECKED_OUT"
	RequestStatusCancelled  RequestStatus = "CANCELLED"
)

// LiveRequestStatuses are the non-terminal statuses. A rider may hold at
// most one request in any of these statuses per trip.
var LiveRequestStatuses = []RequestStatus{
	RequestStatusWaiting,
	RequestStatusAccepted,
	RequestStatusCheckedIn,
}

// SeatHoldingStatuses are the statuses whose requests count against a
// trip's seat capacity.
var SeatHoldingStatuses = []RequestStatus{
	RequestStatusAccepted,
	RequestStatusCheckedIn,
}

// Terminal reports whether no further transition is possible from s.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestStatusRejected, RequestStatusCheckedOut, RequestStatusCancelled:
		return true
	}
	return false
}

// HoldsSeats reports whether a request in status s counts against trip capacity.
func (s RequestStatus) HoldsSeats() bool {
	return s == RequestStatusAccepted || s == RequestStatusCheckedIn
}

// BookingRequest represents a rider's request to occupy seats on a trip.
type BookingRequest struct {
	ID             string
	TripID         string
	RiderID        string
	RiderName      string // denormalized for presentation
	RequestedSeats int
	Status         RequestStatus
	PickupWaypoint string // optional
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
