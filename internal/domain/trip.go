package domain

import "time"

// TripStatus represents the current status of a published trip.
type TripStatus string

const (
	TripStatusAvailable  TripStatus = "AVAILABLE"
	TripStatusFull       TripStatus = "FULL"
	TripStatusInProgress TripStatus = "IN_PROGRESS"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusCancelled  TripStatus = "CANCELLED"
	TripStatusOnHold     TripStatus = "ON_HOLD"
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Trip represents a ride offering published by a driver.
//
// TotalSeats is fixed at creation. AvailableSeats is derived state: it must
// always equal TotalSeats minus the seats held by accepted or checked-in
// booking requests, and only the booking service writes it.
type Trip struct {
	ID                 string
	DriverID           string
	OriginAddress      string
	DestinationAddress string
	Origin             Coordinates
	Destination        Coordinates
	DepartsAt          time.Time
	TotalSeats         int
	AvailableSeats     int
	Status             TripStatus
	Recurring          bool
	RecurringDays      []time.Weekday
	CreatedAt          time.Time
}

// Bookable reports whether the trip's status still permits new acceptances.
// FULL is included: a concurrent cancellation may have freed seats since the
// status was written, and the committed-seat recomputation decides at accept
// time from authoritative data.
func (t *Trip) Bookable() bool {
	return t.Status == TripStatusAvailable || t.Status == TripStatusFull
}
