package repository

import (
	"context"

	"carpool/internal/domain"
)

// RequestRepository defines the persistence operations for booking requests.
type RequestRepository interface {
	// Create persists a new booking request. Returns ErrDuplicateRequest if
	// the rider already holds a live (waiting/accepted/checked-in) request
	// on the same trip. The uniqueness check and the insert are a single
	// atomic statement so concurrent creates from the same rider cannot
	// both succeed.
	Create(ctx context.Context, req *domain.BookingRequest) error

	// GetByID retrieves a booking request by ID.
	GetByID(ctx context.Context, id string) (*domain.BookingRequest, error)

	// ListForTrip retrieves the trip's requests whose status is in the given
	// set. An empty set means all statuses.
	ListForTrip(ctx context.Context, tripID string, statuses []domain.RequestStatus) ([]*domain.BookingRequest, error)

	// UpdateStatus conditionally transitions a request. The write applies
	// only if the stored status still equals expectedPrior; otherwise
	// ErrConflict is returned and nothing changes. Returns ErrNotFound for
	// an unknown request.
	UpdateStatus(ctx context.Context, id string, status, expectedPrior domain.RequestStatus) error

	// ListRiderHistory retrieves the trips a rider has taken part in, either
	// as the driver or through a request that reached accepted or beyond.
	ListRiderHistory(ctx context.Context, riderID string) ([]*domain.Trip, error)
}
