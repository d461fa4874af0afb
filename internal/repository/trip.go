package repository

import (
	"context"
	"time"

	"carpool/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetAll retrieves recently published trips.
	GetAll(ctx context.Context) ([]*domain.Trip, error)

	// ListFuture retrieves trips departing strictly after the given instant,
	// ordered by departure time ascending.
	ListFuture(ctx context.Context, after time.Time) ([]*domain.Trip, error)

	// UpdateCapacity conditionally writes the trip's available seats and
	// status. The write applies only if the stored row still carries
	// expectedSeats and expectedStatus; otherwise ErrConflict is returned
	// and nothing changes. Returns ErrNotFound for an unknown trip.
	UpdateCapacity(ctx context.Context, id string, availableSeats int, status domain.TripStatus, expectedSeats int, expectedStatus domain.TripStatus) error
}
