package redis

import (
	"context"
	"errors"
	"time"

	"carpool/internal/domain"
)

// ErrLocationUnknown is returned when a rider has no recorded position.
var ErrLocationUnknown = errors.New("rider location unknown")

// LocationStoreInterface defines the interface for rider location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, riderID string, lat, lng float64) error
	CurrentLocation(ctx context.Context, riderID string) (domain.Coordinates, error)
	RemoveLocation(ctx context.Context, riderID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, tripID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
