package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"carpool/internal/domain"
)

const riderLocationKey = "riders:locations"

// LocationStore keeps riders' last reported positions in a Redis geo index.
// It backs the ranker's geolocation lookups; a missing entry simply means
// the rider's location is unknown.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores a rider's location using GEOADD.
func (s *LocationStore) UpdateLocation(ctx context.Context, riderID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, riderLocationKey, &redis.GeoLocation{
		Name:      riderID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// CurrentLocation returns the rider's last reported coordinates.
// Returns ErrLocationUnknown if the rider has never reported a position.
func (s *LocationStore) CurrentLocation(ctx context.Context, riderID string) (domain.Coordinates, error) {
	positions, err := s.client.GeoPos(ctx, riderLocationKey, riderID).Result()
	if err != nil {
		return domain.Coordinates{}, err
	}

	if len(positions) == 0 || positions[0] == nil {
		return domain.Coordinates{}, ErrLocationUnknown
	}

	return domain.Coordinates{
		Lat: positions[0].Latitude,
		Lng: positions[0].Longitude,
	}, nil
}

// RemoveLocation removes a rider's location from the geo index.
func (s *LocationStore) RemoveLocation(ctx context.Context, riderID string) error {
	return s.client.ZRem(ctx, riderLocationKey, riderID).Err()
}
