package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	redisstore "carpool/internal/redis"
	"carpool/internal/repository"
)

// TripService handles trip publication and lookup. Seat inventory is owned
// by the BookingService; this service only sets the initial capacity.
type TripService struct {
	tripRepo   repository.TripRepository
	cacheStore *redisstore.CacheStore
}

// NewTripService creates a new TripService. cacheStore may be nil.
func NewTripService(tripRepo repository.TripRepository, cacheStore *redisstore.CacheStore) *TripService {
	return &TripService{tripRepo: tripRepo, cacheStore: cacheStore}
}

// PublishTripRequest contains the parameters for publishing a trip.
type PublishTripRequest struct {
	DriverID           string
	OriginAddress      string
	DestinationAddress string
	Origin             domain.Coordinates
	Destination        domain.Coordinates
	DepartsAt          time.Time
	TotalSeats         int
	Recurring          bool
	RecurringDays      []time.Weekday
}

// PublishTrip records a new trip offering with all seats available.
func (s *TripService) PublishTrip(ctx context.Context, req PublishTripRequest) (*domain.Trip, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if req.TotalSeats < 1 {
		return nil, ErrInvalidSeatCount
	}
	if !validCoordinates(req.Origin) || !validCoordinates(req.Destination) {
		return nil, ErrInvalidCoordinates
	}
	if !req.DepartsAt.After(time.Now()) {
		return nil, ErrDepartureNotInFuture
	}

	trip := &domain.Trip{
		ID:                 uuid.New().String(),
		DriverID:           req.DriverID,
		OriginAddress:      strings.TrimSpace(req.OriginAddress),
		DestinationAddress: strings.TrimSpace(req.DestinationAddress),
		Origin:             req.Origin,
		Destination:        req.Destination,
		DepartsAt:          req.DepartsAt,
		TotalSeats:         req.TotalSeats,
		AvailableSeats:     req.TotalSeats,
		Status:             domain.TripStatusAvailable,
		Recurring:          req.Recurring,
		RecurringDays:      req.RecurringDays,
		CreatedAt:          time.Now(),
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	return trip, nil
}

// GetTrip retrieves a trip by ID, preferring the short-lived cache on the
// read path. The booking service invalidates the cache on every capacity
// change and never reads capacity through here.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetTrip(ctx, tripID); err == nil && cached != nil {
			return cachedToTrip(cached), nil
		}
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	s.cacheTripAsync(trip)

	return trip, nil
}

// GetAllTrips retrieves recently published trips.
func (s *TripService) GetAllTrips(ctx context.Context) ([]*domain.Trip, error) {
	return s.tripRepo.GetAll(ctx)
}

// ListUpcomingTrips retrieves trips departing strictly after now.
func (s *TripService) ListUpcomingTrips(ctx context.Context) ([]*domain.Trip, error) {
	return s.tripRepo.ListFuture(ctx, time.Now())
}

// cacheTripAsync refreshes the trip read cache (fire and forget).
func (s *TripService) cacheTripAsync(trip *domain.Trip) {
	if s.cacheStore == nil {
		return
	}
	go func() {
		cached := &redisstore.CachedTrip{
			ID:                 trip.ID,
			DriverID:           trip.DriverID,
			OriginAddress:      trip.OriginAddress,
			DestinationAddress: trip.DestinationAddress,
			OriginLat:          trip.Origin.Lat,
			OriginLng:          trip.Origin.Lng,
			DestinationLat:     trip.Destination.Lat,
			DestinationLng:     trip.Destination.Lng,
			DepartsAt:          trip.DepartsAt,
			TotalSeats:         trip.TotalSeats,
			AvailableSeats:     trip.AvailableSeats,
			Status:             string(trip.Status),
			Recurring:          trip.Recurring,
			RecurringDays:      weekdaysToInts(trip.RecurringDays),
			CreatedAt:          trip.CreatedAt,
		}
		_ = s.cacheStore.SetTrip(context.Background(), cached)
	}()
}

// cachedToTrip converts a cached trip to a domain trip.
func cachedToTrip(cached *redisstore.CachedTrip) *domain.Trip {
	return &domain.Trip{
		ID:                 cached.ID,
		DriverID:           cached.DriverID,
		OriginAddress:      cached.OriginAddress,
		DestinationAddress: cached.DestinationAddress,
		Origin:             domain.Coordinates{Lat: cached.OriginLat, Lng: cached.OriginLng},
		Destination:        domain.Coordinates{Lat: cached.DestinationLat, Lng: cached.DestinationLng},
		DepartsAt:          cached.DepartsAt,
		TotalSeats:         cached.TotalSeats,
		AvailableSeats:     cached.AvailableSeats,
		Status:             domain.TripStatus(cached.Status),
		Recurring:          cached.Recurring,
		RecurringDays:      intsToWeekdays(cached.RecurringDays),
		CreatedAt:          cached.CreatedAt,
	}
}

func weekdaysToInts(days []time.Weekday) []int {
	if len(days) == 0 {
		return nil
	}
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}

func intsToWeekdays(ints []int) []time.Weekday {
	if len(ints) == 0 {
		return nil
	}
	out := make([]time.Weekday, len(ints))
	for i, v := range ints {
		out[i] = time.Weekday(v)
	}
	return out
}

func validCoordinates(c domain.Coordinates) bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}
