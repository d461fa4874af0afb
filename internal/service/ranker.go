package service

import (
	"context"
	"log"
	"sort"
	"time"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/observability"
	"carpool/internal/repository"
)

// MaxSuggested bounds the suggestion list handed to riders.
const MaxSuggested = 5

// Scoring weights. A route-preference hit dominates, recurrence is a flat
// bonus, and proximity to the rider adds up to 100 points inside the
// nearby radius. Trips beyond the radius are penalized by their distance
// rather than excluded.
const (
	affinityWeight  = 100.0
	recurringBonus  = 50.0
	nearbyRadiusKm  = 10.0
	proximityWeight = 10.0
	defaultGeoWait  = 2 * time.Second
)

// LocationProvider supplies a rider's current coordinates on demand.
type LocationProvider interface {
	CurrentLocation(ctx context.Context, riderID string) (domain.Coordinates, error)
}

// Suggestions is the result of a ranking run. NoUpcomingTrips distinguishes
// "nothing scheduled anywhere" from an ordinary short list so callers can
// render an empty state instead of retrying.
type Suggestions struct {
	Candidates      []domain.SuggestionCandidate
	NoUpcomingTrips bool
}

// TripRanker scores and orders candidate trips for a rider. It is a pure
// read-and-compute path: it never mutates trips or requests, tolerates
// slightly stale trip data, and is safe to run concurrently with bookings.
type TripRanker struct {
	tripRepo  repository.TripRepository
	affinity  *RouteAffinityAnalyzer
	locations LocationProvider
	geoWait   time.Duration

	// now is injectable so the future-trip cutoff is deterministic in tests.
	now func() time.Time
}

// NewTripRanker creates a new TripRanker. locations may be nil, in which
// case the distance term is always disabled.
func NewTripRanker(tripRepo repository.TripRepository, affinity *RouteAffinityAnalyzer, locations LocationProvider, geoWait time.Duration) *TripRanker {
	if geoWait <= 0 {
		geoWait = defaultGeoWait
	}
	return &TripRanker{
		tripRepo:  tripRepo,
		affinity:  affinity,
		locations: locations,
		geoWait:   geoWait,
		now:       time.Now,
	}
}

// Suggest produces the ordered, size-bounded suggestion list for a rider.
func (r *TripRanker) Suggest(ctx context.Context, riderID string) (*Suggestions, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}

	start := time.Now()
	defer func() {
		observability.SuggestionsServed.Inc()
		observability.SuggestionLatency.Observe(time.Since(start).Seconds())
	}()

	// Full date+time comparison: a trip departing earlier today is gone,
	// even if it is still in progress.
	candidates, err := r.tripRepo.ListFuture(ctx, r.now())
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Suggestions{NoUpcomingTrips: true}, nil
	}

	prefs, err := r.affinity.TopRoutes(ctx, riderID)
	if err != nil {
		return nil, err
	}

	location, hasLocation := r.riderLocation(ctx, riderID)

	scored := make([]domain.SuggestionCandidate, 0, len(candidates))
	for _, trip := range candidates {
		candidate := domain.SuggestionCandidate{Trip: trip}
		priority := 0.0

		for _, pref := range prefs {
			if pref.Matches(trip) {
				priority += float64(pref.Count) * affinityWeight
				break
			}
		}

		if trip.Recurring {
			priority += recurringBonus
		}

		if hasLocation {
			distance := geo.DistanceKm(location, trip.Origin)
			candidate.DistanceKm = &distance
			if distance <= nearbyRadiusKm {
				priority += (nearbyRadiusKm - distance) * proximityWeight
			} else {
				priority -= distance
			}
		}

		candidate.Priority = priority
		scored = append(scored, candidate)
	}

	// Priority descending, soonest departure first on ties. Trip ID is the
	// final tie-break so repeated runs over identical data are identical.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Priority != scored[j].Priority {
			return scored[i].Priority > scored[j].Priority
		}
		if !scored[i].Trip.DepartsAt.Equal(scored[j].Trip.DepartsAt) {
			return scored[i].Trip.DepartsAt.Before(scored[j].Trip.DepartsAt)
		}
		return scored[i].Trip.ID < scored[j].Trip.ID
	})

	if len(scored) > MaxSuggested {
		scored = scored[:MaxSuggested]
	}

	return &Suggestions{Candidates: scored}, nil
}

// riderLocation fetches the rider's position with a bounded wait. Any
// failure disables the distance term instead of aborting ranking.
func (r *TripRanker) riderLocation(ctx context.Context, riderID string) (domain.Coordinates, bool) {
	if r.locations == nil {
		return domain.Coordinates{}, false
	}

	geoCtx, cancel := context.WithTimeout(ctx, r.geoWait)
	defer cancel()

	location, err := r.locations.CurrentLocation(geoCtx, riderID)
	if err != nil {
		log.Printf("ranker: rider %s location unavailable: %v", riderID, err)
		return domain.Coordinates{}, false
	}

	return location, true
}
