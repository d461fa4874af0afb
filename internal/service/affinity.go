package service

import (
	"context"
	"sort"
	"strings"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// maxRoutePreferences caps how many frequent routes feed the ranker.
const maxRoutePreferences = 3

// RouteAffinityAnalyzer derives a rider's frequently travelled
// (origin, destination) pairs from their ride history.
type RouteAffinityAnalyzer struct {
	requestRepo repository.RequestRepository
}

// NewRouteAffinityAnalyzer creates a new RouteAffinityAnalyzer.
func NewRouteAffinityAnalyzer(requestRepo repository.RequestRepository) *RouteAffinityAnalyzer {
	return &RouteAffinityAnalyzer{requestRepo: requestRepo}
}

// TopRoutes aggregates the rider's past trips (driven, or ridden through a
// request that reached accepted or beyond) by exact-match trimmed address
// pair and returns the most frequent ones, at most maxRoutePreferences.
// Matching is deliberately literal: no geocoding or normalization beyond
// whitespace trimming.
func (a *RouteAffinityAnalyzer) TopRoutes(ctx context.Context, riderID string) ([]domain.RoutePreference, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}

	history, err := a.requestRepo.ListRiderHistory(ctx, riderID)
	if err != nil {
		return nil, err
	}

	type routeKey struct{ origin, destination string }
	counts := make(map[routeKey]int)
	for _, trip := range history {
		key := routeKey{
			origin:      strings.TrimSpace(trip.OriginAddress),
			destination: strings.TrimSpace(trip.DestinationAddress),
		}
		if key.origin == "" || key.destination == "" {
			continue
		}
		counts[key]++
	}

	prefs := make([]domain.RoutePreference, 0, len(counts))
	for key, count := range counts {
		prefs = append(prefs, domain.RoutePreference{
			Origin:      key.origin,
			Destination: key.destination,
			Count:       count,
		})
	}

	// Count descending; route strings break ties so the result is stable
	// across invocations regardless of map iteration order.
	sort.Slice(prefs, func(i, j int) bool {
		if prefs[i].Count != prefs[j].Count {
			return prefs[i].Count > prefs[j].Count
		}
		if prefs[i].Origin != prefs[j].Origin {
			return prefs[i].Origin < prefs[j].Origin
		}
		return prefs[i].Destination < prefs[j].Destination
	})

	if len(prefs) > maxRoutePreferences {
		prefs = prefs[:maxRoutePreferences]
	}

	return prefs, nil
}
