package domain

import "strings"

// SuggestionCandidate is a trip annotated with ranking signals. It is
// computed on demand and never persisted.
type SuggestionCandidate struct {
	Trip *Trip

	// DistanceKm is the great-circle distance from the rider's current
	// location to the trip origin. Nil when the rider's location is unknown.
	DistanceKm *float64

	Priority float64
}

// RoutePreference is an (origin, destination) address pair a rider has
// travelled before, with the number of matching past trips.
type RoutePreference struct {
	Origin      string
	Destination string
	Count       int
}

// Matches reports whether a trip serves this preferred route. Matching is
// exact on the trimmed address strings, case-sensitive.
func (p RoutePreference) Matches(t *Trip) bool {
	return p.Origin == strings.TrimSpace(t.OriginAddress) &&
		p.Destination == strings.TrimSpace(t.DestinationAddress)
}
