package tests

import (
	"context"
	"errors"
	"testing"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// ──────────────────────────────────────────────
// ROUTE AFFINITY
// ──────────────────────────────────────────────

func historyTrip(origin, destination string) *domain.Trip {
	return &domain.Trip{
		ID:                 origin + "->" + destination,
		OriginAddress:      origin,
		DestinationAddress: destination,
	}
}

func TestAffinity_TopRoutesByFrequency(t *testing.T) {
	t.Parallel()

	requestRepo := NewMockRequestRepository()
	analyzer := service.NewRouteAffinityAnalyzer(requestRepo)

	requestRepo.SetRiderHistory("rider-1", []*domain.Trip{
		historyTrip("Home", "Office"),
		historyTrip("Home", "Office"),
		historyTrip("Home", "Office"),
		historyTrip("Home", "Gym"),
		historyTrip("Home", "Gym"),
		historyTrip("Office", "Home"),
		historyTrip("Airport", "Hotel"),
	})

	prefs, err := analyzer.TopRoutes(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Four distinct routes, only the three most frequent survive.
	if len(prefs) != 3 {
		t.Fatalf("expected 3 preferences, got %d", len(prefs))
	}

	if prefs[0].Origin != "Home" || prefs[0].Destination != "Office" || prefs[0].Count != 3 {
		t.Errorf("unexpected top preference: %+v", prefs[0])
	}
	if prefs[1].Origin != "Home" || prefs[1].Destination != "Gym" || prefs[1].Count != 2 {
		t.Errorf("unexpected second preference: %+v", prefs[1])
	}
	// Two routes with count 1; "Airport" sorts before "Office".
	if prefs[2].Origin != "Airport" || prefs[2].Destination != "Hotel" {
		t.Errorf("unexpected third preference: %+v", prefs[2])
	}
}

func TestAffinity_TrimsWhitespaceOnly(t *testing.T) {
	t.Parallel()

	requestRepo := NewMockRequestRepository()
	analyzer := service.NewRouteAffinityAnalyzer(requestRepo)

	// Same route modulo surrounding whitespace counts once; differing case
	// or wording does not collapse.
	requestRepo.SetRiderHistory("rider-1", []*domain.Trip{
		historyTrip("12 Oak Street", "Central Station"),
		historyTrip("  12 Oak Street  ", "Central Station "),
		historyTrip("12 oak street", "Central Station"),
	})

	prefs, err := analyzer.TopRoutes(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prefs) != 2 {
		t.Fatalf("expected 2 preferences, got %d", len(prefs))
	}
	if prefs[0].Origin != "12 Oak Street" || prefs[0].Count != 2 {
		t.Errorf("unexpected top preference: %+v", prefs[0])
	}
}

func TestAffinity_SkipsBlankAddresses(t *testing.T) {
	t.Parallel()

	requestRepo := NewMockRequestRepository()
	analyzer := service.NewRouteAffinityAnalyzer(requestRepo)

	requestRepo.SetRiderHistory("rider-1", []*domain.Trip{
		historyTrip("", "Central Station"),
		historyTrip("12 Oak Street", "   "),
	})

	prefs, err := analyzer.TopRoutes(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prefs) != 0 {
		t.Errorf("expected no preferences, got %d", len(prefs))
	}
}

func TestAffinity_EmptyHistory(t *testing.T) {
	t.Parallel()

	requestRepo := NewMockRequestRepository()
	analyzer := service.NewRouteAffinityAnalyzer(requestRepo)

	prefs, err := analyzer.TopRoutes(context.Background(), "rider-new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prefs) != 0 {
		t.Errorf("expected no preferences, got %d", len(prefs))
	}
}

func TestAffinity_InvalidRiderID(t *testing.T) {
	t.Parallel()

	analyzer := service.NewRouteAffinityAnalyzer(NewMockRequestRepository())
	if _, err := analyzer.TopRoutes(context.Background(), ""); !errors.Is(err, service.ErrInvalidRiderID) {
		t.Errorf("expected ErrInvalidRiderID, got %v", err)
	}
}

func TestAffinity_PreferenceMatchesTrimmedTripAddresses(t *testing.T) {
	t.Parallel()

	pref := domain.RoutePreference{Origin: "12 Oak Street", Destination: "Central Station", Count: 2}

	match := &domain.Trip{OriginAddress: " 12 Oak Street ", DestinationAddress: "Central Station"}
	if !pref.Matches(match) {
		t.Error("expected whitespace-padded addresses to match")
	}

	caseMismatch := &domain.Trip{OriginAddress: "12 oak street", DestinationAddress: "Central Station"}
	if pref.Matches(caseMismatch) {
		t.Error("expected case difference to break the match")
	}

	otherRoute := &domain.Trip{OriginAddress: "12 Oak Street", DestinationAddress: "Harbor"}
	if pref.Matches(otherRoute) {
		t.Error("expected different destination to break the match")
	}
}
