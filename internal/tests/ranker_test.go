package tests

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/service"
)

// ──────────────────────────────────────────────
// TRIP RANKER
// ──────────────────────────────────────────────

type rankerFixture struct {
	tripRepo    *MockTripRepository
	requestRepo *MockRequestRepository
	locations   *MockLocationStore
	ranker      *service.TripRanker
}

func newRankerFixture() *rankerFixture {
	tripRepo := NewMockTripRepository()
	requestRepo := NewMockRequestRepository()
	locations := NewMockLocationStore()
	affinity := service.NewRouteAffinityAnalyzer(requestRepo)

	return &rankerFixture{
		tripRepo:    tripRepo,
		requestRepo: requestRepo,
		locations:   locations,
		ranker:      service.NewTripRanker(tripRepo, affinity, locations, time.Second),
	}
}

func futureTrip(id, origin, destination string, departsIn time.Duration) *domain.Trip {
	return &domain.Trip{
		ID:                 id,
		DriverID:           "driver-1",
		OriginAddress:      origin,
		DestinationAddress: destination,
		DepartsAt:          time.Now().Add(departsIn),
		TotalSeats:         4,
		AvailableSeats:     4,
		Status:             domain.TripStatusAvailable,
		CreatedAt:          time.Now(),
	}
}

func TestRanker_ScoresAffinityRecurrenceAndDistance(t *testing.T) {
	t.Parallel()

	f := newRankerFixture()

	riderAt := domain.Coordinates{Lat: 52.5200, Lng: 13.4050}
	f.locations.SetLocation("rider-1", riderAt)

	// Two past trips on the same route give the rider a preference with
	// count 2.
	history := []*domain.Trip{
		futureTrip("h1", "12 Oak Street", "Central Station", -48*time.Hour),
		futureTrip("h2", "12 Oak Street", "Central Station", -24*time.Hour),
	}
	f.requestRepo.SetRiderHistory("rider-1", history)

	// Roughly 2 km north of the rider.
	nearOrigin := domain.Coordinates{Lat: riderAt.Lat + 2.0/111.195, Lng: riderAt.Lng}
	// Well outside the nearby radius.
	farOrigin := domain.Coordinates{Lat: riderAt.Lat + 50.0/111.195, Lng: riderAt.Lng}

	prefTrip := futureTrip("trip-pref", "12 Oak Street", "Central Station", 24*time.Hour)
	prefTrip.Origin = nearOrigin

	recurringTrip := futureTrip("trip-recur", "Elm Road", "Harbor", 26*time.Hour)
	recurringTrip.Origin = nearOrigin
	recurringTrip.Recurring = true
	recurringTrip.RecurringDays = []time.Weekday{time.Monday, time.Wednesday}

	farTrip := futureTrip("trip-far", "Pine Lane", "Airport", 28*time.Hour)
	farTrip.Origin = farOrigin

	f.tripRepo.AddTrip(prefTrip)
	f.tripRepo.AddTrip(recurringTrip)
	f.tripRepo.AddTrip(farTrip)

	result, err := f.ranker.Suggest(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NoUpcomingTrips {
		t.Fatal("expected upcoming trips")
	}
	if len(result.Candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(result.Candidates))
	}

	gotOrder := []string{result.Candidates[0].Trip.ID, result.Candidates[1].Trip.ID, result.Candidates[2].Trip.ID}
	wantOrder := []string{"trip-pref", "trip-recur", "trip-far"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("expected order %v, got %v", wantOrder, gotOrder)
		}
	}

	// A count-2 preference hit plus a ~2 km proximity bonus.
	nearDist := geo.DistanceKm(riderAt, nearOrigin)
	wantPref := 2*100.0 + (10.0-nearDist)*10.0
	if got := result.Candidates[0].Priority; math.Abs(got-wantPref) > 1e-9 {
		t.Errorf("expected preference priority %.4f, got %.4f", wantPref, got)
	}
	if math.Abs(result.Candidates[0].Priority-280.0) > 1.0 {
		t.Errorf("expected priority near 280, got %.4f", result.Candidates[0].Priority)
	}

	// Recurrence is a flat bonus on top of proximity.
	wantRecur := 50.0 + (10.0-nearDist)*10.0
	if got := result.Candidates[1].Priority; math.Abs(got-wantRecur) > 1e-9 {
		t.Errorf("expected recurring priority %.4f, got %.4f", wantRecur, got)
	}

	// Beyond the nearby radius the distance counts against the trip.
	farDist := geo.DistanceKm(riderAt, farOrigin)
	if got := result.Candidates[2].Priority; math.Abs(got-(-farDist)) > 1e-9 {
		t.Errorf("expected far priority %.4f, got %.4f", -farDist, got)
	}

	for _, c := range result.Candidates {
		if c.DistanceKm == nil {
			t.Errorf("expected distance for trip %s", c.Trip.ID)
		}
	}
}

func TestRanker_NoUpcomingTrips(t *testing.T) {
	t.Parallel()

	f := newRankerFixture()

	// Only a trip in the past.
	f.tripRepo.AddTrip(futureTrip("old", "A", "B", -3*time.Hour))

	result, err := f.ranker.Suggest(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.NoUpcomingTrips {
		t.Error("expected NoUpcomingTrips")
	}
	if len(result.Candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(result.Candidates))
	}
}

func TestRanker_FutureCutoffUsesFullTimestamp(t *testing.T) {
	t.Parallel()

	f := newRankerFixture()

	// Departed an hour ago today: gone. Departing in an hour: in.
	f.tripRepo.AddTrip(futureTrip("earlier-today", "A", "B", -time.Hour))
	f.tripRepo.AddTrip(futureTrip("later-today", "A", "B", time.Hour))

	result, err := f.ranker.Suggest(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(result.Candidates))
	}
	if result.Candidates[0].Trip.ID != "later-today" {
		t.Errorf("expected later-today, got %s", result.Candidates[0].Trip.ID)
	}
}

func TestRanker_TruncatesSuggestions(t *testing.T) {
	t.Parallel()

	f := newRankerFixture()

	for i := 0; i < 7; i++ {
		f.tripRepo.AddTrip(futureTrip(fmt.Sprintf("trip-%d", i), "A", "B", time.Duration(i+1)*time.Hour))
	}

	result, err := f.ranker.Suggest(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Candidates) != service.MaxSuggested {
		t.Fatalf("expected %d candidates, got %d", service.MaxSuggested, len(result.Candidates))
	}

	// With equal priorities the soonest departures survive the cut.
	for i, c := range result.Candidates {
		want := fmt.Sprintf("trip-%d", i)
		if c.Trip.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, c.Trip.ID)
		}
	}
}

func TestRanker_DeterministicOrder(t *testing.T) {
	t.Parallel()

	f := newRankerFixture()

	departs := time.Now().Add(12 * time.Hour)
	for _, id := range []string{"c", "a", "b"} {
		trip := futureTrip(id, "A", "B", 0)
		trip.DepartsAt = departs
		f.tripRepo.AddTrip(trip)
	}

	first, err := f.ranker.Suggest(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same priority, same departure: trip ID decides.
	wantOrder := []string{"a", "b", "c"}
	for i, want := range wantOrder {
		if first.Candidates[i].Trip.ID != want {
			t.Fatalf("expected order %v, got candidate %s at %d", wantOrder, first.Candidates[i].Trip.ID, i)
		}
	}

	// Re-running over identical data yields the identical list.
	for run := 0; run < 5; run++ {
		again, err := f.ranker.Suggest(context.Background(), "rider-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := range wantOrder {
			if again.Candidates[i].Trip.ID != first.Candidates[i].Trip.ID {
				t.Fatalf("run %d: ordering changed", run)
			}
		}
	}
}

func TestRanker_LocationFailureDisablesDistance(t *testing.T) {
	t.Parallel()

	f := newRankerFixture()
	f.locations.CurrentLocationError = errors.New("geo backend down")

	trip := futureTrip("trip-1", "A", "B", 2*time.Hour)
	trip.Recurring = true
	f.tripRepo.AddTrip(trip)

	result, err := f.ranker.Suggest(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("expected ranking to degrade, got error: %v", err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(result.Candidates))
	}

	c := result.Candidates[0]
	if c.DistanceKm != nil {
		t.Error("expected no distance without a rider location")
	}
	// Only the recurrence bonus contributes.
	if c.Priority != 50.0 {
		t.Errorf("expected priority 50, got %.4f", c.Priority)
	}
}

func TestRanker_UnknownRiderLocation_IsNotAnError(t *testing.T) {
	t.Parallel()

	f := newRankerFixture()
	f.tripRepo.AddTrip(futureTrip("trip-1", "A", "B", 2*time.Hour))

	// No location recorded for the rider at all.
	result, err := f.ranker.Suggest(context.Background(), "rider-without-location")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Candidates[0].DistanceKm != nil {
		t.Error("expected no distance term")
	}
}

func TestRanker_RecurringBeatsSooner(t *testing.T) {
	t.Parallel()

	f := newRankerFixture()

	sooner := futureTrip("sooner", "A", "B", time.Hour)
	later := futureTrip("later", "C", "D", 48*time.Hour)
	later.Recurring = true
	f.tripRepo.AddTrip(sooner)
	f.tripRepo.AddTrip(later)

	result, err := f.ranker.Suggest(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Candidates[0].Trip.ID != "later" {
		t.Errorf("expected recurring trip first, got %s", result.Candidates[0].Trip.ID)
	}
}

func TestRanker_InvalidRiderID(t *testing.T) {
	t.Parallel()

	f := newRankerFixture()
	if _, err := f.ranker.Suggest(context.Background(), ""); !errors.Is(err, service.ErrInvalidRiderID) {
		t.Errorf("expected ErrInvalidRiderID, got %v", err)
	}
}
