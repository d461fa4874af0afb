package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// ──────────────────────────────────────────────
// CONCURRENT BOOKING (run with -race)
// ──────────────────────────────────────────────

func TestBookingRace_ConcurrentAccepts_NeverOverbook(t *testing.T) {
	t.Parallel()

	const (
		capacity = 3
		riders   = 8
	)

	f := newBookingFixture()
	f.addTrip("trip-1", capacity)
	for i := 0; i < riders; i++ {
		f.addRequest(fmt.Sprintf("req-%d", i), fmt.Sprintf("rider-%d", i), 1, domain.RequestStatusWaiting)
	}

	var wg sync.WaitGroup
	results := make(chan error, riders)

	for i := 0; i < riders; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.AcceptRequest(context.Background(), id)
			results <- err
		}(fmt.Sprintf("req-%d", i))
	}

	wg.Wait()
	close(results)

	accepted, refused := 0, 0
	for err := range results {
		switch {
		case err == nil:
			accepted++
		default:
			var capErr *service.CapacityExceededError
			if !errors.As(err, &capErr) {
				t.Errorf("unexpected error: %v", err)
				continue
			}
			if capErr.SeatsLeft != 0 {
				t.Errorf("expected 0 seats left in refusal, got %d", capErr.SeatsLeft)
			}
			refused++
		}
	}

	if accepted != capacity {
		t.Errorf("expected exactly %d accepted, got %d", capacity, accepted)
	}
	if refused != riders-capacity {
		t.Errorf("expected %d refused, got %d", riders-capacity, refused)
	}

	trip := f.tripRepo.GetTrip("trip-1")
	if trip.AvailableSeats != 0 {
		t.Errorf("expected 0 available seats, got %d", trip.AvailableSeats)
	}
	if trip.Status != domain.TripStatusFull {
		t.Errorf("expected status %s, got %s", domain.TripStatusFull, trip.Status)
	}
	if held := f.requestRepo.SeatsHeld("trip-1"); held != capacity {
		t.Errorf("expected %d seats held, got %d", capacity, held)
	}
	if got := f.requestRepo.CountWithStatus("trip-1", domain.RequestStatusAccepted); got != capacity {
		t.Errorf("expected %d accepted requests, got %d", capacity, got)
	}
}

func TestBookingRace_MixedSeatCounts_InvariantHolds(t *testing.T) {
	t.Parallel()

	const capacity = 4

	f := newBookingFixture()
	f.addTrip("trip-1", capacity)

	seatCounts := []int{2, 2, 2, 2, 1}
	for i, seats := range seatCounts {
		f.addRequest(fmt.Sprintf("req-%d", i), fmt.Sprintf("rider-%d", i), seats, domain.RequestStatusWaiting)
	}

	var wg sync.WaitGroup
	results := make(chan error, len(seatCounts))

	for i := range seatCounts {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.AcceptRequest(context.Background(), id)
			results <- err
		}(fmt.Sprintf("req-%d", i))
	}

	wg.Wait()
	close(results)

	for err := range results {
		if err == nil {
			continue
		}
		var capErr *service.CapacityExceededError
		if !errors.As(err, &capErr) {
			t.Errorf("unexpected error: %v", err)
		}
	}

	// Which subset wins depends on scheduling; the inventory invariant
	// must hold for all of them.
	held := f.requestRepo.SeatsHeld("trip-1")
	if held > capacity {
		t.Errorf("overbooked: %d seats held on a %d-seat trip", held, capacity)
	}

	trip := f.tripRepo.GetTrip("trip-1")
	if trip.AvailableSeats != capacity-held {
		t.Errorf("expected %d available seats, got %d", capacity-held, trip.AvailableSeats)
	}
	if trip.AvailableSeats == 0 && trip.Status != domain.TripStatusFull {
		t.Errorf("expected full trip to carry status %s, got %s", domain.TripStatusFull, trip.Status)
	}
}

func TestBookingRace_AcceptVersusCancel(t *testing.T) {
	t.Parallel()

	const capacity = 2

	f := newBookingFixture()
	f.addTrip("trip-1", capacity)
	f.addRequest("req-a", "rider-a", 2, domain.RequestStatusWaiting)
	f.addRequest("req-b", "rider-b", 2, domain.RequestStatusWaiting)

	ctx := context.Background()
	if _, err := f.svc.AcceptRequest(ctx, "req-a"); err != nil {
		t.Fatalf("setup accept: %v", err)
	}

	var wg sync.WaitGroup
	var cancelErr, acceptErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, cancelErr = f.svc.DriverCancelBooking(ctx, "req-a")
	}()
	go func() {
		defer wg.Done()
		_, acceptErr = f.svc.AcceptRequest(ctx, "req-b")
	}()
	wg.Wait()

	if cancelErr != nil {
		t.Errorf("cancel failed: %v", cancelErr)
	}

	// The accept either found the freed seats or lost the race; both are
	// legal, overbooking is not.
	if acceptErr != nil {
		var capErr *service.CapacityExceededError
		if !errors.As(acceptErr, &capErr) {
			t.Errorf("unexpected accept error: %v", acceptErr)
		}
	}

	held := f.requestRepo.SeatsHeld("trip-1")
	if held > capacity {
		t.Errorf("overbooked: %d seats held on a %d-seat trip", held, capacity)
	}
	trip := f.tripRepo.GetTrip("trip-1")
	if trip.AvailableSeats != capacity-held {
		t.Errorf("expected %d available seats, got %d", capacity-held, trip.AvailableSeats)
	}
	if got := f.requestRepo.GetRequest("req-a").Status; got != domain.RequestStatusCancelled {
		t.Errorf("expected req-a to be %s, got %s", domain.RequestStatusCancelled, got)
	}
}
