package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/observability"
	redisstore "carpool/internal/redis"
	"carpool/internal/repository"
)

const (
	// maxConflictRetries bounds internal retries of the seat-inventory
	// compare-and-swap. Conflicts are transient: another accept or cancel
	// moved the trip row first, and recomputing the committed total on the
	// fresh row is correct.
	maxConflictRetries = 3

	tripLockTTL = 5 * time.Second
)

// BookingService owns every transition of a booking request and the
// corresponding seat-inventory mutation on the trip. It is the only writer
// of Trip.AvailableSeats.
type BookingService struct {
	tripRepo    repository.TripRepository
	requestRepo repository.RequestRepository
	tx          repository.TxRunner
	lockStore   redisstore.LockStoreInterface
	cacheStore  *redisstore.CacheStore
	notifier    Notifier
}

// NewBookingService creates a new BookingService. lockStore, cacheStore and
// notifier may be nil.
func NewBookingService(
	tripRepo repository.TripRepository,
	requestRepo repository.RequestRepository,
	tx repository.TxRunner,
	lockStore redisstore.LockStoreInterface,
	cacheStore *redisstore.CacheStore,
	notifier Notifier,
) *BookingService {
	return &BookingService{
		tripRepo:    tripRepo,
		requestRepo: requestRepo,
		tx:          tx,
		lockStore:   lockStore,
		cacheStore:  cacheStore,
		notifier:    notifier,
	}
}

// CreateBookingRequest contains the parameters for requesting seats.
type CreateBookingRequest struct {
	TripID         string
	RiderID        string
	RiderName      string
	RequestedSeats int
	PickupWaypoint string
}

// CreateRequest records a rider's request for seats on a trip. Seats are not
// reserved here: capacity is enforced at the acceptance decision point, so
// competing requests may together exceed what the trip can hold.
func (s *BookingService) CreateRequest(ctx context.Context, req CreateBookingRequest) (*domain.BookingRequest, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.RiderID == "" {
		return nil, ErrInvalidRiderID
	}
	if req.RequestedSeats < 1 {
		return nil, ErrInvalidSeatCount
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	if !trip.Bookable() {
		return nil, ErrTripNotBookable
	}

	now := time.Now()
	booking := &domain.BookingRequest{
		ID:             uuid.New().String(),
		TripID:         req.TripID,
		RiderID:        req.RiderID,
		RiderName:      req.RiderName,
		RequestedSeats: req.RequestedSeats,
		Status:         domain.RequestStatusWaiting,
		PickupWaypoint: req.PickupWaypoint,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.requestRepo.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateRequest) {
			return nil, ErrDuplicateActiveRequest
		}
		return nil, err
	}

	observability.RequestsCreated.Inc()

	if s.notifier != nil {
		s.notifier.NotifyRequestReceived(ctx, trip, booking)
	}

	return booking, nil
}

// AcceptRequest confirms a waiting request and commits its seats.
//
// The committed seat total is recomputed from the request rows inside the
// transaction; the trip row read beforehand only supplies the expected prior
// state for the compare-and-swap. A conflicting concurrent accept or cancel
// makes the swap miss, in which case the whole computation is retried on
// fresh data.
func (s *BookingService) AcceptRequest(ctx context.Context, requestID string) (*domain.BookingRequest, error) {
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestStatusWaiting {
		return nil, ErrInvalidStateTransition
	}

	s.withTripLock(ctx, req.TripID, func() {
		err = s.acceptWithRetries(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	req.Status = domain.RequestStatusAccepted
	req.UpdatedAt = time.Now()
	observability.BookingsAccepted.Inc()
	s.invalidateTripCache(ctx, req.TripID)

	if s.notifier != nil {
		s.notifier.NotifyRequestAccepted(ctx, req)
	}

	return req, nil
}

func (s *BookingService) acceptWithRetries(ctx context.Context, req *domain.BookingRequest) error {
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		trip, err := s.tripRepo.GetByID(ctx, req.TripID)
		if err != nil {
			return err
		}
		if !trip.Bookable() {
			return ErrTripNotBookable
		}

		err = s.tx.WithinTx(ctx, func(trips repository.TripRepository, requests repository.RequestRepository) error {
			committed, err := committedSeats(ctx, requests, trip.ID)
			if err != nil {
				return err
			}

			if committed+req.RequestedSeats > trip.TotalSeats {
				return &CapacityExceededError{
					TripID:    trip.ID,
					Requested: req.RequestedSeats,
					SeatsLeft: trip.TotalSeats - committed,
				}
			}

			newAvailable := trip.TotalSeats - (committed + req.RequestedSeats)
			newStatus := trip.Status
			if newAvailable == 0 {
				newStatus = domain.TripStatusFull
			} else if trip.Status == domain.TripStatusFull {
				newStatus = domain.TripStatusAvailable
			}

			if err := trips.UpdateCapacity(ctx, trip.ID, newAvailable, newStatus, trip.AvailableSeats, trip.Status); err != nil {
				return err
			}

			if err := requests.UpdateStatus(ctx, req.ID, domain.RequestStatusAccepted, domain.RequestStatusWaiting); err != nil {
				if errors.Is(err, repository.ErrConflict) {
					// The request itself was concurrently transitioned;
					// that outcome is deterministic, not retryable.
					return ErrInvalidStateTransition
				}
				return err
			}

			return nil
		})

		if errors.Is(err, repository.ErrConflict) {
			observability.ConflictRetries.Inc()
			continue
		}

		var capErr *CapacityExceededError
		if errors.As(err, &capErr) {
			observability.CapacityRejections.Inc()
		}
		return err
	}

	return ErrConcurrentModification
}

// RejectRequest declines a waiting request. Seats were never committed, so
// there is no inventory effect.
func (s *BookingService) RejectRequest(ctx context.Context, requestID string) (*domain.BookingRequest, error) {
	req, err := s.transitionRequest(ctx, requestID, domain.RequestStatusRejected, domain.RequestStatusWaiting)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyRequestRejected(ctx, req)
	}

	return req, nil
}

// WithdrawRequest lets the rider cancel their own waiting request. No
// inventory effect for the same reason as RejectRequest.
func (s *BookingService) WithdrawRequest(ctx context.Context, requestID string) (*domain.BookingRequest, error) {
	return s.transitionRequest(ctx, requestID, domain.RequestStatusCancelled, domain.RequestStatusWaiting)
}

// DriverCancelBooking cancels an accepted or checked-in booking and returns
// its seats to the trip, symmetric with AcceptRequest and under the same
// atomicity guarantee.
func (s *BookingService) DriverCancelBooking(ctx context.Context, requestID string) (*domain.BookingRequest, error) {
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.HoldsSeats() {
		return nil, ErrInvalidStateTransition
	}

	s.withTripLock(ctx, req.TripID, func() {
		err = s.cancelWithRetries(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	req.Status = domain.RequestStatusCancelled
	req.UpdatedAt = time.Now()
	observability.BookingsCancelled.Inc()
	s.invalidateTripCache(ctx, req.TripID)

	if s.notifier != nil {
		s.notifier.NotifyBookingCancelled(ctx, req)
	}

	return req, nil
}

func (s *BookingService) cancelWithRetries(ctx context.Context, req *domain.BookingRequest) error {
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		// Re-read the request each attempt: a concurrent check-in moves it
		// between seat-holding states, and cancelling stays legal from
		// either, so the retry must swap against the fresh status.
		current, err := s.requestRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if !current.Status.HoldsSeats() {
			return ErrInvalidStateTransition
		}

		trip, err := s.tripRepo.GetByID(ctx, req.TripID)
		if err != nil {
			return err
		}

		err = s.tx.WithinTx(ctx, func(trips repository.TripRepository, requests repository.RequestRepository) error {
			committed, err := committedSeats(ctx, requests, trip.ID)
			if err != nil {
				return err
			}

			// The request being cancelled is still in the committed set.
			newAvailable := trip.TotalSeats - (committed - req.RequestedSeats)
			newStatus := trip.Status
			if trip.Status == domain.TripStatusFull && newAvailable > 0 {
				newStatus = domain.TripStatusAvailable
			}

			if err := trips.UpdateCapacity(ctx, trip.ID, newAvailable, newStatus, trip.AvailableSeats, trip.Status); err != nil {
				return err
			}

			return requests.UpdateStatus(ctx, req.ID, domain.RequestStatusCancelled, current.Status)
		})

		if errors.Is(err, repository.ErrConflict) {
			observability.ConflictRetries.Inc()
			continue
		}
		return err
	}

	return ErrConcurrentModification
}

// CheckIn marks an accepted rider as boarded. No inventory effect: the seats
// were committed at accept time and stay committed.
func (s *BookingService) CheckIn(ctx context.Context, requestID string) (*domain.BookingRequest, error) {
	req, err := s.transitionRequest(ctx, requestID, domain.RequestStatusCheckedIn, domain.RequestStatusAccepted)
	if err != nil {
		return nil, err
	}

	s.notifyWithTrip(ctx, req, func(trip *domain.Trip) {
		s.notifier.NotifyCheckedIn(ctx, trip, req)
	})

	return req, nil
}

// CheckOut marks a checked-in rider as having left the trip.
func (s *BookingService) CheckOut(ctx context.Context, requestID string) (*domain.BookingRequest, error) {
	req, err := s.transitionRequest(ctx, requestID, domain.RequestStatusCheckedOut, domain.RequestStatusCheckedIn)
	if err != nil {
		return nil, err
	}

	s.notifyWithTrip(ctx, req, func(trip *domain.Trip) {
		s.notifier.NotifyCheckedOut(ctx, trip, req)
	})

	return req, nil
}

// GetRequest retrieves a booking request by ID.
func (s *BookingService) GetRequest(ctx context.Context, requestID string) (*domain.BookingRequest, error) {
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}
	return s.requestRepo.GetByID(ctx, requestID)
}

// ListTripRequests retrieves a trip's requests, optionally filtered by status.
func (s *BookingService) ListTripRequests(ctx context.Context, tripID string, statuses []domain.RequestStatus) ([]*domain.BookingRequest, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.requestRepo.ListForTrip(ctx, tripID, statuses)
}

// transitionRequest performs a plain guarded status transition with no
// inventory effect.
func (s *BookingService) transitionRequest(ctx context.Context, requestID string, next, expected domain.RequestStatus) (*domain.BookingRequest, error) {
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != expected {
		return nil, ErrInvalidStateTransition
	}

	if err := s.requestRepo.UpdateStatus(ctx, requestID, next, expected); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	req.Status = next
	req.UpdatedAt = time.Now()
	return req, nil
}

// withTripLock runs fn under a best-effort per-trip redis lock. The lock only
// reduces contention on hot trips; correctness rests on the store-level
// compare-and-swap, so fn runs even when the lock is unavailable.
func (s *BookingService) withTripLock(ctx context.Context, tripID string, fn func()) {
	if s.lockStore != nil {
		if locked, err := s.lockStore.AcquireTripLock(ctx, tripID, tripLockTTL); err == nil && locked {
			defer func() { _ = s.lockStore.ReleaseTripLock(ctx, tripID) }()
		}
	}
	fn()
}

func (s *BookingService) invalidateTripCache(ctx context.Context, tripID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateTrip(ctx, tripID)
}

func (s *BookingService) notifyWithTrip(ctx context.Context, req *domain.BookingRequest, fn func(trip *domain.Trip)) {
	if s.notifier == nil {
		return
	}
	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return
	}
	fn(trip)
}

// committedSeats sums the seats held by the trip's accepted and checked-in
// requests. This is the authoritative committed total; the trip row's
// available_seats column is derived from it.
func committedSeats(ctx context.Context, requests repository.RequestRepository, tripID string) (int, error) {
	holding, err := requests.ListForTrip(ctx, tripID, domain.SeatHoldingStatuses)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, r := range holding {
		total += r.RequestedSeats
	}
	return total, nil
}
