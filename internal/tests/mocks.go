package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"carpool/internal/domain"
	"carpool/internal/redis"
	"carpool/internal/repository"
	"carpool/internal/service"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository. Its
// UpdateCapacity carries the same compare-and-swap contract as the
// postgres implementation, so conflict handling is exercised for real.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount         int32
	UpdateCapacityCallCount int32

	// Error injection
	CreateError         error
	GetByIDError        error
	ListFutureError     error
	UpdateCapacityError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		copy := *t
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockTripRepository) ListFuture(ctx context.Context, after time.Time) ([]*domain.Trip, error) {
	if m.ListFutureError != nil {
		return nil, m.ListFutureError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if t.DepartsAt.After(after) {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DepartsAt.Equal(result[j].DepartsAt) {
			return result[i].DepartsAt.Before(result[j].DepartsAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MockTripRepository) UpdateCapacity(ctx context.Context, id string, availableSeats int, status domain.TripStatus, expectedSeats int, expectedStatus domain.TripStatus) error {
	atomic.AddInt32(&m.UpdateCapacityCallCount, 1)
	if m.UpdateCapacityError != nil {
		return m.UpdateCapacityError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return repository.ErrNotFound
	}
	if trip.AvailableSeats != expectedSeats || trip.Status != expectedStatus {
		return repository.ErrConflict
	}
	trip.AvailableSeats = availableSeats
	trip.Status = status
	return nil
}

// GetTrip returns trip for assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

func (m *MockTripRepository) snapshot() map[string]domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]domain.Trip, len(m.trips))
	for id, t := range m.trips {
		snap[id] = *t
	}
	return snap
}

func (m *MockTripRepository) restore(snap map[string]domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = make(map[string]*domain.Trip, len(snap))
	for id := range snap {
		t := snap[id]
		m.trips[id] = &t
	}
}

// ──────────────────────────────────────────────
// MOCK REQUEST REPOSITORY
// ──────────────────────────────────────────────

// MockRequestRepository is a mock implementation of RequestRepository.
// Create enforces one live request per (rider, trip) under the same lock
// as the insert, mirroring the single-statement postgres guarantee.
type MockRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]*domain.BookingRequest
	history  map[string][]*domain.Trip

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	GetByIDError      error
	ListForTripError  error
	UpdateStatusError error
	ListHistoryError  error
}

// NewMockRequestRepository creates a new mock request repository.
func NewMockRequestRepository() *MockRequestRepository {
	return &MockRequestRepository{
		requests: make(map[string]*domain.BookingRequest),
		history:  make(map[string][]*domain.Trip),
	}
}

// AddRequest adds a booking request to the mock repository.
func (m *MockRequestRepository) AddRequest(req *domain.BookingRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
}

// SetRiderHistory sets the trips ListRiderHistory returns for a rider.
func (m *MockRequestRepository) SetRiderHistory(riderID string, trips []*domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[riderID] = trips
}

func (m *MockRequestRepository) Create(ctx context.Context, req *domain.BookingRequest) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.requests {
		if existing.TripID != req.TripID || existing.RiderID != req.RiderID {
			continue
		}
		for _, live := range domain.LiveRequestStatuses {
			if existing.Status == live {
				return repository.ErrDuplicateRequest
			}
		}
	}
	m.requests[req.ID] = req
	return nil
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id string) (*domain.BookingRequest, error) {
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *req
	return &copy, nil
}

func (m *MockRequestRepository) ListForTrip(ctx context.Context, tripID string, statuses []domain.RequestStatus) ([]*domain.BookingRequest, error) {
	if m.ListForTripError != nil {
		return nil, m.ListForTripError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.BookingRequest, 0)
	for _, r := range m.requests {
		if r.TripID != tripID {
			continue
		}
		if len(statuses) > 0 {
			matched := false
			for _, s := range statuses {
				if r.Status == s {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		copy := *r
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, id string, status, expectedPrior domain.RequestStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if req.Status != expectedPrior {
		return repository.ErrConflict
	}
	req.Status = status
	req.UpdatedAt = time.Now()
	return nil
}

func (m *MockRequestRepository) ListRiderHistory(ctx context.Context, riderID string) ([]*domain.Trip, error) {
	if m.ListHistoryError != nil {
		return nil, m.ListHistoryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.history[riderID], nil
}

// GetRequest returns the request by ID (for test assertions).
func (m *MockRequestRepository) GetRequest(id string) *domain.BookingRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[id]
}

// CountWithStatus counts a trip's requests in the given status.
func (m *MockRequestRepository) CountWithStatus(tripID string, status domain.RequestStatus) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, r := range m.requests {
		if r.TripID == tripID && r.Status == status {
			count++
		}
	}
	return count
}

// SeatsHeld sums the seats of the trip's accepted and checked-in requests.
func (m *MockRequestRepository) SeatsHeld(tripID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, r := range m.requests {
		if r.TripID == tripID && r.Status.HoldsSeats() {
			total += r.RequestedSeats
		}
	}
	return total
}

func (m *MockRequestRepository) snapshot() map[string]domain.BookingRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]domain.BookingRequest, len(m.requests))
	for id, r := range m.requests {
		snap[id] = *r
	}
	return snap
}

func (m *MockRequestRepository) restore(snap map[string]domain.BookingRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = make(map[string]*domain.BookingRequest, len(snap))
	for id := range snap {
		r := snap[id]
		m.requests[id] = &r
	}
}

// ──────────────────────────────────────────────
// MOCK TX RUNNER
// ──────────────────────────────────────────────

// MockTxRunner runs the function against the shared mocks under a global
// mutex, with snapshot-and-restore standing in for rollback. Transactions
// are serialized the way row locks would serialize them in postgres, while
// reads taken before WithinTx still see stale state, so compare-and-swap
// conflicts occur exactly where they would against the real store.
type MockTxRunner struct {
	mu       sync.Mutex
	trips    *MockTripRepository
	requests *MockRequestRepository

	// Counters for verification
	WithinTxCallCount int32

	// Error injection
	BeginError error
}

// NewMockTxRunner creates a new mock tx runner over the given mocks.
func NewMockTxRunner(trips *MockTripRepository, requests *MockRequestRepository) *MockTxRunner {
	return &MockTxRunner{trips: trips, requests: requests}
}

func (m *MockTxRunner) WithinTx(ctx context.Context, fn func(trips repository.TripRepository, requests repository.RequestRepository) error) error {
	atomic.AddInt32(&m.WithinTxCallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tripSnap := m.trips.snapshot()
	reqSnap := m.requests.snapshot()

	if err := fn(m.trips, m.requests); err != nil {
		m.trips.restore(tripSnap)
		m.requests.restore(reqSnap)
		return err
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]domain.Coordinates

	// Counters
	UpdateLocationCallCount  int32
	CurrentLocationCallCount int32

	// Error injection
	UpdateLocationError  error
	CurrentLocationError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]domain.Coordinates),
	}
}

// SetLocation records a rider position for test setup.
func (m *MockLocationStore) SetLocation(riderID string, coords domain.Coordinates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[riderID] = coords
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, riderID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[riderID] = domain.Coordinates{Lat: lat, Lng: lng}
	return nil
}

func (m *MockLocationStore) CurrentLocation(ctx context.Context, riderID string) (domain.Coordinates, error) {
	atomic.AddInt32(&m.CurrentLocationCallCount, 1)
	if m.CurrentLocationError != nil {
		return domain.Coordinates{}, m.CurrentLocationError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	coords, ok := m.locations[riderID]
	if !ok {
		return domain.Coordinates{}, redis.ErrLocationUnknown
	}
	return coords, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, riderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, riderID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:trip:" + tripID
	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:trip:"+tripID)
	return nil
}

// IsLocked checks if a trip is locked (for test assertions).
func (m *MockLockStore) IsLocked(tripID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:trip:"+tripID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// CAPTURE NOTIFIER
// ──────────────────────────────────────────────

// CapturedNotification records one delivered notification.
type CapturedNotification struct {
	Type      service.NotificationType
	RequestID string
}

// CaptureNotifier is a Notifier that records deliveries for assertions.
type CaptureNotifier struct {
	mu     sync.Mutex
	events []CapturedNotification
}

// NewCaptureNotifier creates a new capture notifier.
func NewCaptureNotifier() *CaptureNotifier {
	return &CaptureNotifier{}
}

func (n *CaptureNotifier) record(t service.NotificationType, req *domain.BookingRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, CapturedNotification{Type: t, RequestID: req.ID})
}

func (n *CaptureNotifier) NotifyRequestReceived(ctx context.Context, trip *domain.Trip, req *domain.BookingRequest) {
	n.record(service.NotificationRequestReceived, req)
}

func (n *CaptureNotifier) NotifyRequestAccepted(ctx context.Context, req *domain.BookingRequest) {
	n.record(service.NotificationRequestAccepted, req)
}

func (n *CaptureNotifier) NotifyRequestRejected(ctx context.Context, req *domain.BookingRequest) {
	n.record(service.NotificationRequestRejected, req)
}

func (n *CaptureNotifier) NotifyBookingCancelled(ctx context.Context, req *domain.BookingRequest) {
	n.record(service.NotificationBookingCancelled, req)
}

func (n *CaptureNotifier) NotifyCheckedIn(ctx context.Context, trip *domain.Trip, req *domain.BookingRequest) {
	n.record(service.NotificationRiderCheckedIn, req)
}

func (n *CaptureNotifier) NotifyCheckedOut(ctx context.Context, trip *domain.Trip, req *domain.BookingRequest) {
	n.record(service.NotificationRiderCheckedOut, req)
}

// CountOf returns how many notifications of the given type were delivered.
func (n *CaptureNotifier) CountOf(t service.NotificationType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, e := range n.events {
		if e.Type == t {
			count++
		}
	}
	return count
}
