package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const requestColumns = `id, trip_id, rider_id, rider_name, requested_seats, status, pickup_waypoint, created_at, updated_at`

// RequestRepository is a PostgreSQL implementation of repository.RequestRepository.
type RequestRepository struct {
	q Querier
}

// NewRequestRepository creates a new PostgreSQL booking request repository.
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{q: db}
}

// NewRequestRepositoryWithTx creates a request repository using a transaction.
func NewRequestRepositoryWithTx(tx *sql.Tx) *RequestRepository {
	return &RequestRepository{q: tx}
}

// Create persists a new booking request. The WHERE NOT EXISTS guard makes the
// per-(rider, trip) liveness check and the insert a single atomic statement,
// so two concurrent creates from the same rider cannot both land.
func (r *RequestRepository) Create(ctx context.Context, req *domain.BookingRequest) error {
	query := `
		INSERT INTO booking_requests (` + requestColumns + `)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		WHERE NOT EXISTS (
			SELECT 1 FROM booking_requests
			WHERE trip_id = $2 AND rider_id = $3 AND status = ANY($10)
		)
	`

	var waypoint sql.NullString
	if req.PickupWaypoint != "" {
		waypoint = sql.NullString{String: req.PickupWaypoint, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		req.ID,
		req.TripID,
		req.RiderID,
		req.RiderName,
		req.RequestedSeats,
		req.Status,
		waypoint,
		req.CreatedAt,
		req.UpdatedAt,
		pq.Array(statusStrings(domain.LiveRequestStatuses)),
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrDuplicateRequest
	}

	return nil
}

// GetByID retrieves a booking request by ID.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.BookingRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM booking_requests WHERE id = $1`

	req, err := scanRequest(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return req, nil
}

// ListForTrip retrieves the trip's requests filtered by status set.
func (r *RequestRepository) ListForTrip(ctx context.Context, tripID string, statuses []domain.RequestStatus) ([]*domain.BookingRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM booking_requests WHERE trip_id = $1`
	args := []any{tripID}

	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(statusStrings(statuses)))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*domain.BookingRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// UpdateStatus conditionally transitions a request. The expected-prior guard
// in the WHERE clause is the compare-and-swap.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, status, expectedPrior domain.RequestStatus) error {
	query := `
		UPDATE booking_requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.q.ExecContext(ctx, query, status, id, expectedPrior)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		var exists bool
		if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM booking_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	return nil
}

// ListRiderHistory retrieves the trips a rider took part in, as the driver or
// through a request that reached accepted or beyond. Feeds route-affinity
// aggregation.
func (r *RequestRepository) ListRiderHistory(ctx context.Context, riderID string) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + ` FROM trips WHERE driver_id = $1
		UNION
		SELECT t.id, t.driver_id, t.origin_address, t.destination_address,
			t.origin_lat, t.origin_lng, t.destination_lat, t.destination_lng,
			t.departs_at, t.total_seats, t.available_seats, t.status, t.recurring, t.recurring_days, t.created_at
		FROM trips t
		JOIN booking_requests br ON br.trip_id = t.id
		WHERE br.rider_id = $1 AND br.status = ANY($2)
		ORDER BY departs_at DESC
	`

	ridden := []domain.RequestStatus{
		domain.RequestStatusAccepted,
		domain.RequestStatusCheckedIn,
		domain.RequestStatusCheckedOut,
	}

	rows, err := r.q.QueryContext(ctx, query, riderID, pq.Array(statusStrings(ridden)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTrips(rows)
}

func scanRequest(row rowScanner) (*domain.BookingRequest, error) {
	var req domain.BookingRequest
	var waypoint sql.NullString

	if err := row.Scan(
		&req.ID,
		&req.TripID,
		&req.RiderID,
		&req.RiderName,
		&req.RequestedSeats,
		&req.Status,
		&waypoint,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if waypoint.Valid {
		req.PickupWaypoint = waypoint.String
	}

	return &req, nil
}

func statusStrings(statuses []domain.RequestStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Ensure RequestRepository implements repository.RequestRepository.
var _ repository.RequestRepository = (*RequestRepository)(nil)
