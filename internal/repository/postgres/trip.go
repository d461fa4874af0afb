package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const tripColumns = `id, driver_id, origin_address, destination_address,
		origin_lat, origin_lng, destination_lat, destination_lng,
		departs_at, total_seats, available_seats, status, recurring, recurring_days, created_at`

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.DriverID,
		trip.OriginAddress,
		trip.DestinationAddress,
		trip.Origin.Lat,
		trip.Origin.Lng,
		trip.Destination.Lat,
		trip.Destination.Lng,
		trip.DepartsAt,
		trip.TotalSeats,
		trip.AvailableSeats,
		trip.Status,
		trip.Recurring,
		pq.Array(weekdaysToInts(trip.RecurringDays)),
		trip.CreatedAt,
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// GetAll retrieves recently published trips.
func (r *TripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTrips(rows)
}

// ListFuture retrieves trips departing strictly after the given instant.
func (r *TripRepository) ListFuture(ctx context.Context, after time.Time) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE departs_at > $1 ORDER BY departs_at ASC`

	rows, err := r.q.QueryContext(ctx, query, after)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTrips(rows)
}

// UpdateCapacity conditionally writes the trip's seat availability and status.
// The WHERE clause is the compare-and-swap: if another writer changed the row
// since it was read, zero rows match and ErrConflict is returned.
func (r *TripRepository) UpdateCapacity(ctx context.Context, id string, availableSeats int, status domain.TripStatus, expectedSeats int, expectedStatus domain.TripStatus) error {
	query := `
		UPDATE trips
		SET available_seats = $1, status = $2
		WHERE id = $3 AND available_seats = $4 AND status = $5
	`

	result, err := r.q.ExecContext(ctx, query, availableSeats, status, id, expectedSeats, expectedStatus)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		var exists bool
		if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var days pq.Int64Array

	if err := row.Scan(
		&trip.ID,
		&trip.DriverID,
		&trip.OriginAddress,
		&trip.DestinationAddress,
		&trip.Origin.Lat,
		&trip.Origin.Lng,
		&trip.Destination.Lat,
		&trip.Destination.Lng,
		&trip.DepartsAt,
		&trip.TotalSeats,
		&trip.AvailableSeats,
		&trip.Status,
		&trip.Recurring,
		&days,
		&trip.CreatedAt,
	); err != nil {
		return nil, err
	}

	trip.RecurringDays = intsToWeekdays(days)
	return &trip, nil
}

func collectTrips(rows *sql.Rows) ([]*domain.Trip, error) {
	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

func weekdaysToInts(days []time.Weekday) []int64 {
	out := make([]int64, len(days))
	for i, d := range days {
		out[i] = int64(d)
	}
	return out
}

func intsToWeekdays(ints []int64) []time.Weekday {
	if len(ints) == 0 {
		return nil
	}
	out := make([]time.Weekday, len(ints))
	for i, v := range ints {
		out[i] = time.Weekday(v)
	}
	return out
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
