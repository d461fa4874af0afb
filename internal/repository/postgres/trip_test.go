package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

var tripTestColumns = []string{
	"id", "driver_id", "origin_address", "destination_address",
	"origin_lat", "origin_lng", "destination_lat", "destination_lng",
	"departs_at", "total_seats", "available_seats", "status", "recurring", "recurring_days", "created_at",
}

func TestTripRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTripRepository(db)

	t.Run("Success", func(t *testing.T) {
		trip := &domain.Trip{
			ID:                 "trip-1",
			DriverID:           "driver-1",
			OriginAddress:      "12 Oak Street",
			DestinationAddress: "Central Station",
			Origin:             domain.Coordinates{Lat: 52.52, Lng: 13.405},
			Destination:        domain.Coordinates{Lat: 52.50, Lng: 13.42},
			DepartsAt:          time.Now().Add(24 * time.Hour),
			TotalSeats:         4,
			AvailableSeats:     4,
			Status:             domain.TripStatusAvailable,
			Recurring:          true,
			RecurringDays:      []time.Weekday{time.Monday, time.Wednesday},
			CreatedAt:          time.Now(),
		}

		mock.ExpectExec(`INSERT INTO trips`).
			WithArgs(
				trip.ID, trip.DriverID, trip.OriginAddress, trip.DestinationAddress,
				trip.Origin.Lat, trip.Origin.Lng, trip.Destination.Lat, trip.Destination.Lng,
				trip.DepartsAt, trip.TotalSeats, trip.AvailableSeats, trip.Status,
				trip.Recurring, sqlmock.AnyArg(), trip.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(context.Background(), trip)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO trips`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Create(context.Background(), &domain.Trip{ID: "trip-2"})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTripRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTripRepository(db)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		departs := now.Add(24 * time.Hour)

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id`).
			WithArgs("trip-1").
			WillReturnRows(sqlmock.NewRows(tripTestColumns).AddRow(
				"trip-1", "driver-1", "12 Oak Street", "Central Station",
				52.52, 13.405, 52.50, 13.42,
				departs, 4, 2, "AVAILABLE", true, []byte(`{1,3}`), now,
			))

		trip, err := repo.GetByID(context.Background(), "trip-1")
		require.NoError(t, err)
		assert.Equal(t, "trip-1", trip.ID)
		assert.Equal(t, 2, trip.AvailableSeats)
		assert.Equal(t, domain.TripStatusAvailable, trip.Status)
		assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, trip.RecurringDays)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(tripTestColumns))

		trip, err := repo.GetByID(context.Background(), "missing")
		assert.Nil(t, trip)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTripRepository_ListFuture(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTripRepository(db)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		cutoff := now

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE departs_at`).
			WithArgs(cutoff).
			WillReturnRows(sqlmock.NewRows(tripTestColumns).
				AddRow(
					"trip-1", "driver-1", "A", "B",
					0.0, 0.0, 0.0, 0.0,
					now.Add(time.Hour), 4, 4, "AVAILABLE", false, []byte(`{}`), now,
				).
				AddRow(
					"trip-2", "driver-2", "C", "D",
					0.0, 0.0, 0.0, 0.0,
					now.Add(2*time.Hour), 3, 0, "FULL", false, []byte(`{}`), now,
				))

		trips, err := repo.ListFuture(context.Background(), cutoff)
		require.NoError(t, err)
		require.Len(t, trips, 2)
		assert.Equal(t, "trip-1", trips[0].ID)
		assert.Equal(t, domain.TripStatusFull, trips[1].Status)
		assert.Nil(t, trips[0].RecurringDays)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty", func(t *testing.T) {
		cutoff := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE departs_at`).
			WithArgs(cutoff).
			WillReturnRows(sqlmock.NewRows(tripTestColumns))

		trips, err := repo.ListFuture(context.Background(), cutoff)
		require.NoError(t, err)
		assert.Empty(t, trips)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTripRepository_UpdateCapacity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTripRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE trips`).
			WithArgs(1, domain.TripStatusAvailable, "trip-1", 4, domain.TripStatusAvailable).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateCapacity(ctx, "trip-1", 1, domain.TripStatusAvailable, 4, domain.TripStatusAvailable)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Conflict When Row Changed", func(t *testing.T) {
		// Zero rows matched but the trip exists: another writer won the swap.
		mock.ExpectExec(`UPDATE trips`).
			WithArgs(0, domain.TripStatusFull, "trip-1", 2, domain.TripStatusAvailable).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("trip-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := repo.UpdateCapacity(ctx, "trip-1", 0, domain.TripStatusFull, 2, domain.TripStatusAvailable)
		assert.ErrorIs(t, err, repository.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE trips`).
			WithArgs(0, domain.TripStatusFull, "missing", 2, domain.TripStatusAvailable).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := repo.UpdateCapacity(ctx, "missing", 0, domain.TripStatusFull, 2, domain.TripStatusAvailable)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
