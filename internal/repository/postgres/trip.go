package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

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

const tripColumns = `id, vehicle_id, origin_id, destination_id, departure_at, arrival_at, status, total_seats, seats_free, price_per_seat, created_at`

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (id, vehicle_id, origin_id, destination_id, departure_at, arrival_at, status, total_seats, seats_free, price_per_seat, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.VehicleID,
		trip.OriginID,
		trip.DestinationID,
		trip.DepartureAt,
		trip.ArrivalAt,
		trip.Status,
		trip.TotalSeats,
		trip.SeatsFree,
		trip.PricePerSeat,
		trip.CreatedAt,
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetAll retrieves recent trips.
func (r *TripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips ORDER BY departure_at DESC LIMIT 100`
	return r.queryMany(ctx, query)
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET vehicle_id = $1, origin_id = $2, destination_id = $3, departure_at = $4, arrival_at = $5,
		    status = $6, total_seats = $7, seats_free = $8, price_per_seat = $9
		WHERE id = $10
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.VehicleID,
		trip.OriginID,
		trip.DestinationID,
		trip.DepartureAt,
		trip.ArrivalAt,
		trip.Status,
		trip.TotalSeats,
		trip.SeatsFree,
		trip.PricePerSeat,
		trip.ID,
	)
	if err != nil {
		return err
	}

	return requireRows(result)
}

// TransitionStatus moves the trip to the target status only while it is
// still in one of the source statuses. Zero affected rows means another
// writer got there first and surfaces as repository.ErrStaleStatus.
func (r *TripRepository) TransitionStatus(ctx context.Context, id string, to domain.TripStatus, from ...domain.TripStatus) error {
	query := `UPDATE trips SET status = $1 WHERE id = $2 AND status = ANY($3)`

	sources := make([]string, len(from))
	for i, status := range from {
		sources[i] = string(status)
	}

	result, err := r.q.ExecContext(ctx, query, to, id, pq.Array(sources))
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrStaleStatus
	}

	return nil
}

// FindOverlapping retrieves the vehicle's active trips whose window strictly
// overlaps [start, end): existing.departure < end AND existing.arrival > start.
func (r *TripRepository) FindOverlapping(ctx context.Context, vehicleID string, start, end time.Time) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + ` FROM trips
		WHERE vehicle_id = $1 AND status IN ($2, $3)
		  AND departure_at < $4 AND arrival_at > $5
		ORDER BY departure_at
	`
	return r.queryMany(ctx, query, vehicleID, domain.TripStatusScheduled, domain.TripStatusInProgress, end, start)
}

// LastEndingBefore retrieves the vehicle's latest active trip arriving
// strictly before t. Returns nil if no such trip exists.
func (r *TripRepository) LastEndingBefore(ctx context.Context, vehicleID string, t time.Time) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + ` FROM trips
		WHERE vehicle_id = $1 AND status IN ($2, $3) AND arrival_at < $4
		ORDER BY arrival_at DESC LIMIT 1
	`

	trip, err := r.scanOne(r.q.QueryRowContext(ctx, query, vehicleID, domain.TripStatusScheduled, domain.TripStatusInProgress, t))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return trip, err
}

// NextStartingAfter retrieves the vehicle's earliest SCHEDULED trip departing
// strictly after t. Returns nil if no such trip exists.
func (r *TripRepository) NextStartingAfter(ctx context.Context, vehicleID string, t time.Time) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + ` FROM trips
		WHERE vehicle_id = $1 AND status = $2 AND departure_at > $3
		ORDER BY departure_at LIMIT 1
	`

	trip, err := r.scanOne(r.q.QueryRowContext(ctx, query, vehicleID, domain.TripStatusScheduled, t))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return trip, err
}

// ListScheduledEndedBefore retrieves SCHEDULED trips whose arrival has passed.
func (r *TripRepository) ListScheduledEndedBefore(ctx context.Context, now time.Time, limit int) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + ` FROM trips
		WHERE status = $1 AND arrival_at <= $2
		ORDER BY arrival_at LIMIT $3
	`
	return r.queryMany(ctx, query, domain.TripStatusScheduled, now, limit)
}

// ListScheduledStartedBefore retrieves SCHEDULED trips whose departure has passed.
func (r *TripRepository) ListScheduledStartedBefore(ctx context.Context, now time.Time, limit int) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + ` FROM trips
		WHERE status = $1 AND departure_at <= $2
		ORDER BY departure_at LIMIT $3
	`
	return r.queryMany(ctx, query, domain.TripStatusScheduled, now, limit)
}

// ListInProgressEndedBefore retrieves IN_PROGRESS trips whose arrival has passed.
func (r *TripRepository) ListInProgressEndedBefore(ctx context.Context, now time.Time, limit int) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + ` FROM trips
		WHERE status = $1 AND arrival_at <= $2
		ORDER BY arrival_at LIMIT $3
	`
	return r.queryMany(ctx, query, domain.TripStatusInProgress, now, limit)
}

// AdjustSeatsFree adds delta to the trip's free-seat counter.
func (r *TripRepository) AdjustSeatsFree(ctx context.Context, tripID string, delta int) error {
	query := `UPDATE trips SET seats_free = seats_free + $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, delta, tripID)
	if err != nil {
		return err
	}

	return requireRows(result)
}

func (r *TripRepository) scanOne(row *sql.Row) (*domain.Trip, error) {
	var trip domain.Trip

	err := row.Scan(
		&trip.ID,
		&trip.VehicleID,
		&trip.OriginID,
		&trip.DestinationID,
		&trip.DepartureAt,
		&trip.ArrivalAt,
		&trip.Status,
		&trip.TotalSeats,
		&trip.SeatsFree,
		&trip.PricePerSeat,
		&trip.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &trip, nil
}

func (r *TripRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		var trip domain.Trip
		if err := rows.Scan(
			&trip.ID,
			&trip.VehicleID,
			&trip.OriginID,
			&trip.DestinationID,
			&trip.DepartureAt,
			&trip.ArrivalAt,
			&trip.Status,
			&trip.TotalSeats,
			&trip.SeatsFree,
			&trip.PricePerSeat,
			&trip.CreatedAt,
		); err != nil {
			return nil, err
		}
		trips = append(trips, &trip)
	}

	return trips, rows.Err()
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
