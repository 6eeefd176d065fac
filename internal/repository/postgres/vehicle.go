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

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// NewVehicleRepositoryWithTx creates a vehicle repository using a transaction.
func NewVehicleRepositoryWithTx(tx *sql.Tx) *VehicleRepository {
	return &VehicleRepository{q: tx}
}

const vehicleColumns = `id, registration, capacity, status, locality_id, disabled, downtime_start, downtime_end, COALESCE(downtime_target, ''), downtime_pending`

// Create adds a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, registration, capacity, status, locality_id, disabled, downtime_start, downtime_end, downtime_target, downtime_pending)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		vehicle.ID,
		vehicle.Registration,
		vehicle.Capacity,
		vehicle.Status,
		vehicle.LocalityID,
		vehicle.Disabled,
		nullTime(vehicle.DowntimeStart),
		nullTime(vehicle.DowntimeEnd),
		string(vehicle.DowntimeTarget),
		vehicle.DowntimePending,
	)

	return err
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByRegistration retrieves a vehicle by registration code.
func (r *VehicleRepository) GetByRegistration(ctx context.Context, registration string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE registration = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, registration))
}

// GetAll retrieves all vehicles ordered by ID.
func (r *VehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY id`
	return r.queryMany(ctx, query)
}

// ListByStatus retrieves non-disabled vehicles in the given status, ordered by ID.
func (r *VehicleRepository) ListByStatus(ctx context.Context, status domain.VehicleStatus) ([]*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE status = $1 AND NOT disabled ORDER BY id`
	return r.queryMany(ctx, query, status)
}

// ListDowntimeStartsDue retrieves OPERATIVE vehicles whose pending downtime
// window starts at or before now.
func (r *VehicleRepository) ListDowntimeStartsDue(ctx context.Context, now time.Time, limit int) ([]*domain.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + ` FROM vehicles
		WHERE status = $1 AND downtime_pending AND downtime_start <= $2
		ORDER BY downtime_start LIMIT $3
	`
	return r.queryMany(ctx, query, domain.VehicleStatusOperative, now, limit)
}

// ListDowntimeEndsDue retrieves vehicles in a downtime status whose window
// ends at or before now.
func (r *VehicleRepository) ListDowntimeEndsDue(ctx context.Context, now time.Time, limit int) ([]*domain.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + ` FROM vehicles
		WHERE status IN ($1, $2) AND downtime_end IS NOT NULL AND downtime_end <= $3
		ORDER BY downtime_end LIMIT $4
	`
	return r.queryMany(ctx, query, domain.VehicleStatusMaintenance, domain.VehicleStatusOutOfService, now, limit)
}

// Update updates an existing vehicle.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		UPDATE vehicles
		SET registration = $1, capacity = $2, status = $3, locality_id = $4, disabled = $5,
		    downtime_start = $6, downtime_end = $7, downtime_target = NULLIF($8, ''), downtime_pending = $9
		WHERE id = $10
	`

	result, err := r.q.ExecContext(ctx, query,
		vehicle.Registration,
		vehicle.Capacity,
		vehicle.Status,
		vehicle.LocalityID,
		vehicle.Disabled,
		nullTime(vehicle.DowntimeStart),
		nullTime(vehicle.DowntimeEnd),
		string(vehicle.DowntimeTarget),
		vehicle.DowntimePending,
		vehicle.ID,
	)
	if err != nil {
		return err
	}

	return requireRows(result)
}

// TransitionStatus moves the vehicle to the target status only while it is
// still in one of the source statuses. Zero affected rows surfaces as
// repository.ErrStaleStatus.
func (r *VehicleRepository) TransitionStatus(ctx context.Context, id string, to domain.VehicleStatus, from ...domain.VehicleStatus) error {
	query := `UPDATE vehicles SET status = $1 WHERE id = $2 AND status = ANY($3)`

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

// SetDisabled soft-disables or re-enables a vehicle.
func (r *VehicleRepository) SetDisabled(ctx context.Context, id string, disabled bool) error {
	query := `UPDATE vehicles SET disabled = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, disabled, id)
	if err != nil {
		return err
	}

	return requireRows(result)
}

func (r *VehicleRepository) scanOne(row *sql.Row) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	var downtimeStart, downtimeEnd sql.NullTime
	var downtimeTarget string

	err := row.Scan(
		&vehicle.ID,
		&vehicle.Registration,
		&vehicle.Capacity,
		&vehicle.Status,
		&vehicle.LocalityID,
		&vehicle.Disabled,
		&downtimeStart,
		&downtimeEnd,
		&downtimeTarget,
		&vehicle.DowntimePending,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if downtimeStart.Valid {
		vehicle.DowntimeStart = downtimeStart.Time
	}
	if downtimeEnd.Valid {
		vehicle.DowntimeEnd = downtimeEnd.Time
	}
	vehicle.DowntimeTarget = domain.VehicleStatus(downtimeTarget)

	return &vehicle, nil
}

func (r *VehicleRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Vehicle, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		var vehicle domain.Vehicle
		var downtimeStart, downtimeEnd sql.NullTime
		var downtimeTarget string

		if err := rows.Scan(
			&vehicle.ID,
			&vehicle.Registration,
			&vehicle.Capacity,
			&vehicle.Status,
			&vehicle.LocalityID,
			&vehicle.Disabled,
			&downtimeStart,
			&downtimeEnd,
			&downtimeTarget,
			&vehicle.DowntimePending,
		); err != nil {
			return nil, err
		}

		if downtimeStart.Valid {
			vehicle.DowntimeStart = downtimeStart.Time
		}
		if downtimeEnd.Valid {
			vehicle.DowntimeEnd = downtimeEnd.Time
		}
		vehicle.DowntimeTarget = domain.VehicleStatus(downtimeTarget)

		vehicles = append(vehicles, &vehicle)
	}

	return vehicles, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func requireRows(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure VehicleRepository implements repository.VehicleRepository.
var _ repository.VehicleRepository = (*VehicleRepository)(nil)
