package repository

import (
	"context"
	"time"

	"fleet/internal/domain"
)

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// Create adds a new vehicle.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetByRegistration retrieves a vehicle by registration code.
	GetByRegistration(ctx context.Context, registration string) (*domain.Vehicle, error)

	// GetAll retrieves all vehicles ordered by ID.
	GetAll(ctx context.Context) ([]*domain.Vehicle, error)

	// ListByStatus retrieves non-disabled vehicles in the given status,
	// ordered by ID ascending.
	ListByStatus(ctx context.Context, status domain.VehicleStatus) ([]*domain.Vehicle, error)

	// ListDowntimeStartsDue retrieves OPERATIVE vehicles whose pending
	// downtime window starts at or before now, up to limit.
	ListDowntimeStartsDue(ctx context.Context, now time.Time, limit int) ([]*domain.Vehicle, error)

	// ListDowntimeEndsDue retrieves MAINTENANCE/OUT_OF_SERVICE vehicles
	// whose downtime window ends at or before now, up to limit.
	ListDowntimeEndsDue(ctx context.Context, now time.Time, limit int) ([]*domain.Vehicle, error)

	// Update updates an existing vehicle.
	Update(ctx context.Context, vehicle *domain.Vehicle) error

	// TransitionStatus moves the vehicle to the target status only if it
	// is still in one of the given source statuses. Returns
	// ErrStaleStatus otherwise.
	TransitionStatus(ctx context.Context, id string, to domain.VehicleStatus, from ...domain.VehicleStatus) error

	// SetDisabled soft-disables or re-enables a vehicle.
	SetDisabled(ctx context.Context, id string, disabled bool) error
}
