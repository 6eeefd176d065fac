package repository

import (
	"context"

	"fleet/internal/domain"
)

// LocalityRepository defines the persistence operations for localities.
// GetByID doubles as the locality resolution contract consumed by the
// allocator: unknown IDs return ErrNotFound.
type LocalityRepository interface {
	// Create adds a new locality.
	Create(ctx context.Context, locality *domain.Locality) error

	// GetByID retrieves a locality by ID.
	GetByID(ctx context.Context, id string) (*domain.Locality, error)

	// GetAll retrieves all localities.
	GetAll(ctx context.Context) ([]*domain.Locality, error)
}
