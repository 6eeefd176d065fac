package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// LocalityRepository is a PostgreSQL implementation of repository.LocalityRepository.
type LocalityRepository struct {
	db *sql.DB
}

// NewLocalityRepository creates a new PostgreSQL locality repository.
func NewLocalityRepository(db *sql.DB) *LocalityRepository {
	return &LocalityRepository{db: db}
}

// Create adds a new locality.
func (r *LocalityRepository) Create(ctx context.Context, locality *domain.Locality) error {
	query := `INSERT INTO localities (id, name, created_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, locality.ID, locality.Name, locality.CreatedAt)
	return err
}

// GetByID retrieves a locality by ID.
func (r *LocalityRepository) GetByID(ctx context.Context, id string) (*domain.Locality, error) {
	query := `SELECT id, name, created_at FROM localities WHERE id = $1`

	var locality domain.Locality
	err := r.db.QueryRowContext(ctx, query, id).Scan(&locality.ID, &locality.Name, &locality.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &locality, nil
}

// GetAll retrieves all localities.
func (r *LocalityRepository) GetAll(ctx context.Context) ([]*domain.Locality, error) {
	query := `SELECT id, name, created_at FROM localities ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var localities []*domain.Locality
	for rows.Next() {
		var locality domain.Locality
		if err := rows.Scan(&locality.ID, &locality.Name, &locality.CreatedAt); err != nil {
			return nil, err
		}
		localities = append(localities, &locality)
	}

	return localities, rows.Err()
}

// Ensure LocalityRepository implements repository.LocalityRepository.
var _ repository.LocalityRepository = (*LocalityRepository)(nil)
