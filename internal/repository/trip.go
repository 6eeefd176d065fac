package repository

import (
	"context"
	"time"

	"fleet/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetAll retrieves recent trips.
	GetAll(ctx context.Context) ([]*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// TransitionStatus moves the trip to the target status only if it is
	// still in one of the given source statuses. Returns ErrStaleStatus
	// otherwise, so lifecycle writers never overwrite a concurrent
	// transition.
	TransitionStatus(ctx context.Context, id string, to domain.TripStatus, from ...domain.TripStatus) error

	// FindOverlapping retrieves the vehicle's SCHEDULED/IN_PROGRESS trips
	// whose window strictly overlaps [start, end).
	FindOverlapping(ctx context.Context, vehicleID string, start, end time.Time) ([]*domain.Trip, error)

	// LastEndingBefore retrieves the vehicle's latest SCHEDULED/IN_PROGRESS
	// trip whose arrival is strictly before t. Returns nil if none exists.
	LastEndingBefore(ctx context.Context, vehicleID string, t time.Time) (*domain.Trip, error)

	// NextStartingAfter retrieves the vehicle's earliest SCHEDULED trip
	// whose departure is strictly after t. Returns nil if none exists.
	NextStartingAfter(ctx context.Context, vehicleID string, t time.Time) (*domain.Trip, error)

	// ListScheduledEndedBefore retrieves SCHEDULED trips whose arrival is
	// at or before now, up to limit.
	ListScheduledEndedBefore(ctx context.Context, now time.Time, limit int) ([]*domain.Trip, error)

	// ListScheduledStartedBefore retrieves SCHEDULED trips whose departure
	// is at or before now, up to limit.
	ListScheduledStartedBefore(ctx context.Context, now time.Time, limit int) ([]*domain.Trip, error)

	// ListInProgressEndedBefore retrieves IN_PROGRESS trips whose arrival
	// is at or before now, up to limit.
	ListInProgressEndedBefore(ctx context.Context, now time.Time, limit int) ([]*domain.Trip, error)

	// AdjustSeatsFree adds delta to the trip's free-seat counter.
	AdjustSeatsFree(ctx context.Context, tripID string, delta int) error
}
