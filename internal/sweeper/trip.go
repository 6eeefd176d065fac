package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log"

	"fleet/internal/clock"
	"fleet/internal/domain"
	"fleet/internal/redis"
	"fleet/internal/repository"
)

// TripSweeper advances trip lifecycle state:
//
//  1. SCHEDULED trips whose arrival has passed finish directly (catches
//     trips never moved to IN_PROGRESS, e.g. after vehicle downtime)
//  2. SCHEDULED trips whose departure has passed go IN_PROGRESS and mark
//     their vehicle ASSIGNED_TO_TRIP
//  3. IN_PROGRESS trips whose arrival has passed finish
//
// Finishing a trip relocates its vehicle to the destination and sets it
// OPERATIVE; a missing vehicle record is logged and does not stop the sweep.
type TripSweeper struct {
	tripRepo    repository.TripRepository
	vehicleRepo repository.VehicleRepository
	cacheStore  *redis.CacheStore
	clk         clock.Clock
	batchSize   int
}

// NewTripSweeper creates a new TripSweeper.
func NewTripSweeper(
	tripRepo repository.TripRepository,
	vehicleRepo repository.VehicleRepository,
	cacheStore *redis.CacheStore,
	clk clock.Clock,
	batchSize int,
) *TripSweeper {
	return &TripSweeper{
		tripRepo:    tripRepo,
		vehicleRepo: vehicleRepo,
		cacheStore:  cacheStore,
		clk:         clk,
		batchSize:   batchSize,
	}
}

// Name implements Sweeper.
func (s *TripSweeper) Name() string {
	return "trips"
}

// RunOnce implements Sweeper.
func (s *TripSweeper) RunOnce(ctx context.Context) error {
	now := s.clk.Now()

	// Overdue SCHEDULED trips finish before the start pass so they are
	// never promoted to IN_PROGRESS on the same tick.
	overdue, err := s.tripRepo.ListScheduledEndedBefore(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list overdue scheduled trips: %w", err)
	}
	for _, trip := range overdue {
		s.finishTrip(ctx, trip)
	}

	starting, err := s.tripRepo.ListScheduledStartedBefore(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due scheduled trips: %w", err)
	}
	for _, trip := range starting {
		s.startTrip(ctx, trip)
	}

	ending, err := s.tripRepo.ListInProgressEndedBefore(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due in-progress trips: %w", err)
	}
	for _, trip := range ending {
		s.finishTrip(ctx, trip)
	}

	return nil
}

func (s *TripSweeper) startTrip(ctx context.Context, trip *domain.Trip) {
	err := s.tripRepo.TransitionStatus(ctx, trip.ID, domain.TripStatusInProgress, domain.TripStatusScheduled)
	if errors.Is(err, repository.ErrStaleStatus) {
		// Cancelled or finalized since the list read; nothing to do.
		return
	}
	if err != nil {
		log.Printf("trip sweep: start trip %s: %v", trip.ID, err)
		return
	}
	trip.Status = domain.TripStatusInProgress

	// Only an OPERATIVE vehicle picks up the assignment marker. A vehicle
	// already in MAINTENANCE or OUT_OF_SERVICE keeps its downtime status.
	err = s.vehicleRepo.TransitionStatus(ctx, trip.VehicleID,
		domain.VehicleStatusAssignedToTrip, domain.VehicleStatusOperative)
	if err != nil && !errors.Is(err, repository.ErrStaleStatus) {
		log.Printf("trip sweep: mark vehicle %s assigned for trip %s: %v", trip.VehicleID, trip.ID, err)
	}

	s.invalidate(ctx, trip)
}

func (s *TripSweeper) finishTrip(ctx context.Context, trip *domain.Trip) {
	err := s.tripRepo.TransitionStatus(ctx, trip.ID, domain.TripStatusFinished,
		domain.TripStatusScheduled, domain.TripStatusInProgress)
	if errors.Is(err, repository.ErrStaleStatus) {
		return
	}
	if err != nil {
		log.Printf("trip sweep: finish trip %s: %v", trip.ID, err)
		return
	}
	trip.Status = domain.TripStatusFinished

	vehicle, err := s.vehicleRepo.GetByID(ctx, trip.VehicleID)
	if err != nil {
		log.Printf("trip sweep: vehicle %s of finished trip %s not found: %v", trip.VehicleID, trip.ID, err)
		s.invalidate(ctx, trip)
		return
	}

	vehicle.LocalityID = trip.DestinationID
	vehicle.Status = domain.VehicleStatusOperative
	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		log.Printf("trip sweep: relocate vehicle %s after trip %s: %v", vehicle.ID, trip.ID, err)
	}

	s.invalidate(ctx, trip)
}

func (s *TripSweeper) invalidate(ctx context.Context, trip *domain.Trip) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateTrip(ctx, trip.ID)
	_ = s.cacheStore.InvalidateVehicle(ctx, trip.VehicleID)
}

// Ensure TripSweeper implements Sweeper.
var _ Sweeper = (*TripSweeper)(nil)
