package service

import (
	"context"
	"time"

	"fleet/internal/config"
	"fleet/internal/domain"
	"fleet/internal/redis"
	"fleet/internal/repository"
)

const vehicleLockTTL = 10 * time.Second

// AllocatorService picks a vehicle for a requested trip window. It is a
// pure decision component: it never persists the trip, the caller does.
type AllocatorService struct {
	vehicleRepo  repository.VehicleRepository
	tripRepo     repository.TripRepository
	localityRepo repository.LocalityRepository
	lockStore    redis.LockStoreInterface
	cfg          config.AllocatorConfig
}

// NewAllocatorService creates a new AllocatorService.
func NewAllocatorService(
	vehicleRepo repository.VehicleRepository,
	tripRepo repository.TripRepository,
	localityRepo repository.LocalityRepository,
	lockStore redis.LockStoreInterface,
	cfg config.AllocatorConfig,
) *AllocatorService {
	return &AllocatorService{
		vehicleRepo:  vehicleRepo,
		tripRepo:     tripRepo,
		localityRepo: localityRepo,
		lockStore:    lockStore,
		cfg:          cfg,
	}
}

// AssignRequest contains the parameters for a vehicle assignment.
type AssignRequest struct {
	DepartureAt   time.Time
	ArrivalAt     time.Time
	OriginID      string
	DestinationID string
}

// AssignVehicle finds the first operative vehicle that can cover the
// requested window. Candidates are evaluated in ascending vehicle-id order
// so results are deterministic. Each candidate must pass four checks:
//
//  1. no SCHEDULED/IN_PROGRESS trip strictly overlapping the window
//  2. projected location at departure equals the requested origin
//  3. turnaround buffer after the prior trip's arrival
//  4. forward buffer before the vehicle's next scheduled trip (short when
//     that trip departs from the new destination, long otherwise)
//
// On success a short-lived vehicle lock is held so two concurrent
// assignments cannot pick the same vehicle for overlapping windows; the
// lock expires via TTL once the caller has persisted the trip.
func (s *AllocatorService) AssignVehicle(ctx context.Context, req AssignRequest) (*domain.Vehicle, error) {
	if !req.DepartureAt.Before(req.ArrivalAt) {
		return nil, ErrInvalidTimeWindow
	}
	if req.OriginID == req.DestinationID {
		return nil, ErrSameOriginDestination
	}

	// Both endpoints must resolve.
	if _, err := s.localityRepo.GetByID(ctx, req.OriginID); err != nil {
		return nil, err
	}
	if _, err := s.localityRepo.GetByID(ctx, req.DestinationID); err != nil {
		return nil, err
	}

	candidates, err := s.vehicleRepo.ListByStatus(ctx, domain.VehicleStatusOperative)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, ErrNoOperativeVehicles
	}

	for _, vehicle := range candidates {
		fits, err := s.vehicleFits(ctx, vehicle, req)
		if err != nil {
			return nil, err
		}
		if !fits {
			continue
		}

		if s.lockStore != nil {
			locked, err := s.lockStore.AcquireVehicleLock(ctx, vehicle.ID, vehicleLockTTL)
			if err != nil {
				return nil, err
			}
			if !locked {
				// Another assignment is committing this vehicle.
				continue
			}

			// Re-run the overlap check under the lock: a concurrent
			// assignment may have committed before we acquired it.
			overlapping, err := s.tripRepo.FindOverlapping(ctx, vehicle.ID, req.DepartureAt, req.ArrivalAt)
			if err != nil {
				_ = s.lockStore.ReleaseVehicleLock(ctx, vehicle.ID)
				return nil, err
			}
			if len(overlapping) > 0 {
				_ = s.lockStore.ReleaseVehicleLock(ctx, vehicle.ID)
				continue
			}
		}

		// Lock expires via TTL after the caller persists the trip.
		return vehicle, nil
	}

	return nil, ErrNoCompatibleVehicle
}

// vehicleFits runs the four schedule checks for one candidate.
func (s *AllocatorService) vehicleFits(ctx context.Context, vehicle *domain.Vehicle, req AssignRequest) (bool, error) {
	overlapping, err := s.tripRepo.FindOverlapping(ctx, vehicle.ID, req.DepartureAt, req.ArrivalAt)
	if err != nil {
		return false, err
	}
	if len(overlapping) > 0 {
		return false, nil
	}

	prior, err := s.tripRepo.LastEndingBefore(ctx, vehicle.ID, req.DepartureAt)
	if err != nil {
		return false, err
	}

	// Projected location at departure: destination of the latest active
	// trip ending before the window, or the stored current location.
	projected := vehicle.LocalityID
	if prior != nil {
		projected = prior.DestinationID
	}
	if projected != req.OriginID {
		return false, nil
	}

	// The vehicle needs dwell time at the origin before departing again.
	if prior != nil && prior.ArrivalAt.Add(s.cfg.Turnaround).After(req.DepartureAt) {
		return false, nil
	}

	next, err := s.tripRepo.NextStartingAfter(ctx, vehicle.ID, req.ArrivalAt)
	if err != nil {
		return false, err
	}
	if next != nil {
		gap := s.cfg.RepositionGap
		if next.OriginID == req.DestinationID {
			gap = s.cfg.SameLocationGap
		}
		if req.ArrivalAt.Add(gap).After(next.DepartureAt) {
			return false, nil
		}
	}

	return true, nil
}
