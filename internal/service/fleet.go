package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fleet/internal/domain"
	"fleet/internal/redis"
	"fleet/internal/repository"
)

// FleetService handles vehicle registry operations and explicit vehicle
// lifecycle transitions.
type FleetService struct {
	vehicleRepo  repository.VehicleRepository
	tripRepo     repository.TripRepository
	localityRepo repository.LocalityRepository
	cacheStore   *redis.CacheStore
}

// NewFleetService creates a new FleetService.
func NewFleetService(
	vehicleRepo repository.VehicleRepository,
	tripRepo repository.TripRepository,
	localityRepo repository.LocalityRepository,
	cacheStore *redis.CacheStore,
) *FleetService {
	return &FleetService{
		vehicleRepo:  vehicleRepo,
		tripRepo:     tripRepo,
		localityRepo: localityRepo,
		cacheStore:   cacheStore,
	}
}

// RegisterVehicleRequest contains the parameters for registering a vehicle.
type RegisterVehicleRequest struct {
	Registration string
	Capacity     int
	LocalityID   string
}

// RegisterVehicle adds a new vehicle to the fleet in OPERATIVE status.
func (s *FleetService) RegisterVehicle(ctx context.Context, req RegisterVehicleRequest) (*domain.Vehicle, error) {
	if req.Registration == "" {
		return nil, ErrInvalidRegistration
	}
	if req.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if _, err := s.localityRepo.GetByID(ctx, req.LocalityID); err != nil {
		return nil, err
	}

	existing, err := s.vehicleRepo.GetByRegistration(ctx, req.Registration)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRegistrationTaken
	}

	vehicle := &domain.Vehicle{
		ID:           uuid.New().String(),
		Registration: req.Registration,
		Capacity:     req.Capacity,
		Status:       domain.VehicleStatusOperative,
		LocalityID:   req.LocalityID,
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, err
	}

	return vehicle, nil
}

// GetVehicle retrieves a vehicle by ID, serving short-lived snapshots from
// cache when available.
func (s *FleetService) GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetVehicle(ctx, vehicleID); err == nil && cached != nil {
			return &domain.Vehicle{
				ID:              cached.ID,
				Registration:    cached.Registration,
				Capacity:        cached.Capacity,
				Status:          domain.VehicleStatus(cached.Status),
				LocalityID:      cached.LocalityID,
				Disabled:        cached.Disabled,
				DowntimeStart:   cached.DowntimeStart,
				DowntimeEnd:     cached.DowntimeEnd,
				DowntimeTarget:  domain.VehicleStatus(cached.DowntimeTarget),
				DowntimePending: cached.DowntimePending,
			}, nil
		}
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetVehicle(ctx, &redis.CachedVehicle{
			ID:              vehicle.ID,
			Registration:    vehicle.Registration,
			Capacity:        vehicle.Capacity,
			Status:          string(vehicle.Status),
			LocalityID:      vehicle.LocalityID,
			Disabled:        vehicle.Disabled,
			DowntimeStart:   vehicle.DowntimeStart,
			DowntimeEnd:     vehicle.DowntimeEnd,
			DowntimeTarget:  string(vehicle.DowntimeTarget),
			DowntimePending: vehicle.DowntimePending,
		})
	}

	return vehicle, nil
}

// GetAllVehicles retrieves all vehicles.
func (s *FleetService) GetAllVehicles(ctx context.Context) ([]*domain.Vehicle, error) {
	return s.vehicleRepo.GetAll(ctx)
}

// ScheduleDowntimeRequest contains the parameters for scheduling downtime.
type ScheduleDowntimeRequest struct {
	VehicleID string
	Start     time.Time
	End       time.Time
	Target    domain.VehicleStatus
}

// ScheduleDowntime stores a maintenance or out-of-service window for a
// vehicle. The vehicle stays OPERATIVE until the window starts; the
// downtime sweeper applies the target status once the start time passes.
// Fails when the window overlaps any trip the vehicle is committed to.
func (s *FleetService) ScheduleDowntime(ctx context.Context, req ScheduleDowntimeRequest) (*domain.Vehicle, error) {
	if req.VehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	if !req.Start.Before(req.End) {
		return nil, ErrInvalidTimeWindow
	}
	if req.Target != domain.VehicleStatusMaintenance && req.Target != domain.VehicleStatusOutOfService {
		return nil, ErrInvalidDowntimeTarget
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}

	if vehicle.Status == domain.VehicleStatusAssignedToTrip {
		return nil, ErrVehicleAssigned
	}

	conflicting, err := s.tripRepo.FindOverlapping(ctx, vehicle.ID, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if len(conflicting) > 0 {
		return nil, &DowntimeConflictError{VehicleID: vehicle.ID, Trips: conflicting}
	}

	vehicle.DowntimeStart = req.Start
	vehicle.DowntimeEnd = req.End
	vehicle.DowntimeTarget = req.Target
	vehicle.DowntimePending = true

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		return nil, err
	}

	s.invalidateVehicleCache(ctx, vehicle.ID)

	return vehicle, nil
}

// MarkOperative sets a vehicle back to OPERATIVE and clears any pending or
// active downtime window. A no-op if the vehicle is already OPERATIVE with
// no downtime stored.
func (s *FleetService) MarkOperative(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if vehicle.Status == domain.VehicleStatusAssignedToTrip {
		return nil, ErrVehicleAssigned
	}

	if vehicle.Status == domain.VehicleStatusOperative && !vehicle.HasDowntime() {
		return vehicle, nil
	}

	vehicle.Status = domain.VehicleStatusOperative
	vehicle.ClearDowntime()

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		return nil, err
	}

	s.invalidateVehicleCache(ctx, vehicle.ID)

	return vehicle, nil
}

// DisableVehicle soft-disables a vehicle: it keeps its records but stops
// being an allocation candidate. Vehicles are never deleted.
func (s *FleetService) DisableVehicle(ctx context.Context, vehicleID string) error {
	if vehicleID == "" {
		return ErrInvalidVehicleID
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return err
	}

	if vehicle.Status == domain.VehicleStatusAssignedToTrip {
		return ErrVehicleAssigned
	}

	if err := s.vehicleRepo.SetDisabled(ctx, vehicleID, true); err != nil {
		return err
	}

	s.invalidateVehicleCache(ctx, vehicleID)

	return nil
}

func (s *FleetService) invalidateVehicleCache(ctx context.Context, vehicleID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateVehicle(ctx, vehicleID)
}
