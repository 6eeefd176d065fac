package sweeper

import (
	"context"
	"fmt"
	"log"

	"fleet/internal/clock"
	"fleet/internal/domain"
	"fleet/internal/redis"
	"fleet/internal/repository"
)

// DowntimeSweeper starts and ends scheduled vehicle downtime windows:
// OPERATIVE vehicles whose window start has passed take the stored target
// status, and vehicles whose window end has passed revert to OPERATIVE with
// the window cleared. A tick with nothing due performs no writes.
type DowntimeSweeper struct {
	vehicleRepo repository.VehicleRepository
	cacheStore  *redis.CacheStore
	clk         clock.Clock
	batchSize   int
}

// NewDowntimeSweeper creates a new DowntimeSweeper.
func NewDowntimeSweeper(
	vehicleRepo repository.VehicleRepository,
	cacheStore *redis.CacheStore,
	clk clock.Clock,
	batchSize int,
) *DowntimeSweeper {
	return &DowntimeSweeper{
		vehicleRepo: vehicleRepo,
		cacheStore:  cacheStore,
		clk:         clk,
		batchSize:   batchSize,
	}
}

// Name implements Sweeper.
func (s *DowntimeSweeper) Name() string {
	return "vehicle-downtime"
}

// RunOnce implements Sweeper.
func (s *DowntimeSweeper) RunOnce(ctx context.Context) error {
	now := s.clk.Now()

	starting, err := s.vehicleRepo.ListDowntimeStartsDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due downtime starts: %w", err)
	}
	for _, vehicle := range starting {
		vehicle.Status = vehicle.DowntimeTarget
		vehicle.DowntimePending = false
		if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
			log.Printf("downtime sweep: start downtime for vehicle %s: %v", vehicle.ID, err)
			continue
		}
		s.invalidate(ctx, vehicle.ID)
	}

	ending, err := s.vehicleRepo.ListDowntimeEndsDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due downtime ends: %w", err)
	}
	for _, vehicle := range ending {
		vehicle.Status = domain.VehicleStatusOperative
		vehicle.ClearDowntime()
		if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
			log.Printf("downtime sweep: end downtime for vehicle %s: %v", vehicle.ID, err)
			continue
		}
		s.invalidate(ctx, vehicle.ID)
	}

	return nil
}

func (s *DowntimeSweeper) invalidate(ctx context.Context, vehicleID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateVehicle(ctx, vehicleID)
}

// Ensure DowntimeSweeper implements Sweeper.
var _ Sweeper = (*DowntimeSweeper)(nil)
