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

// HoldSweeper collects expired seat holds. Expired HELD tickets are
// cancelled in one batch and each affected trip's free-seat counter is
// restored by the number of holds released on it, grouped per trip.
//
// Expiry is cooperative: a hold may outlive its nominal expiry until the
// next tick, never the reverse.
type HoldSweeper struct {
	tripRepo   repository.TripRepository
	ticketRepo repository.TicketRepository
	cacheStore *redis.CacheStore
	clk        clock.Clock
	batchSize  int
}

// NewHoldSweeper creates a new HoldSweeper.
func NewHoldSweeper(
	tripRepo repository.TripRepository,
	ticketRepo repository.TicketRepository,
	cacheStore *redis.CacheStore,
	clk clock.Clock,
	batchSize int,
) *HoldSweeper {
	return &HoldSweeper{
		tripRepo:   tripRepo,
		ticketRepo: ticketRepo,
		cacheStore: cacheStore,
		clk:        clk,
		batchSize:  batchSize,
	}
}

// Name implements Sweeper.
func (s *HoldSweeper) Name() string {
	return "hold-expiry"
}

// RunOnce implements Sweeper.
func (s *HoldSweeper) RunOnce(ctx context.Context) error {
	now := s.clk.Now()

	expired, err := s.ticketRepo.ListExpiredHolds(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list expired holds: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}

	ids := make([]string, len(expired))
	for i, ticket := range expired {
		ids[i] = ticket.ID
	}

	// Seat restores are counted from the rows actually cancelled: a hold
	// the holder cancelled between the list read and here already gave
	// its seat back.
	cancelledTrips, err := s.ticketRepo.CancelBatch(ctx, ids, domain.TicketStatusHeld)
	if err != nil {
		return fmt.Errorf("cancel expired holds: %w", err)
	}
	if len(cancelledTrips) == 0 {
		return nil
	}

	releasedPerTrip := make(map[string]int)
	for _, tripID := range cancelledTrips {
		releasedPerTrip[tripID]++
	}

	for tripID, released := range releasedPerTrip {
		if err := s.tripRepo.AdjustSeatsFree(ctx, tripID, released); err != nil {
			log.Printf("hold sweep: restore %d seats on trip %s: %v", released, tripID, err)
			continue
		}
		if s.cacheStore != nil {
			_ = s.cacheStore.InvalidateTrip(ctx, tripID)
		}
	}

	log.Printf("hold sweep: released %d expired holds across %d trips", len(cancelledTrips), len(releasedPerTrip))

	return nil
}

// Ensure HoldSweeper implements Sweeper.
var _ Sweeper = (*HoldSweeper)(nil)
