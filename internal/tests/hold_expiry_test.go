package tests

import (
	"context"
	"testing"
	"time"

	"fleet/internal/domain"
	"fleet/internal/service"
	"fleet/internal/sweeper"
)

func TestHoldSweeper_ReleasesExpiredHolds(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()
	lockStore := NewMockLockStore()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	clk := NewManualClock(departure.Add(-3 * time.Hour))
	ticketService := newTicketService(tripRepo, ticketRepo, lockStore, NewMockPSP(), clk)

	for seat := 1; seat <= 3; seat++ {
		if _, err := ticketService.Hold(ctx, service.HoldRequest{
			TripID: "trip-1", SeatNumber: seat, HolderID: "holder-1",
		}); err != nil {
			t.Fatalf("hold seat %d failed: %v", seat, err)
		}
	}
	if got := tripRepo.GetTrip("trip-1").SeatsFree; got != 37 {
		t.Fatalf("expected 37 seats free after holds, got %d", got)
	}

	sweep := sweeper.NewHoldSweeper(tripRepo, ticketRepo, nil, clk, 100)

	// Before expiry: nothing to collect.
	if err := sweep.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if got := ticketRepo.CountByStatus(domain.TicketStatusHeld); got != 3 {
		t.Fatalf("expected 3 holds before expiry, got %d", got)
	}

	// After expiry: all three are cancelled and the counter is restored
	// in one grouped adjustment.
	clk.Advance(20 * time.Minute)
	if err := sweep.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if got := ticketRepo.CountByStatus(domain.TicketStatusCancelled); got != 3 {
		t.Errorf("expected 3 cancelled holds, got %d", got)
	}
	if got := tripRepo.GetTrip("trip-1").SeatsFree; got != 40 {
		t.Errorf("expected 40 seats free after sweep, got %d", got)
	}
	if got := tripRepo.AdjustSeatsFreeCallCount; got != 1 {
		t.Errorf("expected 1 grouped counter adjustment, got %d", got)
	}
}

func TestHoldSweeper_LeavesSalesAndLiveHoldsAlone(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()
	lockStore := NewMockLockStore()
	psp := NewMockPSP()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	clk := NewManualClock(departure.Add(-3 * time.Hour))
	ticketService := newTicketService(tripRepo, ticketRepo, lockStore, psp, clk)

	// Seat 1 is sold, seat 2 expires, seat 3 is held later and stays live.
	first, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 1, HolderID: "holder-1",
	})
	if err != nil {
		t.Fatalf("hold seat 1 failed: %v", err)
	}
	if _, err := ticketService.Confirm(ctx, first.ID); err != nil {
		t.Fatalf("confirm seat 1 failed: %v", err)
	}
	if _, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 2, HolderID: "holder-2",
	}); err != nil {
		t.Fatalf("hold seat 2 failed: %v", err)
	}

	clk.Advance(10 * time.Minute)
	live, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 3, HolderID: "holder-3",
	})
	if err != nil {
		t.Fatalf("hold seat 3 failed: %v", err)
	}

	// Seat 2's hold is now past its TTL; seat 3's is not.
	clk.Advance(8 * time.Minute)
	sweep := sweeper.NewHoldSweeper(tripRepo, ticketRepo, nil, clk, 100)
	if err := sweep.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if got := ticketRepo.GetTicket(first.ID).Status; got != domain.TicketStatusSold {
		t.Errorf("expected sale untouched, got %s", got)
	}
	if got := ticketRepo.GetTicket(live.ID).Status; got != domain.TicketStatusHeld {
		t.Errorf("expected live hold untouched, got %s", got)
	}
	if got := ticketRepo.CountByStatus(domain.TicketStatusCancelled); got != 1 {
		t.Errorf("expected only the stale hold cancelled, got %d", got)
	}

	// 40 - sold - live hold = 38.
	if got := tripRepo.GetTrip("trip-1").SeatsFree; got != 38 {
		t.Errorf("expected 38 seats free, got %d", got)
	}
}

func TestHoldSweeper_EmptyTickPerformsNoWrites(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	clk := NewManualClock(departure.Add(-time.Hour))
	sweep := sweeper.NewHoldSweeper(tripRepo, ticketRepo, nil, clk, 100)

	if err := sweep.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if ticketRepo.CancelBatchCallCount != 0 {
		t.Errorf("expected no cancel batch on empty tick, got %d", ticketRepo.CancelBatchCallCount)
	}
	if tripRepo.AdjustSeatsFreeCallCount != 0 {
		t.Errorf("expected no counter writes on empty tick, got %d", tripRepo.AdjustSeatsFreeCallCount)
	}
}

func TestHoldSweeper_SkipsHoldCancelledMidSweep(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()
	lockStore := NewMockLockStore()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	clk := NewManualClock(departure.Add(-3 * time.Hour))
	ticketService := newTicketService(tripRepo, ticketRepo, lockStore, NewMockPSP(), clk)

	ticket, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-1",
	})
	if err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	clk.Advance(20 * time.Minute)

	// The holder cancels between the sweep's expired-hold listing and its
	// batch write. That cancel already restores the seat; the sweep must
	// not count it back a second time.
	ticketRepo.OnListExpiredHolds = func() {
		ticketRepo.OnListExpiredHolds = nil
		if _, err := ticketService.Cancel(ctx, ticket.ID); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
	}

	sweep := sweeper.NewHoldSweeper(tripRepo, ticketRepo, nil, clk, 100)
	if err := sweep.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if got := tripRepo.GetTrip("trip-1").SeatsFree; got != 40 {
		t.Errorf("expected 40 seats free, got %d", got)
	}
	// One restore from the cancel, none from the sweep.
	if got := tripRepo.AdjustSeatsFreeCallCount; got != 2 {
		t.Errorf("expected hold and cancel adjustments only, got %d", got)
	}
}
