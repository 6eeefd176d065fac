package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet/internal/domain"
	"fleet/internal/service"
	"fleet/internal/sweeper"
)

func newTicketService(tripRepo *MockTripRepository, ticketRepo *MockTicketRepository, lockStore *MockLockStore, psp *MockPSP, clk *ManualClock) *service.TicketService {
	return service.NewTicketService(
		nil, // no database: repositories are used directly
		tripRepo,
		ticketRepo,
		lockStore,
		service.NewPaymentService(psp),
		service.NewNotificationService(),
		nil,
		clk,
		15*time.Minute,
	)
}

func bookableTrip(departure time.Time) *domain.Trip {
	return &domain.Trip{
		ID:            "trip-1",
		VehicleID:     "veh-1",
		OriginID:      "loc-a",
		DestinationID: "loc-b",
		DepartureAt:   departure,
		ArrivalAt:     departure.Add(3 * time.Hour),
		Status:        domain.TripStatusScheduled,
		TotalSeats:    40,
		SeatsFree:     40,
		PricePerSeat:  20,
	}
}

func TestHold_ReservesSeatAndDecrementsCounter(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()
	lockStore := NewMockLockStore()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	clk := NewManualClock(departure.Add(-2 * time.Hour))
	ticketService := newTicketService(tripRepo, ticketRepo, lockStore, NewMockPSP(), clk)

	ticket, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID:     "trip-1",
		SeatNumber: 7,
		HolderID:   "holder-1",
	})
	if err != nil {
		t.Fatalf("failed to hold seat: %v", err)
	}

	if ticket.Status != domain.TicketStatusHeld {
		t.Errorf("expected HELD, got %s", ticket.Status)
	}
	if ticket.Price != 20 {
		t.Errorf("expected price snapshot 20, got %.2f", ticket.Price)
	}
	wantExpiry := clk.Now().Add(15 * time.Minute)
	if !ticket.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expected expiry %v, got %v", wantExpiry, ticket.ExpiresAt)
	}
	if got := tripRepo.GetTrip("trip-1").SeatsFree; got != 39 {
		t.Errorf("expected 39 seats free, got %d", got)
	}
	// The short seat lock is released once the hold is persisted.
	if lockStore.IsSeatLocked("trip-1", 7) {
		t.Error("expected seat lock released after hold")
	}
}

func TestHold_SeatAlreadyHeld(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()
	lockStore := NewMockLockStore()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	clk := NewManualClock(departure.Add(-2 * time.Hour))
	ticketService := newTicketService(tripRepo, ticketRepo, lockStore, NewMockPSP(), clk)

	if _, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-1",
	}); err != nil {
		t.Fatalf("first hold failed: %v", err)
	}

	_, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-2",
	})
	if !errors.Is(err, service.ErrSeatTaken) {
		t.Fatalf("expected ErrSeatTaken, got %v", err)
	}

	// The counter moved once.
	if got := tripRepo.GetTrip("trip-1").SeatsFree; got != 39 {
		t.Errorf("expected 39 seats free, got %d", got)
	}
}

func TestHold_ExpiredUnsweptHoldReplacedInline(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()
	lockStore := NewMockLockStore()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	clk := NewManualClock(departure.Add(-3 * time.Hour))
	ticketService := newTicketService(tripRepo, ticketRepo, lockStore, NewMockPSP(), clk)

	first, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-1",
	})
	if err != nil {
		t.Fatalf("first hold failed: %v", err)
	}

	// Past expiry, hold sweeper not run yet: a new holder takes the seat.
	clk.Advance(20 * time.Minute)
	second, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-2",
	})
	if err != nil {
		t.Fatalf("expected rehold of expired seat, got error: %v", err)
	}
	if second.HolderID != "holder-2" {
		t.Errorf("expected holder-2, got %s", second.HolderID)
	}

	// The stale hold is cancelled and the counter is unchanged: the seat
	// changed hands without ever being free.
	if got := ticketRepo.GetTicket(first.ID).Status; got != domain.TicketStatusCancelled {
		t.Errorf("expected first hold CANCELLED, got %s", got)
	}
	if got := tripRepo.GetTrip("trip-1").SeatsFree; got != 39 {
		t.Errorf("expected 39 seats free, got %d", got)
	}
}

func TestHold_RejectsNonBookableTripAndBadSeat(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()
	lockStore := NewMockLockStore()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	trip := bookableTrip(departure)
	trip.Status = domain.TripStatusInProgress
	tripRepo.AddTrip(trip)

	clk := NewManualClock(departure.Add(time.Hour))
	ticketService := newTicketService(tripRepo, ticketRepo, lockStore, NewMockPSP(), clk)

	_, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-1",
	})
	if !errors.Is(err, service.ErrTripNotBookable) {
		t.Errorf("expected ErrTripNotBookable, got %v", err)
	}

	trip2 := bookableTrip(departure.Add(24 * time.Hour))
	trip2.ID = "trip-2"
	tripRepo.AddTrip(trip2)

	_, err = ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-2", SeatNumber: 41, HolderID: "holder-1",
	})
	if !errors.Is(err, service.ErrInvalidSeat) {
		t.Errorf("expected ErrInvalidSeat for seat 41, got %v", err)
	}

	_, err = ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-2", SeatNumber: 0, HolderID: "holder-1",
	})
	if !errors.Is(err, service.ErrInvalidSeat) {
		t.Errorf("expected ErrInvalidSeat for seat 0, got %v", err)
	}
}

func TestHold_ConcurrentSeatLockContention(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()
	lockStore := NewMockLockStore()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	clk := NewManualClock(departure.Add(-2 * time.Hour))
	ticketService := newTicketService(tripRepo, ticketRepo, lockStore, NewMockPSP(), clk)

	// Another request holds the seat lock mid-flight.
	locked, err := lockStore.AcquireSeatLock(ctx, "trip-1", 7, time.Minute)
	if err != nil || !locked {
		t.Fatalf("failed to pre-lock seat: locked=%v err=%v", locked, err)
	}

	_, err = ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-1",
	})
	if !errors.Is(err, service.ErrSeatTaken) {
		t.Fatalf("expected ErrSeatTaken under lock contention, got %v", err)
	}
	if ticketRepo.CountByStatus(domain.TicketStatusHeld) != 0 {
		t.Error("expected no ticket created under lock contention")
	}
}

func TestConfirm_ConvertsHoldToSale(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()
	lockStore := NewMockLockStore()
	psp := NewMockPSP()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	clk := NewManualClock(departure.Add(-2 * time.Hour))
	ticketService := newTicketService(tripRepo, ticketRepo, lockStore, psp, clk)

	held, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-1",
	})
	if err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	sold, err := ticketService.Confirm(ctx, held.ID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if sold.Status != domain.TicketStatusSold {
		t.Errorf("expected SOLD, got %s", sold.Status)
	}
	if sold.PaymentRef == "" {
		t.Error("expected payment reference stored")
	}
	if psp.ChargeCallCount != 1 {
		t.Errorf("expected 1 charge, got %d", psp.ChargeCallCount)
	}

	// A sale holds the seat past the hold TTL.
	clk.Advance(time.Hour)
	_, err = ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-2",
	})
	if !errors.Is(err, service.ErrSeatTaken) {
		t.Errorf("expected ErrSeatTaken on sold seat, got %v", err)
	}

	// Double confirm is rejected.
	if _, err := ticketService.Confirm(ctx, held.ID); !errors.Is(err, service.ErrTicketAlreadySold) {
		t.Errorf("expected ErrTicketAlreadySold, got %v", err)
	}
}

func TestConfirm_ExpiredHoldRejected(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()
	lockStore := NewMockLockStore()
	psp := NewMockPSP()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	clk := NewManualClock(departure.Add(-3 * time.Hour))
	ticketService := newTicketService(tripRepo, ticketRepo, lockStore, psp, clk)

	held, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-1",
	})
	if err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	// Expiry passes before the sweeper collects the hold. Confirmation
	// must still fail: expiry is effective, collection is lazy.
	clk.Advance(16 * time.Minute)
	_, err = ticketService.Confirm(ctx, held.ID)
	if !errors.Is(err, service.ErrTicketExpired) {
		t.Fatalf("expected ErrTicketExpired, got %v", err)
	}
	if psp.ChargeCallCount != 0 {
		t.Errorf("expected no charge for expired hold, got %d", psp.ChargeCallCount)
	}
}

func TestConfirm_PaymentFailureKeepsHold(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()
	lockStore := NewMockLockStore()
	psp := NewMockPSP()
	psp.ChargeError = errors.New("card declined")

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	clk := NewManualClock(departure.Add(-2 * time.Hour))
	ticketService := newTicketService(tripRepo, ticketRepo, lockStore, psp, clk)

	held, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-1",
	})
	if err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	_, err = ticketService.Confirm(ctx, held.ID)
	if !errors.Is(err, service.ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed, got %v", err)
	}

	// The hold survives the failed capture and can be retried.
	if got := ticketRepo.GetTicket(held.ID).Status; got != domain.TicketStatusHeld {
		t.Errorf("expected ticket still HELD after declined charge, got %s", got)
	}
}

func TestCancel_ReleasesSeatAndRefundsSale(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()
	lockStore := NewMockLockStore()
	psp := NewMockPSP()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	clk := NewManualClock(departure.Add(-2 * time.Hour))
	ticketService := newTicketService(tripRepo, ticketRepo, lockStore, psp, clk)

	held, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-1",
	})
	if err != nil {
		t.Fatalf("hold failed: %v", err)
	}
	sold, err := ticketService.Confirm(ctx, held.ID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	cancelled, err := ticketService.Cancel(ctx, sold.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.TicketStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}
	if psp.RefundCallCount != 1 {
		t.Errorf("expected 1 refund, got %d", psp.RefundCallCount)
	}
	if got := tripRepo.GetTrip("trip-1").SeatsFree; got != 40 {
		t.Errorf("expected 40 seats free after cancel, got %d", got)
	}

	// The seat is bookable again.
	if _, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-2",
	}); err != nil {
		t.Errorf("expected rehold after cancel, got %v", err)
	}

	// Cancelling twice is rejected.
	if _, err := ticketService.Cancel(ctx, sold.ID); !errors.Is(err, service.ErrTicketCancelled) {
		t.Errorf("expected ErrTicketCancelled on repeat, got %v", err)
	}
}

func TestCancel_HeldTicketNoRefund(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()
	lockStore := NewMockLockStore()
	psp := NewMockPSP()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	clk := NewManualClock(departure.Add(-2 * time.Hour))
	ticketService := newTicketService(tripRepo, ticketRepo, lockStore, psp, clk)

	held, err := ticketService.Hold(ctx, service.HoldRequest{
		TripID: "trip-1", SeatNumber: 7, HolderID: "holder-1",
	})
	if err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	if _, err := ticketService.Cancel(ctx, held.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if psp.RefundCallCount != 0 {
		t.Errorf("expected no refund for a hold, got %d", psp.RefundCallCount)
	}
	if got := tripRepo.GetTrip("trip-1").SeatsFree; got != 40 {
		t.Errorf("expected 40 seats free, got %d", got)
	}
}

func TestCancel_SweptHoldNotReleasedTwice(t *testing.T) {
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

	// The expiry sweep collects the hold between the cancel's ticket read
	// and its write. The seat is already back in the pool; the cancel must
	// not increment the counter again.
	sweep := sweeper.NewHoldSweeper(tripRepo, ticketRepo, nil, clk, 100)
	ticketRepo.OnGetByID = func(id string) {
		ticketRepo.OnGetByID = nil
		if err := sweep.RunOnce(ctx); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
	}

	if _, err := ticketService.Cancel(ctx, ticket.ID); !errors.Is(err, service.ErrTicketCancelled) {
		t.Fatalf("expected ErrTicketCancelled, got %v", err)
	}
	if got := tripRepo.GetTrip("trip-1").SeatsFree; got != 40 {
		t.Errorf("expected 40 seats free, got %d", got)
	}
}

func TestConfirm_UnknownStatusRejected(t *testing.T) {
	ctx := context.Background()

	tripRepo := NewMockTripRepository()
	ticketRepo := NewMockTicketRepository()

	departure := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tripRepo.AddTrip(bookableTrip(departure))

	// A ticket whose status column holds an unrecognized value is never
	// confirmable.
	ticketRepo.AddTicket(&domain.Ticket{
		ID:         "tkt-odd",
		TripID:     "trip-1",
		SeatNumber: 7,
		HolderID:   "holder-1",
		Status:     domain.TicketStatus("UNKNOWN"),
		Price:      20,
	})

	clk := NewManualClock(departure.Add(-2 * time.Hour))
	psp := NewMockPSP()
	ticketService := newTicketService(tripRepo, ticketRepo, NewMockLockStore(), psp, clk)

	if _, err := ticketService.Confirm(ctx, "tkt-odd"); !errors.Is(err, service.ErrTicketNotHeld) {
		t.Fatalf("expected ErrTicketNotHeld, got %v", err)
	}
	if psp.ChargeCallCount != 0 {
		t.Errorf("expected no charge attempt, got %d", psp.ChargeCallCount)
	}
}
