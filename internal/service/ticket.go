package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"fleet/internal/clock"
	"fleet/internal/domain"
	"fleet/internal/redis"
	"fleet/internal/repository"
	"fleet/internal/repository/postgres"
)

const seatLockTTL = 5 * time.Second

// TicketService handles the per-trip seat inventory: temporary holds,
// hold-to-sale conversion and cancellation with refund.
type TicketService struct {
	db                  *sql.DB
	tripRepo            repository.TripRepository
	ticketRepo          repository.TicketRepository
	lockStore           redis.LockStoreInterface
	paymentService      *PaymentService
	notificationService *NotificationService
	cacheStore          *redis.CacheStore
	clk                 clock.Clock
	holdTTL             time.Duration
}

// NewTicketService creates a new TicketService.
func NewTicketService(
	db *sql.DB,
	tripRepo repository.TripRepository,
	ticketRepo repository.TicketRepository,
	lockStore redis.LockStoreInterface,
	paymentService *PaymentService,
	notificationService *NotificationService,
	cacheStore *redis.CacheStore,
	clk clock.Clock,
	holdTTL time.Duration,
) *TicketService {
	return &TicketService{
		db:                  db,
		tripRepo:            tripRepo,
		ticketRepo:          ticketRepo,
		lockStore:           lockStore,
		paymentService:      paymentService,
		notificationService: notificationService,
		cacheStore:          cacheStore,
		clk:                 clk,
		holdTTL:             holdTTL,
	}
}

// inTx runs fn against transaction-scoped repositories when a database is
// wired, or against the injected repositories otherwise (tests).
func (s *TicketService) inTx(ctx context.Context, fn func(trips repository.TripRepository, tickets repository.TicketRepository) error) error {
	if s.db == nil {
		return fn(s.tripRepo, s.ticketRepo)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(
		postgres.NewTripRepositoryWithTx(tx),
		postgres.NewTicketRepositoryWithTx(tx),
	); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// HoldRequest contains the parameters for holding a seat.
type HoldRequest struct {
	TripID     string
	SeatNumber int
	HolderID   string
}

// Hold reserves a seat on a SCHEDULED trip for the hold TTL. A short seat
// lock defeats concurrent holds for the same (trip, seat); a partial unique
// index in the tickets table backs the invariant if the lock is ever
// bypassed. An expired hold that the sweeper has not collected yet does not
// block the seat: it is cancelled in the same transaction.
func (s *TicketService) Hold(ctx context.Context, req HoldRequest) (*domain.Ticket, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.HolderID == "" {
		return nil, ErrInvalidHolderID
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if trip.Status != domain.TripStatusScheduled {
		return nil, ErrTripNotBookable
	}
	if req.SeatNumber < 1 || req.SeatNumber > trip.TotalSeats {
		return nil, ErrInvalidSeat
	}

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireSeatLock(ctx, req.TripID, req.SeatNumber, seatLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrSeatTaken
		}
		defer func() {
			_ = s.lockStore.ReleaseSeatLock(ctx, req.TripID, req.SeatNumber)
		}()
	}

	now := s.clk.Now()
	ticket := &domain.Ticket{
		ID:         uuid.New().String(),
		TripID:     trip.ID,
		SeatNumber: req.SeatNumber,
		HolderID:   req.HolderID,
		Status:     domain.TicketStatusHeld,
		Price:      trip.PricePerSeat,
		ExpiresAt:  now.Add(s.holdTTL),
		CreatedAt:  now,
	}

	err = s.inTx(ctx, func(trips repository.TripRepository, tickets repository.TicketRepository) error {
		existing, err := tickets.GetActiveBySeat(ctx, trip.ID, req.SeatNumber)
		if err != nil {
			return err
		}

		replacingExpired := false
		if existing != nil {
			if !existing.Expired(now) {
				return ErrSeatTaken
			}
			// The sweeper has not collected this hold yet; the seat
			// changes hands without touching the free-seat counter.
			existing.Status = domain.TicketStatusCancelled
			existing.ExpiresAt = time.Time{}
			if err := tickets.Update(ctx, existing); err != nil {
				return err
			}
			replacingExpired = true
		}

		if err := tickets.Create(ctx, ticket); err != nil {
			if errors.Is(err, repository.ErrSeatConflict) {
				return ErrSeatTaken
			}
			return err
		}

		if !replacingExpired {
			return trips.AdjustSeatsFree(ctx, trip.ID, -1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTripCache(ctx, trip.ID)

	return ticket, nil
}

// Confirm converts a hold into a sale. The payment is captured first; the
// provider reference is stored on the ticket. An expired hold is never
// confirmable, even before the sweeper collects it.
func (s *TicketService) Confirm(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if ticketID == "" {
		return nil, ErrInvalidTicketID
	}

	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	switch ticket.Status {
	case domain.TicketStatusHeld:
	case domain.TicketStatusSold:
		return nil, ErrTicketAlreadySold
	case domain.TicketStatusCancelled:
		return nil, ErrTicketCancelled
	default:
		return nil, ErrTicketNotHeld
	}

	now := s.clk.Now()
	if ticket.Expired(now) {
		return nil, ErrTicketExpired
	}

	reference, err := s.paymentService.Capture(ctx, ticket.Price)
	if err != nil {
		return nil, err
	}

	ticket.Status = domain.TicketStatusSold
	ticket.ExpiresAt = time.Time{}
	ticket.PaymentRef = reference

	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		trip, err := s.tripRepo.GetByID(ctx, ticket.TripID)
		if err == nil {
			_ = s.notificationService.NotifySaleConfirmed(ctx, ticket, trip)
		}
	}

	return ticket, nil
}

// Cancel releases a held or sold seat back to the pool. Sold tickets are
// refunded through the payment provider; refund and notification failures
// are logged, never propagated.
func (s *TicketService) Cancel(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if ticketID == "" {
		return nil, ErrInvalidTicketID
	}

	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if ticket.Status == domain.TicketStatusCancelled {
		return nil, ErrTicketCancelled
	}

	wasSold := ticket.Status == domain.TicketStatusSold

	err = s.inTx(ctx, func(trips repository.TripRepository, tickets repository.TicketRepository) error {
		// Guarded cancel: if the expiry sweep collected this hold between
		// the read above and here, the seat was already restored and must
		// not be counted back a second time.
		cancelled, err := tickets.CancelBatch(ctx, []string{ticket.ID},
			domain.TicketStatusHeld, domain.TicketStatusSold)
		if err != nil {
			return err
		}
		if len(cancelled) == 0 {
			return ErrTicketCancelled
		}
		ticket.Status = domain.TicketStatusCancelled
		ticket.ExpiresAt = time.Time{}
		return trips.AdjustSeatsFree(ctx, ticket.TripID, 1)
	})
	if err != nil {
		return nil, err
	}

	if wasSold {
		if _, err := s.paymentService.Refund(ctx, ticket.PaymentRef, ticket.Price); err != nil {
			log.Printf("cancel ticket %s: refund failed: %v", ticket.ID, err)
		} else if s.notificationService != nil {
			trip, err := s.tripRepo.GetByID(ctx, ticket.TripID)
			if err == nil {
				_ = s.notificationService.NotifyRefundIssued(ctx, ticket, trip)
			}
		}
	}

	s.invalidateTripCache(ctx, ticket.TripID)

	return ticket, nil
}

// GetTicket retrieves a ticket by ID.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if ticketID == "" {
		return nil, ErrInvalidTicketID
	}

	return s.ticketRepo.GetByID(ctx, ticketID)
}

func (s *TicketService) invalidateTripCache(ctx context.Context, tripID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateTrip(ctx, tripID)
}
