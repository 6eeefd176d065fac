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

// TripService handles trip creation and operator lifecycle actions.
type TripService struct {
	db                  *sql.DB
	tripRepo            repository.TripRepository
	vehicleRepo         repository.VehicleRepository
	ticketRepo          repository.TicketRepository
	allocator           *AllocatorService
	paymentService      *PaymentService
	notificationService *NotificationService
	cacheStore          *redis.CacheStore
	clk                 clock.Clock
}

// NewTripService creates a new TripService.
func NewTripService(
	db *sql.DB,
	tripRepo repository.TripRepository,
	vehicleRepo repository.VehicleRepository,
	ticketRepo repository.TicketRepository,
	allocator *AllocatorService,
	paymentService *PaymentService,
	notificationService *NotificationService,
	cacheStore *redis.CacheStore,
	clk clock.Clock,
) *TripService {
	return &TripService{
		db:                  db,
		tripRepo:            tripRepo,
		vehicleRepo:         vehicleRepo,
		ticketRepo:          ticketRepo,
		allocator:           allocator,
		paymentService:      paymentService,
		notificationService: notificationService,
		cacheStore:          cacheStore,
		clk:                 clk,
	}
}

// inTx runs fn against transaction-scoped repositories when a database is
// wired, or against the injected repositories otherwise (tests).
func (s *TripService) inTx(ctx context.Context, fn func(trips repository.TripRepository, vehicles repository.VehicleRepository, tickets repository.TicketRepository) error) error {
	if s.db == nil {
		return fn(s.tripRepo, s.vehicleRepo, s.ticketRepo)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(
		postgres.NewTripRepositoryWithTx(tx),
		postgres.NewVehicleRepositoryWithTx(tx),
		postgres.NewTicketRepositoryWithTx(tx),
	); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// CreateTripRequest contains the parameters for creating a trip.
type CreateTripRequest struct {
	DepartureAt   time.Time
	ArrivalAt     time.Time
	OriginID      string
	DestinationID string
	PricePerSeat  float64
}

// CreateTrip asks the allocator for a vehicle and persists the new trip in
// SCHEDULED status with seat count snapshotted from the vehicle's capacity.
// The overlap check is re-run inside the transaction so two concurrent
// creations cannot commit conflicting trips for the same vehicle.
func (s *TripService) CreateTrip(ctx context.Context, req CreateTripRequest) (*domain.Trip, error) {
	vehicle, err := s.allocator.AssignVehicle(ctx, AssignRequest{
		DepartureAt:   req.DepartureAt,
		ArrivalAt:     req.ArrivalAt,
		OriginID:      req.OriginID,
		DestinationID: req.DestinationID,
	})
	if err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		ID:            uuid.New().String(),
		VehicleID:     vehicle.ID,
		OriginID:      req.OriginID,
		DestinationID: req.DestinationID,
		DepartureAt:   req.DepartureAt,
		ArrivalAt:     req.ArrivalAt,
		Status:        domain.TripStatusScheduled,
		TotalSeats:    vehicle.Capacity,
		SeatsFree:     vehicle.Capacity,
		PricePerSeat:  req.PricePerSeat,
		CreatedAt:     s.clk.Now(),
	}

	err = s.inTx(ctx, func(trips repository.TripRepository, _ repository.VehicleRepository, _ repository.TicketRepository) error {
		overlapping, err := trips.FindOverlapping(ctx, vehicle.ID, req.DepartureAt, req.ArrivalAt)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return ErrNoCompatibleVehicle
		}
		return trips.Create(ctx, trip)
	})
	if err != nil {
		return nil, err
	}

	return trip, nil
}

// GetTrip retrieves a trip by ID, serving short-lived snapshots from cache
// when available.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetTrip(ctx, tripID); err == nil && cached != nil {
			return &domain.Trip{
				ID:            cached.ID,
				VehicleID:     cached.VehicleID,
				OriginID:      cached.OriginID,
				DestinationID: cached.DestinationID,
				DepartureAt:   cached.DepartureAt,
				ArrivalAt:     cached.ArrivalAt,
				Status:        domain.TripStatus(cached.Status),
				TotalSeats:    cached.TotalSeats,
				SeatsFree:     cached.SeatsFree,
				PricePerSeat:  cached.PricePerSeat,
			}, nil
		}
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetTrip(ctx, &redis.CachedTrip{
			ID:            trip.ID,
			VehicleID:     trip.VehicleID,
			OriginID:      trip.OriginID,
			DestinationID: trip.DestinationID,
			DepartureAt:   trip.DepartureAt,
			ArrivalAt:     trip.ArrivalAt,
			Status:        string(trip.Status),
			TotalSeats:    trip.TotalSeats,
			SeatsFree:     trip.SeatsFree,
			PricePerSeat:  trip.PricePerSeat,
		})
	}

	return trip, nil
}

// GetAllTrips retrieves recent trips.
func (s *TripService) GetAllTrips(ctx context.Context) ([]*domain.Trip, error) {
	return s.tripRepo.GetAll(ctx)
}

// FinalizeTrip finishes a trip early. Finishing moves the vehicle to the
// trip's destination and sets it OPERATIVE. Calling it on an already
// FINISHED trip is a no-op; a CANCELLED trip is rejected.
func (s *TripService) FinalizeTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.Status == domain.TripStatusFinished {
		return trip, nil
	}
	if trip.Status == domain.TripStatusCancelled {
		return nil, ErrTripCancelled
	}

	err = s.inTx(ctx, func(trips repository.TripRepository, vehicles repository.VehicleRepository, _ repository.TicketRepository) error {
		// Guarded transition: a sweeper tick finishing or an operator
		// cancelling between the read above and this write must not be
		// overwritten.
		err := trips.TransitionStatus(ctx, trip.ID, domain.TripStatusFinished,
			domain.TripStatusScheduled, domain.TripStatusInProgress)
		if err != nil {
			return err
		}
		trip.Status = domain.TripStatusFinished

		vehicle, err := vehicles.GetByID(ctx, trip.VehicleID)
		if err != nil {
			// The trip still finishes; the vehicle record is repaired
			// out of band.
			log.Printf("finalize trip %s: vehicle %s not found: %v", trip.ID, trip.VehicleID, err)
			return nil
		}

		vehicle.LocalityID = trip.DestinationID
		vehicle.Status = domain.VehicleStatusOperative
		return vehicles.Update(ctx, vehicle)
	})
	if errors.Is(err, repository.ErrStaleStatus) {
		current, readErr := s.tripRepo.GetByID(ctx, tripID)
		if readErr != nil {
			return nil, readErr
		}
		if current.Status == domain.TripStatusFinished {
			// Another writer finished it first; same outcome.
			return current, nil
		}
		return nil, ErrTripCancelled
	}
	if err != nil {
		return nil, err
	}

	s.invalidateCaches(ctx, trip)

	return trip, nil
}

// CancelTrip cancels a non-terminal trip, cancels its outstanding tickets
// and refunds the sold ones. Refunds and notifications run after the
// cancellation commits; their failure never rolls it back.
func (s *TripService) CancelTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.Status.IsTerminal() {
		return nil, ErrTripNotCancellable
	}

	var outstanding []*domain.Ticket
	err = s.inTx(ctx, func(trips repository.TripRepository, _ repository.VehicleRepository, tickets repository.TicketRepository) error {
		// Guarded transition: a sweeper tick finishing the trip between
		// the read above and this write must not regress to CANCELLED.
		err := trips.TransitionStatus(ctx, trip.ID, domain.TripStatusCancelled,
			domain.TripStatusScheduled, domain.TripStatusInProgress)
		if err != nil {
			return err
		}
		trip.Status = domain.TripStatusCancelled

		outstanding, err = tickets.ListActiveByTrip(ctx, trip.ID)
		if err != nil {
			return err
		}

		ids := make([]string, len(outstanding))
		for i, ticket := range outstanding {
			ids[i] = ticket.ID
		}
		_, err = tickets.CancelBatch(ctx, ids, domain.TicketStatusHeld, domain.TicketStatusSold)
		return err
	})
	if errors.Is(err, repository.ErrStaleStatus) {
		return nil, ErrTripNotCancellable
	}
	if err != nil {
		return nil, err
	}

	for _, ticket := range outstanding {
		if ticket.Status != domain.TicketStatusSold {
			continue
		}
		if _, err := s.paymentService.Refund(ctx, ticket.PaymentRef, ticket.Price); err != nil {
			log.Printf("cancel trip %s: refund for ticket %s failed: %v", trip.ID, ticket.ID, err)
			continue
		}
		if s.notificationService != nil {
			_ = s.notificationService.NotifyRefundIssued(ctx, ticket, trip)
		}
	}

	s.invalidateCaches(ctx, trip)

	return trip, nil
}

func (s *TripService) invalidateCaches(ctx context.Context, trip *domain.Trip) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateTrip(ctx, trip.ID)
	_ = s.cacheStore.InvalidateVehicle(ctx, trip.VehicleID)
}
