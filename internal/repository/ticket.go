package repository

import (
	"context"
	"time"

	"fleet/internal/domain"
)

// TicketRepository defines the persistence operations for tickets.
type TicketRepository interface {
	// Create persists a new ticket. Returns ErrSeatConflict if another
	// ticket is already HELD or SOLD for the same (trip, seat).
	Create(ctx context.Context, ticket *domain.Ticket) error

	// GetByID retrieves a ticket by ID.
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)

	// GetActiveBySeat retrieves the HELD or SOLD ticket for (trip, seat).
	// Returns nil if none exists.
	GetActiveBySeat(ctx context.Context, tripID string, seatNumber int) (*domain.Ticket, error)

	// ListByTrip retrieves all tickets for a trip.
	ListByTrip(ctx context.Context, tripID string) ([]*domain.Ticket, error)

	// ListActiveByTrip retrieves the HELD/SOLD tickets for a trip.
	ListActiveByTrip(ctx context.Context, tripID string) ([]*domain.Ticket, error)

	// ListExpiredHolds retrieves HELD tickets whose expiry is at or before
	// now, up to limit.
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Ticket, error)

	// Update updates an existing ticket.
	Update(ctx context.Context, ticket *domain.Ticket) error

	// CancelBatch marks the given tickets CANCELLED in one statement,
	// touching only tickets still in one of the given source statuses.
	// It returns the trip ID of every ticket actually cancelled, one
	// entry per ticket, so callers restore seat counters only for the
	// transitions they performed.
	CancelBatch(ctx context.Context, ids []string, from ...domain.TicketStatus) ([]string, error)
}
