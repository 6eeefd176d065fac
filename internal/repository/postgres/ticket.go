package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// TicketRepository is a PostgreSQL implementation of repository.TicketRepository.
type TicketRepository struct {
	q Querier
}

// NewTicketRepository creates a new PostgreSQL ticket repository.
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{q: db}
}

// NewTicketRepositoryWithTx creates a ticket repository using a transaction.
func NewTicketRepositoryWithTx(tx *sql.Tx) *TicketRepository {
	return &TicketRepository{q: tx}
}

const ticketColumns = `id, trip_id, seat_number, holder_id, status, price, expires_at, COALESCE(payment_ref, ''), created_at`

// Create persists a new ticket. A partial unique index on (trip_id,
// seat_number) over HELD/SOLD tickets backs the seat-uniqueness invariant;
// a violation surfaces as repository.ErrSeatConflict.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	query := `
		INSERT INTO tickets (id, trip_id, seat_number, holder_id, status, price, expires_at, payment_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		ticket.ID,
		ticket.TripID,
		ticket.SeatNumber,
		ticket.HolderID,
		ticket.Status,
		ticket.Price,
		nullTime(ticket.ExpiresAt),
		ticket.PaymentRef,
		ticket.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrSeatConflict
		}
		return err
	}

	return nil
}

// GetByID retrieves a ticket by ID.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetActiveBySeat retrieves the HELD or SOLD ticket for (trip, seat).
// Returns nil if none exists.
func (r *TicketRepository) GetActiveBySeat(ctx context.Context, tripID string, seatNumber int) (*domain.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + ` FROM tickets
		WHERE trip_id = $1 AND seat_number = $2 AND status IN ($3, $4)
		LIMIT 1
		FOR UPDATE
	`

	ticket, err := r.scanOne(r.q.QueryRowContext(ctx, query, tripID, seatNumber, domain.TicketStatusHeld, domain.TicketStatusSold))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return ticket, err
}

// ListByTrip retrieves all tickets for a trip.
func (r *TicketRepository) ListByTrip(ctx context.Context, tripID string) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE trip_id = $1 ORDER BY seat_number`
	return r.queryMany(ctx, query, tripID)
}

// ListActiveByTrip retrieves the HELD/SOLD tickets for a trip.
func (r *TicketRepository) ListActiveByTrip(ctx context.Context, tripID string) ([]*domain.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + ` FROM tickets
		WHERE trip_id = $1 AND status IN ($2, $3)
		ORDER BY seat_number
	`
	return r.queryMany(ctx, query, tripID, domain.TicketStatusHeld, domain.TicketStatusSold)
}

// ListExpiredHolds retrieves HELD tickets whose expiry has passed.
func (r *TicketRepository) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + ` FROM tickets
		WHERE status = $1 AND expires_at <= $2
		ORDER BY expires_at LIMIT $3
	`
	return r.queryMany(ctx, query, domain.TicketStatusHeld, now, limit)
}

// Update updates an existing ticket.
func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	query := `
		UPDATE tickets
		SET status = $1, price = $2, expires_at = $3, payment_ref = NULLIF($4, '')
		WHERE id = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		ticket.Status,
		ticket.Price,
		nullTime(ticket.ExpiresAt),
		ticket.PaymentRef,
		ticket.ID,
	)
	if err != nil {
		return err
	}

	return requireRows(result)
}

// CancelBatch marks the given tickets CANCELLED in one statement, touching
// only tickets still in one of the source statuses. The trip IDs of the
// rows actually updated come back so callers count seat restores against
// the transitions they performed, not against tickets another writer
// already cancelled.
func (r *TicketRepository) CancelBatch(ctx context.Context, ids []string, from ...domain.TicketStatus) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sources := make([]string, len(from))
	for i, status := range from {
		sources[i] = string(status)
	}

	query := `
		UPDATE tickets SET status = $1, expires_at = NULL
		WHERE id = ANY($2) AND status = ANY($3)
		RETURNING trip_id
	`

	rows, err := r.q.QueryContext(ctx, query, domain.TicketStatusCancelled, pq.Array(ids), pq.Array(sources))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tripIDs []string
	for rows.Next() {
		var tripID string
		if err := rows.Scan(&tripID); err != nil {
			return nil, err
		}
		tripIDs = append(tripIDs, tripID)
	}

	return tripIDs, rows.Err()
}

func (r *TicketRepository) scanOne(row *sql.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var expiresAt sql.NullTime

	err := row.Scan(
		&ticket.ID,
		&ticket.TripID,
		&ticket.SeatNumber,
		&ticket.HolderID,
		&ticket.Status,
		&ticket.Price,
		&expiresAt,
		&ticket.PaymentRef,
		&ticket.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if expiresAt.Valid {
		ticket.ExpiresAt = expiresAt.Time
	}

	return &ticket, nil
}

func (r *TicketRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Ticket, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		var expiresAt sql.NullTime

		if err := rows.Scan(
			&ticket.ID,
			&ticket.TripID,
			&ticket.SeatNumber,
			&ticket.HolderID,
			&ticket.Status,
			&ticket.Price,
			&expiresAt,
			&ticket.PaymentRef,
			&ticket.CreatedAt,
		); err != nil {
			return nil, err
		}

		if expiresAt.Valid {
			ticket.ExpiresAt = expiresAt.Time
		}

		tickets = append(tickets, &ticket)
	}

	return tickets, rows.Err()
}

// Ensure TicketRepository implements repository.TicketRepository.
var _ repository.TicketRepository = (*TicketRepository)(nil)
