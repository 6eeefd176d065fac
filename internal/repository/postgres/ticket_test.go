package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

func ticketRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "trip_id", "seat_number", "holder_id", "status", "price",
		"expires_at", "payment_ref", "created_at",
	})
}

func TestTicketRepository_Create_UniqueViolationIsSeatConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	repo := NewTicketRepository(db)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		ID:         "tkt-1",
		TripID:     "trip-1",
		SeatNumber: 7,
		HolderID:   "holder-1",
		Status:     domain.TicketStatusHeld,
		Price:      20,
		ExpiresAt:  now.Add(15 * time.Minute),
		CreatedAt:  now,
	}

	mock.ExpectExec(`INSERT INTO tickets`).
		WithArgs(
			ticket.ID, ticket.TripID, ticket.SeatNumber, ticket.HolderID,
			ticket.Status, ticket.Price, sql.NullTime{Time: ticket.ExpiresAt, Valid: true},
			"", ticket.CreatedAt,
		).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_tickets_active_seat"})

	err = repo.Create(context.Background(), ticket)
	if !errors.Is(err, repository.ErrSeatConflict) {
		t.Fatalf("expected ErrSeatConflict on unique violation, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTicketRepository_GetActiveBySeat_NoneIsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	repo := NewTicketRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM tickets\s+WHERE trip_id = \$1 AND seat_number = \$2 AND status IN \(\$3, \$4\)\s+LIMIT 1\s+FOR UPDATE`).
		WithArgs("trip-1", 7, domain.TicketStatusHeld, domain.TicketStatusSold).
		WillReturnRows(ticketRows())

	ticket, err := repo.GetActiveBySeat(context.Background(), "trip-1", 7)
	if err != nil {
		t.Fatalf("GetActiveBySeat failed: %v", err)
	}
	if ticket != nil {
		t.Errorf("expected nil for free seat, got %+v", ticket)
	}
}

func TestTicketRepository_ListExpiredHolds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	repo := NewTicketRepository(db)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT (.+) FROM tickets\s+WHERE status = \$1 AND expires_at <= \$2\s+ORDER BY expires_at LIMIT \$3`).
		WithArgs(domain.TicketStatusHeld, now, 500).
		WillReturnRows(ticketRows().AddRow(
			"tkt-1", "trip-1", 7, "holder-1", "HELD", 20.0,
			now.Add(-time.Minute), "", now.Add(-16*time.Minute),
		))

	tickets, err := repo.ListExpiredHolds(context.Background(), now, 500)
	if err != nil {
		t.Fatalf("ListExpiredHolds failed: %v", err)
	}
	if len(tickets) != 1 || tickets[0].ID != "tkt-1" {
		t.Errorf("expected tkt-1, got %+v", tickets)
	}
	if tickets[0].ExpiresAt.IsZero() {
		t.Error("expected expiry scanned from nullable column")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTicketRepository_CancelBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	repo := NewTicketRepository(db)

	// Only the still-HELD ticket transitions; seat restores are counted
	// from the returned trip IDs.
	mock.ExpectQuery(`UPDATE tickets SET status = \$1, expires_at = NULL\s+WHERE id = ANY\(\$2\) AND status = ANY\(\$3\)\s+RETURNING trip_id`).
		WithArgs(domain.TicketStatusCancelled, pq.Array([]string{"tkt-1", "tkt-2"}), pq.Array([]string{"HELD"})).
		WillReturnRows(sqlmock.NewRows([]string{"trip_id"}).AddRow("trip-1"))

	tripIDs, err := repo.CancelBatch(context.Background(), []string{"tkt-1", "tkt-2"}, domain.TicketStatusHeld)
	if err != nil {
		t.Fatalf("CancelBatch failed: %v", err)
	}
	if len(tripIDs) != 1 || tripIDs[0] != "trip-1" {
		t.Errorf("expected trip-1 from cancelled row, got %v", tripIDs)
	}

	// An empty batch never touches the database.
	if _, err := repo.CancelBatch(context.Background(), nil, domain.TicketStatusHeld); err != nil {
		t.Fatalf("empty CancelBatch failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
