package domain

import "time"

// TicketStatus represents the current status of a ticket.
type TicketStatus string

const (
	TicketStatusHeld      TicketStatus = "HELD"
	TicketStatusSold      TicketStatus = "SOLD"
	TicketStatusCancelled TicketStatus = "CANCELLED"
)

// Ticket represents a seat hold or sale on a trip.
//
// Invariant: for a given (trip, seat) at most one ticket is HELD or SOLD
// at any instant. A HELD ticket past its expiry no longer counts against
// the seat; the hold sweeper cancels it and releases the seat.
type Ticket struct {
	ID         string
	TripID     string
	SeatNumber int // 1..Trip.TotalSeats
	HolderID   string
	Status     TicketStatus
	Price      float64
	ExpiresAt  time.Time // set only while HELD
	PaymentRef string    // provider reference, set once SOLD
	CreatedAt  time.Time
}

// Expired reports whether a HELD ticket's expiry has passed.
func (t *Ticket) Expired(now time.Time) bool {
	return t.Status == TicketStatusHeld && !t.ExpiresAt.After(now)
}
