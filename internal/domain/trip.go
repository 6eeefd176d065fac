package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusScheduled  TripStatus = "SCHEDULED"
	TripStatusInProgress TripStatus = "IN_PROGRESS"
	TripStatusFinished   TripStatus = "FINISHED"
	TripStatusCancelled  TripStatus = "CANCELLED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s TripStatus) IsTerminal() bool {
	return s == TripStatusFinished || s == TripStatusCancelled
}

// IsActive reports whether a trip in this status still occupies its
// vehicle's schedule.
func (s TripStatus) IsActive() bool {
	return s == TripStatusScheduled || s == TripStatusInProgress
}

// Trip represents a scheduled movement of one vehicle between two localities.
type Trip struct {
	ID            string
	VehicleID     string
	OriginID      string
	DestinationID string
	DepartureAt   time.Time
	ArrivalAt     time.Time
	Status        TripStatus
	TotalSeats    int // snapshot of vehicle capacity at assignment time
	SeatsFree     int
	PricePerSeat  float64
	CreatedAt     time.Time
}

// Overlaps reports strict interval overlap with [start, end): each
// interval starts before the other ends.
func (t *Trip) Overlaps(start, end time.Time) bool {
	return t.DepartureAt.Before(end) && t.ArrivalAt.After(start)
}
