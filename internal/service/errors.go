package service

import (
	"errors"
	"fmt"
	"strings"

	"fleet/internal/domain"
)

var (
	// ErrNoOperativeVehicles is returned when the fleet has no vehicle in
	// OPERATIVE status at all.
	ErrNoOperativeVehicles = errors.New("no operative vehicles in fleet")

	// ErrNoCompatibleVehicle is returned when operative vehicles exist but
	// none can cover the requested window.
	ErrNoCompatibleVehicle = errors.New("no vehicle with a compatible schedule")

	// ErrInvalidTimeWindow is returned when a window's start is not before its end.
	ErrInvalidTimeWindow = errors.New("start time must be before end time")

	// ErrSameOriginDestination is returned when a trip's origin equals its destination.
	ErrSameOriginDestination = errors.New("origin and destination must differ")

	// ErrInvalidVehicleID is returned when vehicle ID is empty.
	ErrInvalidVehicleID = errors.New("invalid vehicle id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidTicketID is returned when ticket ID is empty.
	ErrInvalidTicketID = errors.New("invalid ticket id")

	// ErrInvalidHolderID is returned when holder ID is empty.
	ErrInvalidHolderID = errors.New("invalid holder id")

	// ErrInvalidCapacity is returned when a vehicle's capacity is below one.
	ErrInvalidCapacity = errors.New("capacity must be at least 1")

	// ErrInvalidRegistration is returned when a registration code is empty.
	ErrInvalidRegistration = errors.New("invalid registration code")

	// ErrRegistrationTaken is returned when a registration code is already in use.
	ErrRegistrationTaken = errors.New("registration code already registered")

	// ErrInvalidDowntimeTarget is returned when a downtime target is neither
	// MAINTENANCE nor OUT_OF_SERVICE.
	ErrInvalidDowntimeTarget = errors.New("downtime target must be MAINTENANCE or OUT_OF_SERVICE")

	// ErrVehicleAssigned is returned when an operation requires a vehicle
	// that is not currently on a trip.
	ErrVehicleAssigned = errors.New("vehicle is assigned to a trip")

	// ErrTripNotBookable is returned when holding a seat on a trip that is
	// not in SCHEDULED status.
	ErrTripNotBookable = errors.New("trip is not open for booking")

	// ErrInvalidSeat is returned when a seat number is outside 1..total seats.
	ErrInvalidSeat = errors.New("seat number out of range")

	// ErrSeatTaken is returned when the requested seat already has an
	// active hold or sale.
	ErrSeatTaken = errors.New("seat already held or sold")

	// ErrTicketNotHeld is returned when confirming a ticket that is not in HELD status.
	ErrTicketNotHeld = errors.New("ticket is not held")

	// ErrTicketExpired is returned when confirming a hold past its expiry.
	ErrTicketExpired = errors.New("ticket hold has expired")

	// ErrTicketAlreadySold is returned when confirming an already sold ticket.
	ErrTicketAlreadySold = errors.New("ticket already sold")

	// ErrTicketCancelled is returned when operating on a cancelled ticket.
	ErrTicketCancelled = errors.New("ticket is cancelled")

	// ErrTripCancelled is returned when finalizing a cancelled trip.
	ErrTripCancelled = errors.New("trip is cancelled")

	// ErrTripNotCancellable is returned when cancelling a trip in a terminal state.
	ErrTripNotCancellable = errors.New("trip cannot be cancelled in current state")

	// ErrPaymentFailed is returned when the payment provider declines a charge.
	ErrPaymentFailed = errors.New("payment failed")
)

// DowntimeConflictError is returned when a downtime window overlaps trips the
// vehicle is already committed to. It carries the conflicting trips.
type DowntimeConflictError struct {
	VehicleID string
	Trips     []*domain.Trip
}

func (e *DowntimeConflictError) Error() string {
	ids := make([]string, len(e.Trips))
	for i, trip := range e.Trips {
		ids[i] = trip.ID
	}
	return fmt.Sprintf("downtime window conflicts with trips [%s] of vehicle %s",
		strings.Join(ids, ", "), e.VehicleID)
}
