package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrSeatConflict is returned when inserting a ticket would violate
	// the one-active-ticket-per-seat constraint.
	ErrSeatConflict = errors.New("seat already taken")

	// ErrStaleStatus is returned by guarded status transitions when the
	// record is no longer in any of the expected source statuses.
	ErrStaleStatus = errors.New("status changed concurrently")
)
