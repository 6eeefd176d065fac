package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (bool, error)
	ReleaseVehicleLock(ctx context.Context, vehicleID string) error
	AcquireSeatLock(ctx context.Context, tripID string, seatNumber int, ttl time.Duration) (bool, error)
	ReleaseSeatLock(ctx context.Context, tripID string, seatNumber int) error
}

// Ensure concrete types implement interfaces.
var _ LockStoreInterface = (*LockStore)(nil)
