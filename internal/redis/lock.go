package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireVehicleLock attempts to acquire a lock for the given vehicle.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:vehicle:%s", vehicleID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseVehicleLock releases the lock for the given vehicle.
func (s *LockStore) ReleaseVehicleLock(ctx context.Context, vehicleID string) error {
	key := fmt.Sprintf("lock:vehicle:%s", vehicleID)

	return s.client.Del(ctx, key).Err()
}

// AcquireSeatLock attempts to acquire a lock for one seat on a trip.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireSeatLock(ctx context.Context, tripID string, seatNumber int, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:seat:%s:%d", tripID, seatNumber)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseSeatLock releases the lock for one seat on a trip.
func (s *LockStore) ReleaseSeatLock(ctx context.Context, tripID string, seatNumber int) error {
	key := fmt.Sprintf("lock:seat:%s:%d", tripID, seatNumber)

	return s.client.Del(ctx, key).Err()
}
