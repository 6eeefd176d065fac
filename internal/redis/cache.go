package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	VehicleCacheTTL = 30 * time.Second // Vehicle status changes with every sweep
	TripCacheTTL    = 10 * time.Second // Trip status and seat counts change during booking
)

// Key prefixes
const (
	vehicleCachePrefix = "cache:vehicle:"
	tripCachePrefix    = "cache:trip:"
)

// CachedVehicle represents a cached vehicle entity.
type CachedVehicle struct {
	ID              string    `json:"id"`
	Registration    string    `json:"registration"`
	Capacity        int       `json:"capacity"`
	Status          string    `json:"status"`
	LocalityID      string    `json:"locality_id"`
	Disabled        bool      `json:"disabled"`
	DowntimeStart   time.Time `json:"downtime_start,omitempty"`
	DowntimeEnd     time.Time `json:"downtime_end,omitempty"`
	DowntimeTarget  string    `json:"downtime_target,omitempty"`
	DowntimePending bool      `json:"downtime_pending,omitempty"`
}

// CachedTrip represents a cached trip entity.
type CachedTrip struct {
	ID            string    `json:"id"`
	VehicleID     string    `json:"vehicle_id"`
	OriginID      string    `json:"origin_id"`
	DestinationID string    `json:"destination_id"`
	DepartureAt   time.Time `json:"departure_at"`
	ArrivalAt     time.Time `json:"arrival_at"`
	Status        string    `json:"status"`
	TotalSeats    int       `json:"total_seats"`
	SeatsFree     int       `json:"seats_free"`
	PricePerSeat  float64   `json:"price_per_seat"`
}

// GetVehicle retrieves a vehicle from cache. Returns nil on a cache miss.
func (s *CacheStore) GetVehicle(ctx context.Context, vehicleID string) (*CachedVehicle, error) {
	data, err := s.client.Get(ctx, vehicleCachePrefix+vehicleID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var vehicle CachedVehicle
	if err := json.Unmarshal(data, &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// SetVehicle stores a vehicle in cache.
func (s *CacheStore) SetVehicle(ctx context.Context, vehicle *CachedVehicle) error {
	data, err := json.Marshal(vehicle)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, vehicleCachePrefix+vehicle.ID, data, VehicleCacheTTL).Err()
}

// InvalidateVehicle removes a vehicle from cache.
func (s *CacheStore) InvalidateVehicle(ctx context.Context, vehicleID string) error {
	return s.client.Del(ctx, vehicleCachePrefix+vehicleID).Err()
}

// GetTrip retrieves a trip from cache. Returns nil on a cache miss.
func (s *CacheStore) GetTrip(ctx context.Context, tripID string) (*CachedTrip, error) {
	data, err := s.client.Get(ctx, tripCachePrefix+tripID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var trip CachedTrip
	if err := json.Unmarshal(data, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// SetTrip stores a trip in cache.
func (s *CacheStore) SetTrip(ctx context.Context, trip *CachedTrip) error {
	data, err := json.Marshal(trip)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, tripCachePrefix+trip.ID, data, TripCacheTTL).Err()
}

// InvalidateTrip removes a trip from cache.
func (s *CacheStore) InvalidateTrip(ctx context.Context, tripID string) error {
	return s.client.Del(ctx, tripCachePrefix+tripID).Err()
}
