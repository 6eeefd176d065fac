package tests

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"fleet/internal/domain"
	"fleet/internal/repository"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is a mock implementation of VehicleRepository.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError       error
	UpdateError       error
	ListByStatusError error
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles: make(map[string]*domain.Vehicle),
	}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
	return nil
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *vehicle
	return &copy, nil
}

func (m *MockVehicleRepository) GetByRegistration(ctx context.Context, registration string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.vehicles {
		if v.Registration == registration {
			copy := *v
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockVehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		copy := *v
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockVehicleRepository) ListByStatus(ctx context.Context, status domain.VehicleStatus) ([]*domain.Vehicle, error) {
	if m.ListByStatusError != nil {
		return nil, m.ListByStatusError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Vehicle, 0)
	for _, v := range m.vehicles {
		if v.Status == status && !v.Disabled {
			copy := *v
			result = append(result, &copy)
		}
	}
	// Deterministic ordering, like the SQL implementation.
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockVehicleRepository) ListDowntimeStartsDue(ctx context.Context, now time.Time, limit int) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Vehicle, 0)
	for _, v := range m.vehicles {
		if v.DowntimePending && v.Status == domain.VehicleStatusOperative && !v.DowntimeStart.After(now) {
			copy := *v
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockVehicleRepository) ListDowntimeEndsDue(ctx context.Context, now time.Time, limit int) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Vehicle, 0)
	for _, v := range m.vehicles {
		inDowntime := v.Status == domain.VehicleStatusMaintenance || v.Status == domain.VehicleStatusOutOfService
		if inDowntime && !v.DowntimePending && v.HasDowntime() && !v.DowntimeEnd.After(now) {
			copy := *v
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockVehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vehicles[vehicle.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *vehicle
	m.vehicles[vehicle.ID] = &copy
	return nil
}

func (m *MockVehicleRepository) TransitionStatus(ctx context.Context, id string, to domain.VehicleStatus, from ...domain.VehicleStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return repository.ErrStaleStatus
	}
	for _, status := range from {
		if vehicle.Status == status {
			vehicle.Status = to
			return nil
		}
	}
	return repository.ErrStaleStatus
}

func (m *MockVehicleRepository) SetDisabled(ctx context.Context, id string, disabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return repository.ErrNotFound
	}
	vehicle.Disabled = disabled
	return nil
}

// GetVehicle returns a vehicle for test assertions.
func (m *MockVehicleRepository) GetVehicle(id string) *domain.Vehicle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vehicles[id]
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters
	CreateCallCount          int32
	UpdateCallCount          int32
	TransitionCallCount      int32
	AdjustSeatsFreeCallCount int32

	// Error injection
	CreateError          error
	UpdateError          error
	TransitionError      error
	AdjustSeatsFreeError error

	// OnGetByID, when set, runs after each GetByID read. Tests use it to
	// interleave a concurrent writer between a service's read and its
	// guarded write.
	OnGetByID func(id string)
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	trip, ok := m.trips[id]
	if !ok {
		m.mu.RUnlock()
		return nil, repository.ErrNotFound
	}
	copy := *trip
	m.mu.RUnlock()

	if m.OnGetByID != nil {
		m.OnGetByID(id)
	}
	return &copy, nil
}

func (m *MockTripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		copy := *t
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) TransitionStatus(ctx context.Context, id string, to domain.TripStatus, from ...domain.TripStatus) error {
	atomic.AddInt32(&m.TransitionCallCount, 1)
	if m.TransitionError != nil {
		return m.TransitionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return repository.ErrStaleStatus
	}
	for _, status := range from {
		if trip.Status == status {
			trip.Status = to
			return nil
		}
	}
	return repository.ErrStaleStatus
}

func (m *MockTripRepository) FindOverlapping(ctx context.Context, vehicleID string, start, end time.Time) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if t.VehicleID == vehicleID && t.Status.IsActive() && t.Overlaps(start, end) {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DepartureAt.Before(result[j].DepartureAt) })
	return result, nil
}

func (m *MockTripRepository) LastEndingBefore(ctx context.Context, vehicleID string, at time.Time) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var last *domain.Trip
	for _, t := range m.trips {
		if t.VehicleID != vehicleID || !t.Status.IsActive() || !t.ArrivalAt.Before(at) {
			continue
		}
		if last == nil || t.ArrivalAt.After(last.ArrivalAt) {
			last = t
		}
	}
	if last == nil {
		return nil, nil
	}
	copy := *last
	return &copy, nil
}

func (m *MockTripRepository) NextStartingAfter(ctx context.Context, vehicleID string, at time.Time) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var next *domain.Trip
	for _, t := range m.trips {
		if t.VehicleID != vehicleID || t.Status != domain.TripStatusScheduled || !t.DepartureAt.After(at) {
			continue
		}
		if next == nil || t.DepartureAt.Before(next.DepartureAt) {
			next = t
		}
	}
	if next == nil {
		return nil, nil
	}
	copy := *next
	return &copy, nil
}

func (m *MockTripRepository) ListScheduledEndedBefore(ctx context.Context, now time.Time, limit int) ([]*domain.Trip, error) {
	return m.listByStatusAndTime(domain.TripStatusScheduled, func(t *domain.Trip) bool { return !t.ArrivalAt.After(now) }, limit)
}

func (m *MockTripRepository) ListScheduledStartedBefore(ctx context.Context, now time.Time, limit int) ([]*domain.Trip, error) {
	return m.listByStatusAndTime(domain.TripStatusScheduled, func(t *domain.Trip) bool { return !t.DepartureAt.After(now) }, limit)
}

func (m *MockTripRepository) ListInProgressEndedBefore(ctx context.Context, now time.Time, limit int) ([]*domain.Trip, error) {
	return m.listByStatusAndTime(domain.TripStatusInProgress, func(t *domain.Trip) bool { return !t.ArrivalAt.After(now) }, limit)
}

func (m *MockTripRepository) listByStatusAndTime(status domain.TripStatus, due func(*domain.Trip) bool, limit int) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if t.Status == status && due(t) {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockTripRepository) AdjustSeatsFree(ctx context.Context, tripID string, delta int) error {
	atomic.AddInt32(&m.AdjustSeatsFreeCallCount, 1)
	if m.AdjustSeatsFreeError != nil {
		return m.AdjustSeatsFreeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return repository.ErrNotFound
	}
	trip.SeatsFree += delta
	return nil
}

// GetTrip returns a trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns the number of trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK TICKET REPOSITORY
// ──────────────────────────────────────────────

// MockTicketRepository is a mock implementation of TicketRepository.
type MockTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket

	// Counters
	CreateCallCount      int32
	UpdateCallCount      int32
	CancelBatchCallCount int32

	// Error injection
	CreateError error
	UpdateError error

	// OnGetByID runs after each GetByID read; OnListExpiredHolds runs
	// after each expired-hold listing. Tests use them to interleave a
	// concurrent writer between a read and its guarded write.
	OnGetByID          func(id string)
	OnListExpiredHolds func()
}

// NewMockTicketRepository creates a new mock ticket repository.
func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{
		tickets: make(map[string]*domain.Ticket),
	}
}

// AddTicket adds a ticket to the mock repository.
func (m *MockTicketRepository) AddTicket(ticket *domain.Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[ticket.ID] = ticket
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Enforce the partial unique index the SQL implementation relies on.
	for _, t := range m.tickets {
		if t.TripID == ticket.TripID && t.SeatNumber == ticket.SeatNumber && t.Status != domain.TicketStatusCancelled {
			return repository.ErrSeatConflict
		}
	}
	copy := *ticket
	m.tickets[ticket.ID] = &copy
	return nil
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	m.mu.RLock()
	ticket, ok := m.tickets[id]
	if !ok {
		m.mu.RUnlock()
		return nil, repository.ErrNotFound
	}
	copy := *ticket
	m.mu.RUnlock()

	if m.OnGetByID != nil {
		m.OnGetByID(id)
	}
	return &copy, nil
}

func (m *MockTicketRepository) GetActiveBySeat(ctx context.Context, tripID string, seatNumber int) (*domain.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tickets {
		if t.TripID == tripID && t.SeatNumber == seatNumber && t.Status != domain.TicketStatusCancelled {
			copy := *t
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockTicketRepository) ListByTrip(ctx context.Context, tripID string) ([]*domain.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ticket, 0)
	for _, t := range m.tickets {
		if t.TripID == tripID {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SeatNumber < result[j].SeatNumber })
	return result, nil
}

func (m *MockTicketRepository) ListActiveByTrip(ctx context.Context, tripID string) ([]*domain.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ticket, 0)
	for _, t := range m.tickets {
		if t.TripID == tripID && t.Status != domain.TicketStatusCancelled {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SeatNumber < result[j].SeatNumber })
	return result, nil
}

func (m *MockTicketRepository) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Ticket, error) {
	m.mu.RLock()
	result := make([]*domain.Ticket, 0)
	for _, t := range m.tickets {
		if t.Expired(now) {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	m.mu.RUnlock()

	if m.OnListExpiredHolds != nil {
		m.OnListExpiredHolds()
	}
	return result, nil
}

func (m *MockTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[ticket.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *ticket
	m.tickets[ticket.ID] = &copy
	return nil
}

func (m *MockTicketRepository) CancelBatch(ctx context.Context, ids []string, from ...domain.TicketStatus) ([]string, error) {
	atomic.AddInt32(&m.CancelBatchCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	var tripIDs []string
	for _, id := range ids {
		t, ok := m.tickets[id]
		if !ok {
			continue
		}
		for _, status := range from {
			if t.Status == status {
				t.Status = domain.TicketStatusCancelled
				t.ExpiresAt = time.Time{}
				tripIDs = append(tripIDs, t.TripID)
				break
			}
		}
	}
	return tripIDs, nil
}

// GetTicket returns a ticket for test assertions.
func (m *MockTicketRepository) GetTicket(id string) *domain.Ticket {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tickets[id]
}

// CountByStatus counts tickets in a status, for assertions.
func (m *MockTicketRepository) CountByStatus(status domain.TicketStatus) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, t := range m.tickets {
		if t.Status == status {
			count++
		}
	}
	return count
}

// ──────────────────────────────────────────────
// MOCK LOCALITY REPOSITORY
// ──────────────────────────────────────────────

// MockLocalityRepository is a mock implementation of LocalityRepository.
type MockLocalityRepository struct {
	mu         sync.RWMutex
	localities map[string]*domain.Locality
}

// NewMockLocalityRepository creates a new mock locality repository.
func NewMockLocalityRepository() *MockLocalityRepository {
	return &MockLocalityRepository{
		localities: make(map[string]*domain.Locality),
	}
}

// AddLocality adds a locality to the mock repository.
func (m *MockLocalityRepository) AddLocality(locality *domain.Locality) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.localities[locality.ID] = locality
}

func (m *MockLocalityRepository) Create(ctx context.Context, locality *domain.Locality) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.localities[locality.ID] = locality
	return nil
}

func (m *MockLocalityRepository) GetByID(ctx context.Context, id string) (*domain.Locality, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	locality, ok := m.localities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *locality
	return &copy, nil
}

func (m *MockLocalityRepository) GetAll(ctx context.Context) ([]*domain.Locality, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Locality, 0, len(m.localities))
	for _, l := range m.localities {
		copy := *l
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) acquire(key string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}
	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) release(key string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func (m *MockLockStore) AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (bool, error) {
	return m.acquire("lock:vehicle:"+vehicleID, ttl)
}

func (m *MockLockStore) ReleaseVehicleLock(ctx context.Context, vehicleID string) error {
	return m.release("lock:vehicle:" + vehicleID)
}

func (m *MockLockStore) AcquireSeatLock(ctx context.Context, tripID string, seatNumber int, ttl time.Duration) (bool, error) {
	return m.acquire(seatLockKey(tripID, seatNumber), ttl)
}

func (m *MockLockStore) ReleaseSeatLock(ctx context.Context, tripID string, seatNumber int) error {
	return m.release(seatLockKey(tripID, seatNumber))
}

func seatLockKey(tripID string, seatNumber int) string {
	return fmt.Sprintf("lock:seat:%s:%d", tripID, seatNumber)
}

// IsVehicleLocked checks if a vehicle is locked (for test assertions).
func (m *MockLockStore) IsVehicleLocked(vehicleID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:vehicle:"+vehicleID]
	return exists && time.Now().Before(expiry)
}

// IsSeatLocked checks if a seat is locked (for test assertions).
func (m *MockLockStore) IsSeatLocked(tripID string, seatNumber int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks[seatLockKey(tripID, seatNumber)]
	return exists && time.Now().Before(expiry)
}

// ClearLocks clears all locks (for test cleanup).
func (m *MockLockStore) ClearLocks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks = make(map[string]time.Time)
}

// ──────────────────────────────────────────────
// MANUAL CLOCK
// ──────────────────────────────────────────────

// ManualClock is a clock tests move by hand.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a manual clock starting at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t.UTC()}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

// ──────────────────────────────────────────────
// MOCK PSP (Payment Service Provider)
// ──────────────────────────────────────────────

// MockPSP is a mock payment service provider.
type MockPSP struct {
	mu sync.Mutex

	// Error injection
	ChargeError error
	RefundError error

	// Counters
	ChargeCallCount int32
	RefundCallCount int32

	// Last refunded reference, for assertions.
	LastRefundRef string
}

// NewMockPSP creates a new mock PSP.
func NewMockPSP() *MockPSP {
	return &MockPSP{}
}

func (m *MockPSP) Charge(ctx context.Context, amount float64) (string, error) {
	atomic.AddInt32(&m.ChargeCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ChargeError != nil {
		return "", m.ChargeError
	}
	return "ch_" + uuid.New().String(), nil
}

func (m *MockPSP) Refund(ctx context.Context, ref string, amount float64) (string, error) {
	atomic.AddInt32(&m.RefundCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RefundError != nil {
		return "", m.RefundError
	}
	m.LastRefundRef = ref
	return "re_" + uuid.New().String(), nil
}
