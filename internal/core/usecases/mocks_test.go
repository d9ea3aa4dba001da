package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/ports"
)

// --- Mock TripRepository ---

type mockTripRepo struct {
	createFn         func(ctx context.Context, trip *domain.Trip) error
	getByIDFn        func(ctx context.Context, id string) (*domain.Trip, error)
	listActiveFn     func(ctx context.Context, f ports.TripFilter) ([]domain.Trip, error)
	listByDriverFn   func(ctx context.Context, driverID string) ([]domain.Trip, error)
	deleteFn         func(ctx context.Context, id string) error
	updateLocationFn func(ctx context.Context, id string, loc *domain.Location) error
	getCalls         int
}

func (m *mockTripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	if m.createFn != nil {
		return m.createFn(ctx, trip)
	}
	trip.ID = "trip-new"
	return nil
}

func (m *mockTripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.getCalls++
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.NotFoundError{Resource: "trip"}
}

func (m *mockTripRepo) ListActive(ctx context.Context, f ports.TripFilter) ([]domain.Trip, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx, f)
	}
	return nil, nil
}

func (m *mockTripRepo) ListByDriver(ctx context.Context, driverID string) ([]domain.Trip, error) {
	if m.listByDriverFn != nil {
		return m.listByDriverFn(ctx, driverID)
	}
	return nil, nil
}

func (m *mockTripRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockTripRepo) UpdateLocation(ctx context.Context, id string, loc *domain.Location) error {
	if m.updateLocationFn != nil {
		return m.updateLocationFn(ctx, id, loc)
	}
	return nil
}

// --- Mock ReservationGateway ---

type mockGateway struct {
	reserveFn func(ctx context.Context, req domain.ReservationRequest) (domain.ReservationResult, error)
	calls     []domain.ReservationRequest
}

func (m *mockGateway) ReserveSeats(ctx context.Context, req domain.ReservationRequest) (domain.ReservationResult, error) {
	m.calls = append(m.calls, req)
	if m.reserveFn != nil {
		return m.reserveFn(ctx, req)
	}
	return domain.ReservationResult{Success: true, Message: "Booking successful"}, nil
}

// --- Mock BookingRepository ---

type mockBookingRepo struct {
	getByIDFn       func(ctx context.Context, id string) (*domain.Booking, error)
	listByUserFn    func(ctx context.Context, userID string) ([]domain.Booking, error)
	listForDriverFn func(ctx context.Context, driverID string) ([]domain.Booking, error)
	updateStatusFn  func(ctx context.Context, id string, status domain.BookingStatus) error
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.NotFoundError{Resource: "booking"}
}

func (m *mockBookingRepo) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockBookingRepo) ListForDriver(ctx context.Context, driverID string) ([]domain.Booking, error) {
	if m.listForDriverFn != nil {
		return m.listForDriverFn(ctx, driverID)
	}
	return nil, nil
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

// --- Mock AdRepository ---

type mockAdRepo struct {
	getByIDFn      func(ctx context.Context, id string) (*domain.Ad, error)
	listActiveFn   func(ctx context.Context, after time.Time) ([]domain.Ad, error)
	updateStatusFn func(ctx context.Context, id string, from, to domain.AdStatus) error
	reserveFn      func(ctx context.Context, adID, userID string, seats int) (domain.ReservationResult, error)
	created        []*domain.Ad
}

func (m *mockAdRepo) Create(ctx context.Context, ad *domain.Ad) error {
	ad.ID = "ad-new"
	m.created = append(m.created, ad)
	return nil
}

func (m *mockAdRepo) GetByID(ctx context.Context, id string) (*domain.Ad, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.NotFoundError{Resource: "ad"}
}

func (m *mockAdRepo) ListActive(ctx context.Context, after time.Time) ([]domain.Ad, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx, after)
	}
	return nil, nil
}

func (m *mockAdRepo) ListByDriver(ctx context.Context, driverID string) ([]domain.Ad, error) {
	return nil, nil
}

func (m *mockAdRepo) ListByStatus(ctx context.Context, status domain.AdStatus) ([]domain.Ad, error) {
	return nil, nil
}

func (m *mockAdRepo) UpdateStatus(ctx context.Context, id string, from, to domain.AdStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, from, to)
	}
	return nil
}

func (m *mockAdRepo) Delete(ctx context.Context, id string) error { return nil }

func (m *mockAdRepo) ReserveSeats(ctx context.Context, adID, userID string, seats int) (domain.ReservationResult, error) {
	if m.reserveFn != nil {
		return m.reserveFn(ctx, adID, userID, seats)
	}
	return domain.ReservationResult{Success: true, Message: "Booking successful"}, nil
}

// --- Mock Transactor ---

type mockTx struct {
	committed  int
	rolledBack int
}

func (m *mockTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		m.rolledBack++
		return err
	}
	m.committed++
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu          sync.Mutex
	confirmed   []*domain.BookingEvent
	rejected    []*domain.BookingEvent
	locations   []*domain.LocationUpdate
	pushed      []*domain.Notification
	rejectErr   error
}

func (m *mockPublisher) PublishBookingConfirmed(ctx context.Context, ev *domain.BookingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed = append(m.confirmed, ev)
	return nil
}

func (m *mockPublisher) PublishBookingRejected(ctx context.Context, ev *domain.BookingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, ev)
	return m.rejectErr
}

func (m *mockPublisher) PublishLocation(ctx context.Context, u *domain.LocationUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = append(m.locations, u)
	return nil
}

func (m *mockPublisher) PublishNotification(ctx context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushed = append(m.pushed, n)
	return nil
}

// --- Mock Outbox ---

type mockOutbox struct {
	added       []*domain.OutboxEvent
	pending     []domain.OutboxEvent
	published   []string
	addErr      error
	claimErr    error
	claimedWith int
}

func (m *mockOutbox) Add(ctx context.Context, e *domain.OutboxEvent) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.added = append(m.added, e)
	return nil
}

func (m *mockOutbox) ClaimPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	m.claimedWith = limit
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	if len(m.pending) > limit {
		return m.pending[:limit], nil
	}
	return m.pending, nil
}

func (m *mockOutbox) MarkPublished(ctx context.Context, ids []string) error {
	m.published = append(m.published, ids...)
	return nil
}

// --- Mock OutboxPublisher ---

type mockOutboxPublisher struct {
	sent   []string
	failOn string
}

func (m *mockOutboxPublisher) PublishOutboxEvent(ctx context.Context, e *domain.OutboxEvent) error {
	if e.ID == m.failOn {
		return errors.New("broker down")
	}
	m.sent = append(m.sent, e.ID)
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, domain.NotFoundError{Resource: "cache key"}
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

// --- Fixtures ---

var (
	rider  = &domain.Session{UserID: "rider-1", Role: domain.RoleUser}
	driver = &domain.Session{UserID: "driver-1", Role: domain.RoleDriver}
	admin  = &domain.Session{UserID: "admin-1", Role: domain.RoleUser, Admin: true}
)

func activeTrip(available int) *domain.Trip {
	return &domain.Trip{
		ID:             "trip-1",
		DriverID:       "driver-1",
		RouteCities:    []string{"A", "B", "C"},
		RoutePrices:    map[string]float64{"A": 500, "B": 300},
		Price:          500,
		FromCity:       "A",
		ToCity:         "C",
		SeatsTotal:     4,
		SeatsAvailable: available,
		DepartureTime:  time.Now().Add(24 * time.Hour),
		Status:         domain.TripActive,
	}
}
