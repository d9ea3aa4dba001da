package ports

import (
	"context"
	"time"

	"github.com/samirrijal/rihla/internal/core/domain"
)

// TripFilter narrows an active-trip search.
type TripFilter struct {
	FromCity string
	ToCity   string
	After    time.Time
	Limit    int
	Offset   int
}

// TripRepository persists trips.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	ListActive(ctx context.Context, f TripFilter) ([]domain.Trip, error)
	ListByDriver(ctx context.Context, driverID string) ([]domain.Trip, error)
	Delete(ctx context.Context, id string) error
	// UpdateLocation stores the driver's position; nil clears it.
	UpdateLocation(ctx context.Context, id string, loc *domain.Location) error
}

// ReservationGateway is the single atomic operation that checks seat
// availability, decrements it and records the booking.
type ReservationGateway interface {
	ReserveSeats(ctx context.Context, req domain.ReservationRequest) (domain.ReservationResult, error)
}

// BookingRepository persists trip bookings.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	ListForDriver(ctx context.Context, driverID string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error
}

// AdRepository persists tourism ads and their bookings.
type AdRepository interface {
	Create(ctx context.Context, ad *domain.Ad) error
	GetByID(ctx context.Context, id string) (*domain.Ad, error)
	ListActive(ctx context.Context, after time.Time) ([]domain.Ad, error)
	ListByDriver(ctx context.Context, driverID string) ([]domain.Ad, error)
	ListByStatus(ctx context.Context, status domain.AdStatus) ([]domain.Ad, error)
	// UpdateStatus changes status only if the ad is still in from.
	UpdateStatus(ctx context.Context, id string, from, to domain.AdStatus) error
	Delete(ctx context.Context, id string) error
	ReserveSeats(ctx context.Context, adID, userID string, seats int) (domain.ReservationResult, error)
}

// ProfileRepository persists user profiles and roles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	Update(ctx context.Context, p *domain.Profile) error
}

// NotificationRepository persists inbox entries.
type NotificationRepository interface {
	Insert(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// Outbox stores events written in the same transaction as the state change
// they describe. ClaimPending locks the claimed rows, so it must run inside
// a transaction.
type Outbox interface {
	Add(ctx context.Context, e *domain.OutboxEvent) error
	ClaimPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, ids []string) error
}

// ConsultationRepository persists driver consultation requests.
type ConsultationRepository interface {
	Create(ctx context.Context, c *domain.ConsultationRequest) error
	ListByDriver(ctx context.Context, driverID string) ([]domain.ConsultationRequest, error)
}

// LostItemRepository persists lost-item reports.
type LostItemRepository interface {
	Create(ctx context.Context, item *domain.LostItem) error
	GetByID(ctx context.Context, id string) (*domain.LostItem, error)
	ListByDriver(ctx context.Context, driverID string) ([]domain.LostItem, error)
	ListByUser(ctx context.Context, userID string) ([]domain.LostItem, error)
	Respond(ctx context.Context, id, response, status string) error
}

// Transactor runs fn inside a database transaction carried by ctx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
