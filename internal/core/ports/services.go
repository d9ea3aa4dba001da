package ports

import (
	"context"

	"github.com/samirrijal/rihla/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev *domain.BookingEvent) error
	PublishBookingRejected(ctx context.Context, ev *domain.BookingEvent) error
	PublishLocation(ctx context.Context, u *domain.LocationUpdate) error
	PublishNotification(ctx context.Context, n *domain.Notification) error
}

// OutboxPublisher hands a stored outbox event to the broker. The event id
// doubles as the broker's dedup key.
type OutboxPublisher interface {
	PublishOutboxEvent(ctx context.Context, e *domain.OutboxEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeBookingConfirmed(ctx context.Context, handler func(ctx context.Context, ev *domain.BookingEvent) error) error
	SubscribeAdModerated(ctx context.Context, handler func(ctx context.Context, ev *domain.ModerationEvent) error) error
}

// Subscription is a live handle on a feed. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe() error
}

// LocationFeed delivers raw location updates for a single trip. Order
// across rapid updates is not guaranteed.
type LocationFeed interface {
	SubscribeLocation(ctx context.Context, tripID string, fn func(*domain.LocationUpdate)) (Subscription, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, keys ...string) error
}

