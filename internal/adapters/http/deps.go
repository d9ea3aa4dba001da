package http

import (
	"time"

	natsadapter "github.com/samirrijal/rihla/internal/adapters/nats"
	"github.com/samirrijal/rihla/internal/adapters/postgres"
	"github.com/samirrijal/rihla/internal/adapters/valkey"
	"github.com/samirrijal/rihla/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Trips         *usecases.TripService
	Bookings      *usecases.BookingService
	Ads           *usecases.AdService
	Profiles      *usecases.ProfileService
	Notifications *usecases.NotificationService
	Support       *usecases.SupportService
	Realtime      *usecases.RealtimeService

	Auth AuthConfig

	DB    *postgres.DB
	NATS  *natsadapter.Publisher
	Cache *valkey.Cache

	RequestTimeout time.Duration // per-request deadline, 15s when zero
	RateLimit      int           // requests per minute per IP, 120 when zero
}

func (d *Dependencies) requestTimeout() time.Duration {
	if d.RequestTimeout <= 0 {
		return 15 * time.Second
	}
	return d.RequestTimeout
}

func (d *Dependencies) rateLimit() int {
	if d.RateLimit <= 0 {
		return 120
	}
	return d.RateLimit
}
