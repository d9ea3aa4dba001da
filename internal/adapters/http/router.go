package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/rihla/internal/pkg/metrics"
)

// legacyPriceSunset is when GET /v1/trips/:id/price goes away.
var legacyPriceSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Use(limiter.New(limiter.Config{
		Max:        deps.rateLimit(),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/v1/trips/:id/price", SunsetDate: legacyPriceSunset, Alternative: "/v1/trips/:id/fare"},
	}))

	// Health & readiness (no timeout, no auth)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	var sessions SessionSource
	if deps.Profiles != nil {
		sessions = deps.Profiles
	}
	auth := AuthMiddleware(deps.Auth, sessions)

	d := deps.requestTimeout()
	t := func(h fiber.Handler) fiber.Handler { return timeout.NewWithContext(h, d) }

	v1 := app.Group("/v1", auth)

	// Trips
	v1.Get("/trips", t(ListTripsHandler(deps)))
	v1.Post("/trips", t(CreateTripHandler(deps)))
	v1.Get("/trips/:id", t(GetTripHandler(deps)))
	v1.Delete("/trips/:id", t(DeleteTripHandler(deps)))
	v1.Get("/trips/:id/fare", t(TripFareHandler(deps)))
	v1.Get("/trips/:id/price", t(LegacyTripPriceHandler(deps)))
	v1.Put("/trips/:id/location", t(ShareLocationHandler(deps)))
	v1.Delete("/trips/:id/location", t(StopSharingHandler(deps)))

	// Bookings
	v1.Post("/bookings", t(CreateBookingHandler(deps)))
	v1.Get("/bookings", t(MyBookingsHandler(deps)))
	v1.Post("/bookings/:id/cancel", t(CancelBookingHandler(deps)))

	// Ads
	v1.Get("/ads", t(ListAdsHandler(deps)))
	v1.Post("/ads", t(CreateAdHandler(deps)))
	v1.Get("/ads/pending", t(PendingAdsHandler(deps)))
	v1.Get("/ads/:id", t(GetAdHandler(deps)))
	v1.Delete("/ads/:id", t(DeleteAdHandler(deps)))
	v1.Post("/ads/:id/book", t(BookAdHandler(deps)))
	v1.Post("/ads/:id/moderate", t(ModerateAdHandler(deps)))

	// Driver dashboard
	v1.Get("/me/trips", t(MyTripsHandler(deps)))
	v1.Get("/me/trip-bookings", t(DriverBookingsHandler(deps)))
	v1.Get("/me/ads", t(MyAdsHandler(deps)))
	v1.Get("/me/lost-items", t(DriverLostItemsHandler(deps)))

	// Account
	v1.Get("/profile", t(GetProfileHandler(deps)))
	v1.Put("/profile", t(UpdateProfileHandler(deps)))
	v1.Get("/notifications", t(ListNotificationsHandler(deps)))
	v1.Post("/notifications/:id/read", t(MarkNotificationReadHandler(deps)))
	v1.Post("/consultations", t(CreateConsultationHandler(deps)))
	v1.Get("/consultations", t(ListConsultationsHandler(deps)))
	v1.Post("/lost-items", t(ReportLostItemHandler(deps)))
	v1.Get("/lost-items", t(MyLostItemsHandler(deps)))
	v1.Post("/lost-items/:id/respond", t(RespondLostItemHandler(deps)))

	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), d))

	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/trips/:id/location", websocket.New(LocationSocketHandler(deps)))
}
