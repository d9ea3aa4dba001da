package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/rihla/internal/adapters/http"
	natsadapter "github.com/samirrijal/rihla/internal/adapters/nats"
	"github.com/samirrijal/rihla/internal/adapters/postgres"
	"github.com/samirrijal/rihla/internal/adapters/valkey"
	"github.com/samirrijal/rihla/internal/core/ports"
	"github.com/samirrijal/rihla/internal/core/usecases"
	"github.com/samirrijal/rihla/internal/pkg/config"
	"github.com/samirrijal/rihla/internal/pkg/logging"
	"github.com/samirrijal/rihla/internal/pkg/metrics"
	"github.com/samirrijal/rihla/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("rihla-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.RequireAuth(); err != nil {
		log.Fatalf("auth config: %v", err)
	}

	logging.Setup("rihla-api", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry init failed", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache is optional; every service reads through to the database.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Password, cfg.Valkey.DB)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS carries moderation events inside their transaction, so it is required.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	// Repos
	tripRepo := postgres.NewTripRepo(db)
	bookingRepo := postgres.NewBookingRepo(db)
	adRepo := postgres.NewAdRepo(db)
	profileRepo := postgres.NewProfileRepo(db)
	notificationRepo := postgres.NewNotificationRepo(db)
	consultationRepo := postgres.NewConsultationRepo(db)
	lostItemRepo := postgres.NewLostItemRepo(db)
	gateway := postgres.NewReservationGateway(db)
	txm := postgres.NewTxManager(db)

	// Use cases
	deps := &http.Dependencies{
		Trips: usecases.NewTripService(tripRepo, pub, cacheSvc, usecases.TripOptions{
			MaxSeats:      cfg.Booking.MaxSeats,
			MinMoveMeters: cfg.Booking.MinMoveMeters,
		}),
		Bookings:      usecases.NewBookingService(tripRepo, gateway, bookingRepo, pub, cacheSvc),
		Ads:           usecases.NewAdService(adRepo, txm, postgres.NewOutboxRepo(db), cacheSvc, cfg.Booking.MaxSeats),
		Profiles:      usecases.NewProfileService(profileRepo),
		Notifications: usecases.NewNotificationService(notificationRepo, pub),
		Support:       usecases.NewSupportService(consultationRepo, lostItemRepo, bookingRepo),
		Realtime:      usecases.NewRealtimeService(natsadapter.NewLocationFeed(pub.Conn()), tripRepo),
		Auth: http.AuthConfig{
			Secret:   []byte(cfg.Auth.JWTSecret),
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		},
		DB:             db,
		NATS:           pub,
		Cache:          cache,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		RateLimit:      cfg.Server.RateLimit,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Rihla API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.CORSOrigins, ", "),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, If-None-Match",
		ExposeHeaders:    "ETag, Link, Deprecation, Sunset, X-Request-Id",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	go reportPoolStats(ctx, db)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
