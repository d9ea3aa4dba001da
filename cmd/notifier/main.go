package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/rihla/internal/adapters/nats"
	"github.com/samirrijal/rihla/internal/adapters/postgres"
	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/usecases"
	"github.com/samirrijal/rihla/internal/pkg/config"
	"github.com/samirrijal/rihla/internal/pkg/logging"
	"github.com/samirrijal/rihla/internal/workflows"
)

// notifier turns booking and moderation events into inbox notifications.
// It relays committed outbox events to JetStream, consumes the event
// subjects and runs the worker that executes one NotificationWorkflow per
// event.
func main() {
	cfg, err := config.Load("rihla-notifier")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup("rihla-notifier", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.NotificationWorkflow)
	w.RegisterActivity(&workflows.NotificationActivities{
		Notifications: usecases.NewNotificationService(postgres.NewNotificationRepo(db), pub),
	})

	relay := usecases.NewOutboxRelay(postgres.NewOutboxRepo(db), postgres.NewTxManager(db), pub, cfg.Outbox.BatchSize)
	go relay.Run(ctx, time.Duration(cfg.Outbox.PollInterval)*time.Millisecond)

	starter := workflows.NewStarter(c, cfg.Temporal.TaskQueue)

	err = sub.SubscribeBookingConfirmed(ctx, func(ctx context.Context, ev *domain.BookingEvent) error {
		n := usecases.BookingNotification(ev)
		n.ID = workflows.EventID("booking", ev.TripID, ev.UserID, ev.At.Format(time.RFC3339Nano))
		return starter.Notify(ctx, n)
	})
	if err != nil {
		log.Fatalf("subscribe bookings: %v", err)
	}

	err = sub.SubscribeAdModerated(ctx, func(ctx context.Context, ev *domain.ModerationEvent) error {
		n := usecases.ModerationNotification(ev)
		n.ID = workflows.EventID("moderation", ev.AdID, string(ev.To), ev.At.Format(time.RFC3339Nano))
		return starter.Notify(ctx, n)
	})
	if err != nil {
		log.Fatalf("subscribe moderation: %v", err)
	}

	slog.Info("notifier worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
