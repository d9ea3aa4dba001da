package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/rihla/internal/core/domain"
)

// Publisher implements ports.EventPublisher and ports.OutboxPublisher.
// Booking and moderation events go through JetStream; location and
// notification pushes are plain core NATS messages that only live
// subscribers see.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := EnsureStreams(js); err != nil {
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

// EnsureStreams creates or updates the durable event streams.
func EnsureStreams(js nats.JetStreamContext) error {
	streams := []nats.StreamConfig{
		{
			Name:      "RIHLA_BOOKINGS",
			Subjects:  []string{"rihla.booking.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "RIHLA_MODERATION",
			Subjects:  []string{"rihla.ad.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

func (p *Publisher) PublishBookingConfirmed(ctx context.Context, ev *domain.BookingEvent) error {
	return p.publishJS(ctx, SubjectBookingConfirmed, ev)
}

func (p *Publisher) PublishBookingRejected(ctx context.Context, ev *domain.BookingEvent) error {
	return p.publishJS(ctx, SubjectBookingRejected, ev)
}

// PublishOutboxEvent sends a stored event with its id as the JetStream
// message id, so a relay retry inside the dedup window is dropped.
func (p *Publisher) PublishOutboxEvent(ctx context.Context, e *domain.OutboxEvent) error {
	subject, ok := outboxSubjects[e.Type]
	if !ok {
		return fmt.Errorf("no subject for outbox event type %q", e.Type)
	}
	_, err := p.js.Publish(subject, e.Payload, nats.Context(ctx), nats.MsgId(e.ID))
	return err
}

func (p *Publisher) PublishLocation(ctx context.Context, u *domain.LocationUpdate) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return p.conn.Publish(LocationSubject(u.TripID), data)
}

func (p *Publisher) PublishNotification(ctx context.Context, n *domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.conn.Publish(NotifySubject(n.UserID), data)
}

func (p *Publisher) publishJS(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, data, nats.Context(ctx), nats.MsgId(uuid.NewString()))
	return err
}

// Conn exposes the underlying connection for feeds sharing it.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Healthy reports whether the connection is up.
func (p *Publisher) Healthy() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("rihla"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
