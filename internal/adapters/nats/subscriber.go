package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/rihla/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own connection.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

func (s *Subscriber) SubscribeBookingConfirmed(ctx context.Context, handler func(ctx context.Context, ev *domain.BookingEvent) error) error {
	return s.subscribe(SubjectBookingConfirmed, "booking-notifier", func(data []byte) error {
		var ev domain.BookingEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return domain.ParseError{Record: "booking event", Err: err}
		}
		return handler(ctx, &ev)
	})
}

func (s *Subscriber) SubscribeAdModerated(ctx context.Context, handler func(ctx context.Context, ev *domain.ModerationEvent) error) error {
	return s.subscribe(SubjectAdModerated, "moderation-notifier", func(data []byte) error {
		var ev domain.ModerationEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return domain.ParseError{Record: "moderation event", Err: err}
		}
		return handler(ctx, &ev)
	})
}

// subscribe acks on success. Undecodable messages are terminated since
// redelivery cannot fix them; other failures are redelivered up to 3 times.
func (s *Subscriber) subscribe(subject, durable string, handle func([]byte) error) error {
	sub, err := s.js.Subscribe(subject, func(msg *nats.Msg) {
		err := handle(msg.Data)
		switch {
		case err == nil:
			_ = msg.Ack()
		case domain.IsParse(err):
			slog.Error("dropping malformed event", "subject", subject, "error", err)
			_ = msg.Term()
		default:
			slog.Warn("event handler failed", "subject", subject, "error", err)
			_ = msg.Nak()
		}
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
