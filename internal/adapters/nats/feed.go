package natsadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/ports"
)

// LocationFeed implements ports.LocationFeed on core NATS subjects.
type LocationFeed struct {
	conn *nats.Conn
}

func NewLocationFeed(conn *nats.Conn) *LocationFeed {
	return &LocationFeed{conn: conn}
}

// SubscribeLocation calls fn for every decodable update on the trip's
// subject. Malformed messages are logged and skipped.
func (f *LocationFeed) SubscribeLocation(ctx context.Context, tripID string, fn func(*domain.LocationUpdate)) (ports.Subscription, error) {
	sub, err := f.conn.Subscribe(LocationSubject(tripID), func(msg *nats.Msg) {
		var u domain.LocationUpdate
		if err := json.Unmarshal(msg.Data, &u); err != nil {
			slog.Warn("malformed location update", "trip_id", tripID,
				"error", domain.ParseError{Record: "location update", Err: err})
			return
		}
		if u.TripID == "" {
			u.TripID = tripID
		}
		fn(&u)
	})
	if err != nil {
		return nil, err
	}
	return &subscription{sub: sub}, nil
}

type subscription struct {
	once sync.Once
	sub  *nats.Subscription
	err  error
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.err = s.sub.Unsubscribe()
	})
	return s.err
}
