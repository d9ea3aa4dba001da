package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/ports"
)

// RealtimeService relays live trip locations to watchers.
type RealtimeService struct {
	feed  ports.LocationFeed
	trips ports.TripRepository
}

// NewRealtimeService creates a new RealtimeService.
func NewRealtimeService(feed ports.LocationFeed, trips ports.TripRepository) *RealtimeService {
	return &RealtimeService{feed: feed, trips: trips}
}

// WatchTrip calls fn with the trip's current location, then with every
// newer update until the returned subscription is released. Updates that
// arrive out of order are dropped: the latest sequence wins.
func (s *RealtimeService) WatchTrip(ctx context.Context, tripID string, fn func(*domain.LocationUpdate)) (ports.Subscription, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	lw := &latestWins{fn: fn}
	sub, err := s.feed.SubscribeLocation(ctx, tripID, lw.deliver)
	if err != nil {
		return nil, fmt.Errorf("subscribe location: %w", err)
	}

	if loc := trip.CurrentLocation; loc != nil {
		lw.deliver(&domain.LocationUpdate{
			TripID:   tripID,
			Location: loc,
			Sequence: loc.UpdatedAt.UnixNano(),
			SentAt:   loc.UpdatedAt,
		})
	}
	return sub, nil
}

type latestWins struct {
	mu   sync.Mutex
	last int64
	fn   func(*domain.LocationUpdate)
}

func (l *latestWins) deliver(u *domain.LocationUpdate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if u.Sequence <= l.last {
		return
	}
	l.last = u.Sequence
	l.fn(u)
}
