package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/ports"
	"github.com/samirrijal/rihla/internal/pkg/geospatial"
)

// TripInput is what a driver submits to publish a trip.
type TripInput struct {
	Cities        []string           `json:"route_cities"`
	Prices        map[string]float64 `json:"route_prices"`
	Seats         int                `json:"seats"`
	DepartureTime time.Time          `json:"departure_time"`
}

// Quote is the price of a leg for a number of seats.
type Quote struct {
	TripID   string  `json:"trip_id"`
	FromCity string  `json:"from_city"`
	ToCity   string  `json:"to_city"`
	Fare     float64 `json:"fare"`
	Seats    int     `json:"seats"`
	Total    float64 `json:"total"`
}

// TripOptions tunes TripService.
type TripOptions struct {
	MaxSeats      int
	MinMoveMeters float64
}

// TripService handles trip publishing, lookups and fare quotes.
type TripService struct {
	trips     ports.TripRepository
	publisher ports.EventPublisher
	cache     ports.CacheService
	opts      TripOptions
}

// NewTripService creates a new TripService.
func NewTripService(trips ports.TripRepository, publisher ports.EventPublisher, cache ports.CacheService, opts TripOptions) *TripService {
	if opts.MaxSeats <= 0 {
		opts.MaxSeats = 50
	}
	return &TripService{trips: trips, publisher: publisher, cache: cache, opts: opts}
}

// Create validates the route through a RouteBuilder and stores the trip.
// Nothing is written when validation fails.
func (s *TripService) Create(ctx context.Context, sess *domain.Session, in TripInput) (*domain.Trip, error) {
	if err := sess.Require(domain.RoleDriver); err != nil {
		return nil, err
	}

	var errs domain.ValidationErrors
	draft, err := domain.RouteBuilderFrom(in.Cities, in.Prices).Submit()
	if err != nil && !errors.As(err, &errs) {
		return nil, err
	}
	if in.Seats < 1 || in.Seats > s.opts.MaxSeats {
		errs = append(errs, domain.ValidationError{Field: "seats", Msg: fmt.Sprintf("must be between 1 and %d", s.opts.MaxSeats)})
	}
	if !in.DepartureTime.After(time.Now()) {
		errs = append(errs, domain.ValidationError{Field: "departure_time", Msg: "must be in the future"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	trip := &domain.Trip{
		DriverID:       sess.UserID,
		RouteCities:    draft.Cities,
		RoutePrices:    draft.Prices,
		Price:          draft.Price,
		FromCity:       draft.From(),
		ToCity:         draft.To(),
		SeatsTotal:     in.Seats,
		SeatsAvailable: in.Seats,
		DepartureTime:  in.DepartureTime,
		Status:         domain.TripActive,
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}
	invalidate(ctx, s.cache, keyActiveTrips)
	return trip, nil
}

// GetByID returns a trip, served from cache when possible.
func (s *TripService) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	var trip domain.Trip
	if cached(ctx, s.cache, tripKey(id), &trip) {
		return &trip, nil
	}
	return s.Refresh(ctx, id)
}

// Refresh always reads the trip from the store and repopulates the cache.
func (s *TripService) Refresh(ctx context.Context, id string) (*domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	store(ctx, s.cache, tripKey(id), trip, 30)
	return trip, nil
}

// ListActive returns active trips with seats left departing in the future, optionally
// filtered by origin and destination city.
func (s *TripService) ListActive(ctx context.Context, from, to string, limit, offset int) ([]domain.Trip, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	unfiltered := from == "" && to == "" && offset == 0 && limit == 50

	if unfiltered {
		var trips []domain.Trip
		if cached(ctx, s.cache, keyActiveTrips, &trips) {
			return trips, nil
		}
	}

	trips, err := s.trips.ListActive(ctx, ports.TripFilter{
		FromCity: from,
		ToCity:   to,
		After:    time.Now(),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, err
	}

	if unfiltered {
		store(ctx, s.cache, keyActiveTrips, trips, 60)
	}
	return trips, nil
}

// ListByDriver returns the caller's own trips.
func (s *TripService) ListByDriver(ctx context.Context, sess *domain.Session) ([]domain.Trip, error) {
	if err := sess.Require(domain.RoleDriver); err != nil {
		return nil, err
	}
	return s.trips.ListByDriver(ctx, sess.UserID)
}

// Delete removes a trip owned by the caller.
func (s *TripService) Delete(ctx context.Context, sess *domain.Session, id string) error {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !sess.Owns(trip.DriverID) {
		return domain.ForbiddenError{Action: "delete this trip"}
	}
	if err := s.trips.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	invalidate(ctx, s.cache, keyActiveTrips, tripKey(id))
	return nil
}

// Fare quotes the leg from boarding to alighting for seats riders.
func (s *TripService) Fare(ctx context.Context, tripID, from, to string, seats int) (*Quote, error) {
	trip, err := s.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	route := trip.Route()
	if to == "" {
		to = trip.ToCity
	}
	if err := route.ValidateLeg(from, to); err != nil {
		return nil, err
	}
	total, err := route.Total(from, seats)
	if err != nil {
		return nil, err
	}
	fare, _ := route.FareFrom(from)
	return &Quote{TripID: trip.ID, FromCity: from, ToCity: to, Fare: fare, Seats: seats, Total: total}, nil
}

// ShareLocation records the driver's position and publishes it to riders
// watching the trip. Positions closer than MinMoveMeters to the last one
// are dropped.
func (s *TripService) ShareLocation(ctx context.Context, sess *domain.Session, tripID string, loc domain.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	trip, err := s.ownTrip(ctx, sess, tripID)
	if err != nil {
		return err
	}
	if last := trip.CurrentLocation; last != nil &&
		!geospatial.Moved(last.Lat, last.Lng, loc.Lat, loc.Lng, s.opts.MinMoveMeters) {
		return nil
	}

	now := time.Now()
	loc.UpdatedAt = now
	if err := s.trips.UpdateLocation(ctx, tripID, &loc); err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	invalidate(ctx, s.cache, tripKey(tripID))

	return s.publisher.PublishLocation(ctx, &domain.LocationUpdate{
		TripID:   tripID,
		Location: &loc,
		Sequence: now.UnixNano(),
		SentAt:   now,
	})
}

// StopSharing clears the driver's position.
func (s *TripService) StopSharing(ctx context.Context, sess *domain.Session, tripID string) error {
	if _, err := s.ownTrip(ctx, sess, tripID); err != nil {
		return err
	}
	if err := s.trips.UpdateLocation(ctx, tripID, nil); err != nil {
		return fmt.Errorf("clear location: %w", err)
	}
	invalidate(ctx, s.cache, tripKey(tripID))

	now := time.Now()
	return s.publisher.PublishLocation(ctx, &domain.LocationUpdate{
		TripID:   tripID,
		Sequence: now.UnixNano(),
		SentAt:   now,
	})
}

func (s *TripService) ownTrip(ctx context.Context, sess *domain.Session, tripID string) (*domain.Trip, error) {
	if err := sess.Require(domain.RoleDriver); err != nil {
		return nil, err
	}
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !sess.Owns(trip.DriverID) {
		return nil, domain.ForbiddenError{Action: "share location for this trip"}
	}
	return trip, nil
}
