package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/ports"
	"github.com/samirrijal/rihla/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/rihla/internal/core/usecases")

// ReserveInput is a rider's booking request.
type ReserveInput struct {
	TripID   string `json:"trip_id"`
	FromCity string `json:"from_city"`
	ToCity   string `json:"to_city"`
	Seats    int    `json:"seats"`
}

// ReserveOutcome carries the remote verdict and the trip as re-read after it.
// Trip is nil only when the re-read itself failed.
type ReserveOutcome struct {
	Result domain.ReservationResult `json:"result"`
	Total  float64                  `json:"total_price"`
	Trip   *domain.Trip             `json:"trip,omitempty"`
}

// BookingService requests seat reservations and manages riders' bookings.
type BookingService struct {
	trips     ports.TripRepository
	gateway   ports.ReservationGateway
	bookings  ports.BookingRepository
	publisher ports.EventPublisher
	cache     ports.CacheService
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	trips ports.TripRepository,
	gateway ports.ReservationGateway,
	bookings ports.BookingRepository,
	publisher ports.EventPublisher,
	cache ports.CacheService,
) *BookingService {
	return &BookingService{
		trips:     trips,
		gateway:   gateway,
		bookings:  bookings,
		publisher: publisher,
		cache:     cache,
	}
}

// Reserve validates the leg and seat count against the latest trip
// snapshot, then issues exactly one atomic reservation call. The seat
// check is advisory; the gateway is the only authority on availability.
// Whatever the verdict, the trip is re-read from the store afterwards and
// never adjusted locally. A refused reservation is reported as a
// ConflictError carrying the remote message. There is no retry.
func (s *BookingService) Reserve(ctx context.Context, sess *domain.Session, in ReserveInput) (*ReserveOutcome, error) {
	ctx, span := tracer.Start(ctx, "BookingService.Reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("trip.id", in.TripID),
		attribute.Int("booking.seats", in.Seats),
	)

	if err := sess.Require(domain.RoleUser); err != nil {
		return nil, err
	}

	trip, err := s.trips.GetByID(ctx, in.TripID)
	if err != nil {
		return nil, err
	}
	if !trip.Bookable(time.Now()) {
		return nil, domain.ValidationError{Field: "trip", Msg: "trip is no longer open for booking"}
	}
	route := trip.Route()
	if err := route.ValidateLeg(in.FromCity, in.ToCity); err != nil {
		return nil, err
	}
	if err := trip.CheckSeats(in.Seats); err != nil {
		return nil, err
	}
	total, err := route.Total(in.FromCity, in.Seats)
	if err != nil {
		return nil, err
	}

	req := domain.ReservationRequest{
		TripID:     trip.ID,
		UserID:     sess.UserID,
		FromCity:   in.FromCity,
		ToCity:     in.ToCity,
		Seats:      in.Seats,
		TotalPrice: total,
	}
	result, callErr := s.gateway.ReserveSeats(ctx, req)
	metrics.BookingsTotal.WithLabelValues("trip", metrics.Result(result.Success, callErr)).Inc()

	out := &ReserveOutcome{Result: result, Total: total}
	invalidate(ctx, s.cache, tripKey(trip.ID), keyActiveTrips)
	if fresh, err := s.trips.GetByID(ctx, trip.ID); err == nil {
		out.Trip = fresh
	} else {
		slog.WarnContext(ctx, "re-read trip after reservation", "trip_id", trip.ID, "error", err)
	}

	if callErr != nil {
		span.RecordError(callErr)
		span.SetStatus(codes.Error, "reservation call failed")
		slog.ErrorContext(ctx, "reservation call failed", "trip_id", trip.ID, "error", callErr)
		return out, fmt.Errorf("reserve seats: %w", callErr)
	}

	ev := &domain.BookingEvent{
		TripID:     trip.ID,
		DriverID:   trip.DriverID,
		UserID:     sess.UserID,
		FromCity:   in.FromCity,
		ToCity:     in.ToCity,
		Seats:      in.Seats,
		TotalPrice: total,
		At:         time.Now(),
	}

	if !result.Success {
		span.SetAttributes(attribute.Bool("booking.accepted", false))
		slog.WarnContext(ctx, "reservation refused", "trip_id", trip.ID, "seats", in.Seats, "message", result.Message)
		if s.publisher != nil {
			if err := s.publisher.PublishBookingRejected(ctx, ev); err != nil {
				slog.WarnContext(ctx, "publish booking rejected", "trip_id", trip.ID, "error", err)
			}
		}
		return out, domain.ConflictError{Resource: "booking", Msg: result.Message}
	}

	span.SetAttributes(attribute.Bool("booking.accepted", true))
	if s.publisher != nil {
		if err := s.publisher.PublishBookingConfirmed(ctx, ev); err != nil {
			slog.WarnContext(ctx, "publish booking confirmed", "trip_id", trip.ID, "error", err)
		}
	}
	return out, nil
}

// Cancel cancels a pending or confirmed booking owned by the caller.
// Seats are not returned to the trip.
func (s *BookingService) Cancel(ctx context.Context, sess *domain.Session, id string) error {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !sess.Owns(b.UserID) {
		return domain.ForbiddenError{Action: "cancel this booking"}
	}
	if !b.Cancellable(time.Now()) {
		return domain.ConflictError{Resource: "booking", Msg: "booking is " + string(b.State(time.Now()))}
	}
	if err := s.bookings.UpdateStatus(ctx, id, domain.BookingCancelled); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	return nil
}

// ListMine returns the caller's bookings with their effective status.
func (s *BookingService) ListMine(ctx context.Context, sess *domain.Session) ([]domain.Booking, error) {
	if err := sess.Require(domain.RoleUser); err != nil {
		return nil, err
	}
	list, err := s.bookings.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range list {
		list[i].Status = list[i].State(now)
	}
	return list, nil
}

// ListForDriver returns confirmed bookings across the caller's trips.
func (s *BookingService) ListForDriver(ctx context.Context, sess *domain.Session) ([]domain.Booking, error) {
	if err := sess.Require(domain.RoleDriver); err != nil {
		return nil, err
	}
	return s.bookings.ListForDriver(ctx, sess.UserID)
}
