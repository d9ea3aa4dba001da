package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/rihla/internal/core/domain"
)

const bookingColumns = `
	b.id, b.trip_id, b.user_id, b.from_city, b.to_city, b.seats_booked,
	COALESCE(b.price_paid, 0)::float8, b.status, b.created_at`

// BookingRepo implements ports.BookingRepository.
type BookingRepo struct {
	db *DB
}

func NewBookingRepo(db *DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.conn(ctx).QueryRow(ctx, `
		SELECT `+bookingColumns+`, `+tripColumns+`
		FROM bookings b JOIN trips t ON t.id = b.trip_id
		WHERE b.id = $1
	`, id)
	b, err := scanBookingWithTrip(row)
	if err != nil {
		return nil, notFound("booking", err)
	}
	return b, nil
}

// ListByUser returns a rider's bookings with their trips, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT `+bookingColumns+`, `+tripColumns+`
		FROM bookings b JOIN trips t ON t.id = b.trip_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// ListForDriver returns confirmed bookings across a driver's trips.
func (r *BookingRepo) ListForDriver(ctx context.Context, driverID string) ([]domain.Booking, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT `+bookingColumns+`, `+tripColumns+`
		FROM bookings b JOIN trips t ON t.id = b.trip_id
		WHERE t.driver_id = $1 AND b.status = 'confirmed'
		ORDER BY t.departure_time, b.created_at
	`, driverID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	tag, err := r.db.conn(ctx).Exec(ctx, `UPDATE bookings SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "booking"}
	}
	return nil
}

// scanBookingWithTrip reads bookingColumns followed by tripColumns.
func scanBookingWithTrip(row pgx.Row) (*domain.Booking, error) {
	var (
		b                domain.Booking
		t                domain.Trip
		bStatus, tStatus string
		prices, loc      []byte
	)
	if err := row.Scan(
		&b.ID, &b.TripID, &b.UserID, &b.FromCity, &b.ToCity, &b.SeatsBooked, &b.PricePaid, &bStatus, &b.CreatedAt,
		&t.ID, &t.DriverID, &t.RouteCities, &prices, &t.Price, &t.FromCity, &t.ToCity,
		&t.SeatsTotal, &t.SeatsAvailable, &t.DepartureTime, &tStatus, &loc, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(bStatus)
	t.Status = domain.TripStatus(tStatus)

	var err error
	if t.RoutePrices, err = decodePrices(prices); err != nil {
		return nil, err
	}
	if t.CurrentLocation, err = decodeLocation(loc); err != nil {
		return nil, err
	}
	b.Trip = &t
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()
	var out []domain.Booking
	for rows.Next() {
		b, err := scanBookingWithTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
