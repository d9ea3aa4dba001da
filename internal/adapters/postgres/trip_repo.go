package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/ports"
)

const tripColumns = `
	t.id, t.driver_id, t.route_cities, t.route_prices, t.price::float8, t.from_city, t.to_city,
	t.seats, t.available_seats, t.departure_time, t.status, t.current_location, t.created_at, t.updated_at`

// TripRepo implements ports.TripRepository.
type TripRepo struct {
	db *DB
}

func NewTripRepo(db *DB) *TripRepo {
	return &TripRepo{db: db}
}

func (r *TripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	prices, err := json.Marshal(trip.RoutePrices)
	if err != nil {
		return fmt.Errorf("encode route prices: %w", err)
	}
	return r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO trips (driver_id, from_city, to_city, route_cities, route_prices, price, seats, available_seats, departure_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, trip.DriverID, trip.FromCity, trip.ToCity, trip.RouteCities, prices, trip.Price,
		trip.SeatsTotal, trip.SeatsAvailable, trip.DepartureTime, trip.Status,
	).Scan(&trip.ID, &trip.CreatedAt, &trip.UpdatedAt)
}

func (r *TripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	row := r.db.conn(ctx).QueryRow(ctx, `SELECT `+tripColumns+` FROM trips t WHERE t.id = $1`, id)
	trip, err := scanTrip(row)
	if err != nil {
		return nil, notFound("trip", err)
	}
	return trip, nil
}

// ListActive returns active trips with seats left departing after f.After,
// soonest first.
func (r *TripRepo) ListActive(ctx context.Context, f ports.TripFilter) ([]domain.Trip, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT `+tripColumns+`
		FROM trips t
		WHERE t.status = 'active'
		  AND t.available_seats > 0
		  AND t.departure_time > $1
		  AND ($2 = '' OR $2 = ANY(t.route_cities))
		  AND ($3 = '' OR $3 = ANY(t.route_cities))
		  AND ($2 = '' OR $3 = '' OR array_position(t.route_cities, $2) < array_position(t.route_cities, $3))
		ORDER BY t.departure_time
		LIMIT $4 OFFSET $5
	`, f.After, f.FromCity, f.ToCity, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	return collectTrips(rows)
}

func (r *TripRepo) ListByDriver(ctx context.Context, driverID string) ([]domain.Trip, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT `+tripColumns+` FROM trips t WHERE t.driver_id = $1 ORDER BY t.departure_time DESC
	`, driverID)
	if err != nil {
		return nil, err
	}
	return collectTrips(rows)
}

func (r *TripRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "trip"}
	}
	return nil
}

func (r *TripRepo) UpdateLocation(ctx context.Context, id string, loc *domain.Location) error {
	var raw []byte
	if loc != nil {
		var err error
		if raw, err = json.Marshal(loc); err != nil {
			return fmt.Errorf("encode location: %w", err)
		}
	}
	tag, err := r.db.conn(ctx).Exec(ctx, `
		UPDATE trips SET current_location = $2, updated_at = now() WHERE id = $1
	`, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "trip"}
	}
	return nil
}

// ReservationGateway implements ports.ReservationGateway over the
// book_trip_atomically function.
type ReservationGateway struct {
	db *DB
}

func NewReservationGateway(db *DB) *ReservationGateway {
	return &ReservationGateway{db: db}
}

func (g *ReservationGateway) ReserveSeats(ctx context.Context, req domain.ReservationRequest) (domain.ReservationResult, error) {
	var res domain.ReservationResult
	err := g.db.conn(ctx).QueryRow(ctx, `
		SELECT success, message FROM book_trip_atomically($1, $2, $3, $4, $5, $6)
	`, req.TripID, req.Seats, req.UserID, req.FromCity, req.ToCity, req.TotalPrice,
	).Scan(&res.Success, &res.Message)
	if err != nil {
		return domain.ReservationResult{}, fmt.Errorf("book_trip_atomically: %w", err)
	}
	return res, nil
}

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var (
		t           domain.Trip
		prices, loc []byte
		status      string
	)
	if err := row.Scan(&t.ID, &t.DriverID, &t.RouteCities, &prices, &t.Price, &t.FromCity, &t.ToCity,
		&t.SeatsTotal, &t.SeatsAvailable, &t.DepartureTime, &status, &loc, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.TripStatus(status)

	var err error
	if t.RoutePrices, err = decodePrices(prices); err != nil {
		return nil, err
	}
	if t.CurrentLocation, err = decodeLocation(loc); err != nil {
		return nil, err
	}
	if len(t.RouteCities) < 2 {
		return nil, domain.ParseError{Record: "trip", Field: "route_cities", Err: fmt.Errorf("%d stops", len(t.RouteCities))}
	}
	return &t, nil
}

func collectTrips(rows pgx.Rows) ([]domain.Trip, error) {
	defer rows.Close()
	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}
