package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/rihla/internal/core/domain"
)

const adColumns = `
	id, driver_id, title, COALESCE(description, ''), image_url, destination, price::float8,
	seats, available_seats, departure_date, COALESCE(phone, ''), status, created_at, updated_at`

// AdRepo implements ports.AdRepository.
type AdRepo struct {
	db *DB
}

func NewAdRepo(db *DB) *AdRepo {
	return &AdRepo{db: db}
}

func (r *AdRepo) Create(ctx context.Context, ad *domain.Ad) error {
	return r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO ads (driver_id, title, description, image_url, destination, price, seats, available_seats, departure_date, phone, status)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11)
		RETURNING id, created_at, updated_at
	`, ad.DriverID, ad.Title, ad.Description, ad.ImageURL, ad.Destination, ad.Price,
		ad.SeatsTotal, ad.SeatsAvailable, ad.DepartureDate, ad.Phone, string(ad.Status),
	).Scan(&ad.ID, &ad.CreatedAt, &ad.UpdatedAt)
}

// GetByID locks the row when called inside a transaction.
func (r *AdRepo) GetByID(ctx context.Context, id string) (*domain.Ad, error) {
	q := `SELECT ` + adColumns + ` FROM ads WHERE id = $1`
	if txFrom(ctx) != nil {
		q += ` FOR UPDATE`
	}
	ad, err := scanAd(r.db.conn(ctx).QueryRow(ctx, q, id))
	if err != nil {
		return nil, notFound("ad", err)
	}
	return ad, nil
}

func (r *AdRepo) ListActive(ctx context.Context, after time.Time) ([]domain.Ad, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT `+adColumns+` FROM ads
		WHERE status = 'active' AND available_seats > 0 AND departure_date > $1
		ORDER BY departure_date
	`, after)
	if err != nil {
		return nil, err
	}
	return collectAds(rows)
}

func (r *AdRepo) ListByDriver(ctx context.Context, driverID string) ([]domain.Ad, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT `+adColumns+` FROM ads WHERE driver_id = $1 ORDER BY created_at DESC
	`, driverID)
	if err != nil {
		return nil, err
	}
	return collectAds(rows)
}

func (r *AdRepo) ListByStatus(ctx context.Context, status domain.AdStatus) ([]domain.Ad, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT `+adColumns+` FROM ads WHERE status = $1 ORDER BY created_at
	`, string(status))
	if err != nil {
		return nil, err
	}
	return collectAds(rows)
}

// UpdateStatus is a compare-and-set on status.
func (r *AdRepo) UpdateStatus(ctx context.Context, id string, from, to domain.AdStatus) error {
	tag, err := r.db.conn(ctx).Exec(ctx, `
		UPDATE ads SET status = $3, updated_at = now() WHERE id = $1 AND status = $2
	`, id, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ConflictError{Resource: "ad", Msg: "status changed concurrently"}
	}
	return nil
}

func (r *AdRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM ads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "ad"}
	}
	return nil
}

func (r *AdRepo) ReserveSeats(ctx context.Context, adID, userID string, seats int) (domain.ReservationResult, error) {
	var res domain.ReservationResult
	err := r.db.conn(ctx).QueryRow(ctx, `
		SELECT success, message FROM book_ad_atomically($1, $2, $3)
	`, adID, seats, userID).Scan(&res.Success, &res.Message)
	if err != nil {
		return domain.ReservationResult{}, fmt.Errorf("book_ad_atomically: %w", err)
	}
	return res, nil
}

func scanAd(row pgx.Row) (*domain.Ad, error) {
	var a domain.Ad
	var status string
	if err := row.Scan(&a.ID, &a.DriverID, &a.Title, &a.Description, &a.ImageURL, &a.Destination, &a.Price,
		&a.SeatsTotal, &a.SeatsAvailable, &a.DepartureDate, &a.Phone, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = domain.AdStatus(status)
	if !a.Status.Valid() {
		return nil, domain.ParseError{Record: "ad", Field: "status", Err: fmt.Errorf("unknown status %q", status)}
	}
	return &a, nil
}

func collectAds(rows pgx.Rows) ([]domain.Ad, error) {
	defer rows.Close()
	var out []domain.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
