package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/rihla/internal/core/domain"
)

// ConsultationRepo implements ports.ConsultationRepository.
type ConsultationRepo struct {
	db *DB
}

func NewConsultationRepo(db *DB) *ConsultationRepo {
	return &ConsultationRepo{db: db}
}

func (r *ConsultationRepo) Create(ctx context.Context, c *domain.ConsultationRequest) error {
	return r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultation_requests (driver_id, full_name, phone, description, request_type, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, c.DriverID, c.FullName, c.Phone, c.Description, c.RequestType, c.Status).Scan(&c.ID, &c.CreatedAt)
}

func (r *ConsultationRepo) ListByDriver(ctx context.Context, driverID string) ([]domain.ConsultationRequest, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT id, driver_id, full_name, phone, description, request_type, status, created_at
		FROM consultation_requests WHERE driver_id = $1 ORDER BY created_at DESC
	`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ConsultationRequest
	for rows.Next() {
		var c domain.ConsultationRequest
		if err := rows.Scan(&c.ID, &c.DriverID, &c.FullName, &c.Phone, &c.Description, &c.RequestType, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const lostItemColumns = `
	id, booking_id, trip_id, user_id, driver_id, item_description,
	COALESCE(driver_response, ''), status, created_at, updated_at`

// LostItemRepo implements ports.LostItemRepository.
type LostItemRepo struct {
	db *DB
}

func NewLostItemRepo(db *DB) *LostItemRepo {
	return &LostItemRepo{db: db}
}

func (r *LostItemRepo) Create(ctx context.Context, item *domain.LostItem) error {
	return r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO lost_items (booking_id, trip_id, user_id, driver_id, item_description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, item.BookingID, item.TripID, item.UserID, item.DriverID, item.ItemDescription, item.Status,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *LostItemRepo) GetByID(ctx context.Context, id string) (*domain.LostItem, error) {
	item, err := scanLostItem(r.db.conn(ctx).QueryRow(ctx, `SELECT `+lostItemColumns+` FROM lost_items WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("lost item", err)
	}
	return item, nil
}

func (r *LostItemRepo) ListByDriver(ctx context.Context, driverID string) ([]domain.LostItem, error) {
	return r.list(ctx, `SELECT `+lostItemColumns+` FROM lost_items WHERE driver_id = $1 ORDER BY created_at DESC`, driverID)
}

func (r *LostItemRepo) ListByUser(ctx context.Context, userID string) ([]domain.LostItem, error) {
	return r.list(ctx, `SELECT `+lostItemColumns+` FROM lost_items WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *LostItemRepo) Respond(ctx context.Context, id, response, status string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, `
		UPDATE lost_items SET driver_response = $2, status = $3, updated_at = now() WHERE id = $1
	`, id, response, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "lost item"}
	}
	return nil
}

func (r *LostItemRepo) list(ctx context.Context, q string, arg string) ([]domain.LostItem, error) {
	rows, err := r.db.conn(ctx).Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LostItem
	for rows.Next() {
		item, err := scanLostItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func scanLostItem(row pgx.Row) (*domain.LostItem, error) {
	var it domain.LostItem
	err := row.Scan(&it.ID, &it.BookingID, &it.TripID, &it.UserID, &it.DriverID, &it.ItemDescription,
		&it.DriverResponse, &it.Status, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
