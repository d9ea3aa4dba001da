package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samirrijal/rihla/internal/core/domain"
)

// NotificationRepo implements ports.NotificationRepository.
type NotificationRepo struct {
	db *DB
}

func NewNotificationRepo(db *DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Insert stores n and fills its id and creation time.
func (r *NotificationRepo) Insert(ctx context.Context, n *domain.Notification) error {
	var meta []byte
	if n.Metadata != nil {
		var err error
		if meta, err = json.Marshal(n.Metadata); err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
	}
	if n.Type == "" {
		n.Type = "info"
	}
	// A caller-chosen id makes retried inserts idempotent.
	var id *string
	if n.ID != "" {
		id = &n.ID
	}
	return r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, metadata)
		VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING id, created_at
	`, id, n.UserID, n.Title, n.Message, n.Type, meta).Scan(&n.ID, &n.CreatedAt)
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT id, user_id, title, message, type, is_read, metadata, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var meta []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &meta, &n.CreatedAt); err != nil {
			return nil, err
		}
		if n.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, `
		UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "notification"}
	}
	return nil
}
