package postgres

import (
	"context"

	"github.com/samirrijal/rihla/internal/core/domain"
)

// OutboxRepo implements ports.Outbox.
type OutboxRepo struct {
	db *DB
}

func NewOutboxRepo(db *DB) *OutboxRepo {
	return &OutboxRepo{db: db}
}

// Add stores e and fills its id and creation time. Called with a
// transaction context it commits with the caller's other writes.
func (r *OutboxRepo) Add(ctx context.Context, e *domain.OutboxEvent) error {
	return r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO outbox_events (type, payload)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, e.Type, []byte(e.Payload)).Scan(&e.ID, &e.CreatedAt)
}

// ClaimPending locks up to limit unpublished events, oldest first. Rows
// locked by another relay are skipped.
func (r *OutboxRepo) ClaimPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT id, type, payload, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.Type, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Payload = payload
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.conn(ctx).Exec(ctx, `
		UPDATE outbox_events SET published_at = now() WHERE id = ANY($1::text[]::uuid[])
	`, ids)
	return err
}
