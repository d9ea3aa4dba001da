package postgres

import (
	"context"

	"github.com/samirrijal/rihla/internal/core/domain"
)

// ProfileRepo implements ports.ProfileRepository.
type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// GetByID loads the profile; IsAdmin comes from user_roles.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	var role string
	err := r.db.conn(ctx).QueryRow(ctx, `
		SELECT p.id, COALESCE(p.full_name, ''), COALESCE(p.phone, ''), COALESCE(p.avatar_url, ''), p.role,
		       EXISTS (SELECT 1 FROM user_roles ur WHERE ur.user_id = p.id AND ur.role = 'admin'),
		       p.created_at
		FROM profiles p WHERE p.id = $1
	`, id).Scan(&p.ID, &p.FullName, &p.Phone, &p.AvatarURL, &role, &p.IsAdmin, &p.CreatedAt)
	if err != nil {
		return nil, notFound("profile", err)
	}
	p.Role = domain.Role(role)
	return &p, nil
}

func (r *ProfileRepo) Update(ctx context.Context, p *domain.Profile) error {
	tag, err := r.db.conn(ctx).Exec(ctx, `
		UPDATE profiles
		SET full_name = NULLIF($2, ''), phone = NULLIF($3, ''), avatar_url = NULLIF($4, ''), updated_at = now()
		WHERE id = $1
	`, p.ID, p.FullName, p.Phone, p.AvatarURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "profile"}
	}
	return nil
}
