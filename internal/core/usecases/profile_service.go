package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/ports"
)

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url"`
}

// ProfileService reads and updates user profiles and builds sessions.
type ProfileService struct {
	profiles ports.ProfileRepository
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profiles ports.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

func (s *ProfileService) Get(ctx context.Context, sess *domain.Session) (*domain.Profile, error) {
	if sess.Anonymous() {
		return nil, domain.ForbiddenError{Action: "read a profile without signing in"}
	}
	return s.profiles.GetByID(ctx, sess.UserID)
}

// Update replaces the editable fields of the caller's profile.
func (s *ProfileService) Update(ctx context.Context, sess *domain.Session, in ProfileInput) (*domain.Profile, error) {
	p, err := s.Get(ctx, sess)
	if err != nil {
		return nil, err
	}
	if len(in.FullName) > 120 {
		return nil, domain.ValidationError{Field: "full_name", Msg: "too long"}
	}
	p.FullName = strings.TrimSpace(in.FullName)
	p.Phone = strings.TrimSpace(in.Phone)
	p.AvatarURL = in.AvatarURL
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

// SessionFor builds the session context of a verified user from the
// stored role and admin flag. An unknown user gets a plain rider session.
func (s *ProfileService) SessionFor(ctx context.Context, userID string, expiresAt time.Time) (*domain.Session, error) {
	sess := &domain.Session{UserID: userID, Role: domain.RoleUser, ExpiresAt: expiresAt}
	p, err := s.profiles.GetByID(ctx, userID)
	if domain.IsNotFound(err) {
		return sess, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p.Role != "" {
		sess.Role = p.Role
	}
	sess.Admin = p.IsAdmin
	return sess, nil
}
