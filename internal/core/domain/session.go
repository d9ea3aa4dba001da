package domain

import "time"

// Session is the authenticated caller. It is built once per request from a
// verified token and passed explicitly to every operation that needs it.
type Session struct {
	UserID    string
	Role      Role
	Admin     bool
	ExpiresAt time.Time
}

// Anonymous reports whether no user is attached.
func (s *Session) Anonymous() bool {
	return s == nil || s.UserID == ""
}

func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Require checks that the caller is signed in with the given role.
// Administrators pass every role check.
func (s *Session) Require(role Role) error {
	if s.Anonymous() {
		return ForbiddenError{Action: "act without signing in"}
	}
	if s.Admin || role == "" || role == RoleUser || s.Role == role {
		return nil
	}
	return ForbiddenError{Action: "act as " + string(role)}
}

func (s *Session) RequireAdmin() error {
	if s.Anonymous() || !s.Admin {
		return ForbiddenError{Action: "moderate"}
	}
	return nil
}

// Owns reports whether the caller is the given user or an administrator.
func (s *Session) Owns(userID string) bool {
	return !s.Anonymous() && (s.Admin || s.UserID == userID)
}
