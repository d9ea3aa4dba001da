package http

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/samirrijal/rihla/internal/core/domain"
)

const sessionKey = "session"

// SessionSource resolves the role and admin flag of a verified user.
type SessionSource interface {
	SessionFor(ctx context.Context, userID string, expiresAt time.Time) (*domain.Session, error)
}

// AuthConfig holds the token verification settings.
type AuthConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
}

// AuthMiddleware verifies an optional HS256 bearer token and attaches the
// caller's session. Requests without a token continue anonymously and are
// refused by the operations that need a user.
func AuthMiddleware(cfg AuthConfig, sessions SessionSource) fiber.Handler {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)

	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Next()
		}
		if len(cfg.Secret) == 0 || sessions == nil {
			return errUnauthorized(c, "token authentication is not configured")
		}

		claims := &jwt.RegisteredClaims{}
		_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return cfg.Secret, nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return errUnauthorized(c, "token expired")
			}
			return errUnauthorized(c, "invalid token")
		}
		if _, err := uuid.Parse(claims.Subject); err != nil {
			return errUnauthorized(c, "invalid token subject")
		}

		sess, err := sessions.SessionFor(c.UserContext(), claims.Subject, claims.ExpiresAt.Time)
		if err != nil {
			return fail(c, err)
		}
		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// sessionFrom returns the caller's session, or nil for anonymous requests.
func sessionFrom(c *fiber.Ctx) *domain.Session {
	sess, _ := c.Locals(sessionKey).(*domain.Session)
	return sess
}

// paramID reads a UUID route parameter.
func paramID(c *fiber.Ctx, name string) (string, error) {
	return paramUUID(name, c.Params(name))
}

func paramUUID(field, value string) (string, error) {
	if _, err := uuid.Parse(value); err != nil {
		return "", domain.ValidationError{Field: field, Msg: "must be a UUID"}
	}
	return value, nil
}
