package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on
// endpoint. Anything tied to the caller is never stored by shared caches.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case strings.HasPrefix(path, "/v1/me"),
			strings.HasPrefix(path, "/v1/profile"),
			strings.HasPrefix(path, "/v1/notifications"),
			strings.HasPrefix(path, "/v1/bookings"),
			strings.HasPrefix(path, "/v1/lost-items"),
			strings.HasPrefix(path, "/v1/consultations"),
			strings.HasPrefix(path, "/v1/ads/pending"):
			ttl = "private, no-store"

		case strings.HasSuffix(path, "/fare") || strings.HasSuffix(path, "/price"):
			ttl = "public, max-age=30"

		// seat availability changes with every booking
		case strings.HasPrefix(path, "/v1/trips"):
			ttl = "public, max-age=15"

		case strings.HasPrefix(path, "/v1/ads"):
			ttl = "public, max-age=60"

		case path == "/docs" || strings.HasPrefix(path, "/docs/"):
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "private, max-age=0"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
