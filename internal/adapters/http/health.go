package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
)

var errDisconnected = errors.New("disconnected")

// depCheck is one dependency checked by the readiness endpoint. A nil fn
// means the dependency is not configured.
type depCheck struct {
	name     string
	required bool
	fn       func(context.Context) error
}

func (d *Dependencies) depChecks() []depCheck {
	ps := []depCheck{{name: "database", required: true}, {name: "nats"}, {name: "cache"}}
	if d.DB != nil {
		ps[0].fn = d.DB.Ping
	}
	if d.NATS != nil {
		ps[1].fn = func(context.Context) error {
			if !d.NATS.Healthy() {
				return errDisconnected
			}
			return nil
		}
	}
	if d.Cache != nil {
		ps[2].fn = d.Cache.Ping
	}
	return ps
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := buildVersion()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": version,
		})
	}
}

// ReadyHandler checks every dependency. Only the database is required; a
// missing cache or broker is reported without failing readiness.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		ready := true
		for _, p := range deps.depChecks() {
			switch {
			case p.fn == nil:
				checks[p.name] = "not configured"
				ready = ready && !p.required
			default:
				if err := p.fn(ctx); err != nil {
					checks[p.name] = "error: " + err.Error()
					ready = ready && !p.required
				} else {
					checks[p.name] = "ok"
				}
			}
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": checks})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
