package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/usecases"
)

// ListAdsHandler returns approved ads departing in the future.
func ListAdsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ads, err := deps.Ads.ListActive(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		if ads == nil {
			ads = []domain.Ad{}
		}
		return c.JSON(ads)
	}
}

func GetAdHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, err)
		}
		ad, err := deps.Ads.Get(c.UserContext(), sessionFrom(c), id)
		if err != nil {
			return fail(c, err)
		}
		// Only the owner or an admin can see an inactive ad.
		if !ad.Visible() {
			c.Set(fiber.HeaderCacheControl, "private, no-store")
		}
		return c.JSON(ad)
	}
}

// CreateAdHandler submits an ad for moderation.
func CreateAdHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.AdInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		ad, err := deps.Ads.Create(c.UserContext(), sessionFrom(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ad)
	}
}

type bookAdRequest struct {
	Seats int `json:"seats"`
}

// BookAdHandler reserves seats on an active ad.
func BookAdHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, err)
		}
		var req bookAdRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		out, err := deps.Ads.Book(c.UserContext(), sessionFrom(c), id, req.Seats)
		var conflict domain.ConflictError
		if errors.As(err, &conflict) && out != nil {
			return refused(c, conflict.Msg, nil, out.Ad)
		}
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}
}

type moderateRequest struct {
	Action string `json:"action"`
}

// ModerateAdHandler applies approve, reject, complete or cancel to an ad.
func ModerateAdHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, err)
		}
		var req moderateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		action, err := domain.ParseAdAction(req.Action)
		if err != nil {
			return fail(c, err)
		}
		ad, err := deps.Ads.Moderate(c.UserContext(), sessionFrom(c), id, action)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(ad)
	}
}

// PendingAdsHandler lists ads awaiting review.
func PendingAdsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ads, err := deps.Ads.ListPending(c.UserContext(), sessionFrom(c))
		if err != nil {
			return fail(c, err)
		}
		if ads == nil {
			ads = []domain.Ad{}
		}
		return c.JSON(ads)
	}
}

func DeleteAdHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, err)
		}
		if err := deps.Ads.Delete(c.UserContext(), sessionFrom(c), id); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MyAdsHandler lists the calling driver's ads in every status.
func MyAdsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ads, err := deps.Ads.ListByDriver(c.UserContext(), sessionFrom(c))
		if err != nil {
			return fail(c, err)
		}
		if ads == nil {
			ads = []domain.Ad{}
		}
		return c.JSON(ads)
	}
}
