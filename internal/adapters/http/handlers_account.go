package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/usecases"
)

func GetProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := deps.Profiles.Get(c.UserContext(), sessionFrom(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(p)
	}
}

func UpdateProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.ProfileInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		p, err := deps.Profiles.Update(c.UserContext(), sessionFrom(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(p)
	}
}

// ListNotificationsHandler returns the caller's inbox, newest first.
func ListNotificationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := deps.Notifications.List(c.UserContext(), sessionFrom(c), c.QueryInt("limit", 50))
		if err != nil {
			return fail(c, err)
		}
		if list == nil {
			list = []domain.Notification{}
		}
		return c.JSON(list)
	}
}

func MarkNotificationReadHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, err)
		}
		if err := deps.Notifications.MarkRead(c.UserContext(), sessionFrom(c), id); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// CreateConsultationHandler files a driver's help request.
func CreateConsultationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.ConsultationInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		req, err := deps.Support.RequestConsultation(c.UserContext(), sessionFrom(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(req)
	}
}

func ListConsultationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := deps.Support.ListConsultations(c.UserContext(), sessionFrom(c))
		if err != nil {
			return fail(c, err)
		}
		if list == nil {
			list = []domain.ConsultationRequest{}
		}
		return c.JSON(list)
	}
}

type lostItemRequest struct {
	BookingID       string `json:"booking_id"`
	ItemDescription string `json:"item_description"`
}

// ReportLostItemHandler files a lost-item report against one of the
// caller's bookings.
func ReportLostItemHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req lostItemRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if _, err := paramUUID("booking_id", req.BookingID); err != nil {
			return fail(c, err)
		}
		item, err := deps.Support.ReportLostItem(c.UserContext(), sessionFrom(c), req.BookingID, req.ItemDescription)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

func MyLostItemsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := deps.Support.MyLostItems(c.UserContext(), sessionFrom(c))
		if err != nil {
			return fail(c, err)
		}
		if list == nil {
			list = []domain.LostItem{}
		}
		return c.JSON(list)
	}
}

// DriverLostItemsHandler lists reports filed against the caller's trips.
func DriverLostItemsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := deps.Support.LostItemsForDriver(c.UserContext(), sessionFrom(c))
		if err != nil {
			return fail(c, err)
		}
		if list == nil {
			list = []domain.LostItem{}
		}
		return c.JSON(list)
	}
}

type lostItemResponse struct {
	Response string `json:"response"`
	Found    bool   `json:"found"`
}

func RespondLostItemHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, err)
		}
		var req lostItemResponse
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		item, err := deps.Support.RespondLostItem(c.UserContext(), sessionFrom(c), id, req.Response, req.Found)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(item)
	}
}
