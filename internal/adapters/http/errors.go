package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/rihla/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, unauthorized, forbidden, not_found, conflict, internal_error
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// RefusalResponse is a 409 that also carries the resource as re-read after
// the store refused the request, so the client can show current seats.
type RefusalResponse struct {
	APIError
	Trip *domain.Trip `json:"trip,omitempty"`
	Ad   *domain.Ad   `json:"ad,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnauthorized, "unauthorized", msg)
}

// refused answers 409 with the store's message and the re-read resource.
func refused(c *fiber.Ctx, msg string, trip *domain.Trip, ad *domain.Ad) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(fiber.StatusConflict).JSON(RefusalResponse{
		APIError: APIError{
			Status:    fiber.StatusConflict,
			Code:      "conflict",
			Message:   msg,
			RequestID: reqID,
		},
		Trip: trip,
		Ad:   ad,
	})
}

// fail maps a service error onto its HTTP status. Unknown errors, including
// stored records that fail to decode, are logged and reported as 500
// without leaking their text. Malformed request bodies never reach here.
func fail(c *fiber.Ctx, err error) error {
	var (
		forbidden domain.ForbiddenError
		conflict  domain.ConflictError
	)
	switch {
	case domain.IsValidation(err):
		return newError(c, fiber.StatusBadRequest, "bad_request", err.Error())
	case errors.As(err, &forbidden):
		if sessionFrom(c).Anonymous() {
			return errUnauthorized(c, "authentication required")
		}
		return newError(c, fiber.StatusForbidden, "forbidden", err.Error())
	case domain.IsNotFound(err):
		return newError(c, fiber.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &conflict):
		return newError(c, fiber.StatusConflict, "conflict", conflict.Msg)
	}
	LoggerFromCtx(c.UserContext()).ErrorContext(c.UserContext(), "request failed",
		"method", c.Method(), "path", c.Path(), "error", err)
	return newError(c, fiber.StatusInternalServerError, "internal_error", "internal server error")
}
