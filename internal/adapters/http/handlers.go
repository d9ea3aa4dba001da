package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/rihla/internal/core/domain"
	"github.com/samirrijal/rihla/internal/core/usecases"
)

// ListTripsHandler returns active future trips, optionally filtered by
// origin (?from=) and destination (?to=) city.
func ListTripsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to := c.Query("from"), c.Query("to")
		if len(from) > 100 || len(to) > 100 {
			return errBadRequest(c, "city names are limited to 100 characters")
		}
		offset, limit := pageParams(c, 50, 100)

		trips, err := deps.Trips.ListActive(c.UserContext(), from, to, limit, offset)
		if err != nil {
			return fail(c, err)
		}
		if trips == nil {
			trips = []domain.Trip{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Count: len(trips)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: trips, Pagination: pg})
	}
}

// GetTripHandler returns a single trip with its current seat availability.
func GetTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, err)
		}
		trip, err := deps.Trips.GetByID(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(trip)
	}
}

// TripFareHandler quotes ?seats= seats boarding at ?from= and alighting at
// ?to= (the final stop when omitted).
func TripFareHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, err)
		}
		from := c.Query("from")
		if from == "" {
			return errBadRequest(c, "from query parameter is required")
		}
		quote, err := deps.Trips.Fare(c.UserContext(), id, from, c.Query("to"), c.QueryInt("seats", 1))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(quote)
	}
}

// LegacyTripPriceHandler serves the single-seat price from a boarding
// stop. Superseded by TripFareHandler.
func LegacyTripPriceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, err)
		}
		from := c.Query("from")
		if from == "" {
			trip, err := deps.Trips.GetByID(c.UserContext(), id)
			if err != nil {
				return fail(c, err)
			}
			from = trip.FromCity
		}
		quote, err := deps.Trips.Fare(c.UserContext(), id, from, "", 1)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"trip_id": quote.TripID, "from_city": quote.FromCity, "price": quote.Fare})
	}
}

// CreateTripHandler publishes a trip for the calling driver.
func CreateTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.TripInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		trip, err := deps.Trips.Create(c.UserContext(), sessionFrom(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(trip)
	}
}

// DeleteTripHandler removes one of the caller's trips.
func DeleteTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, err)
		}
		if err := deps.Trips.Delete(c.UserContext(), sessionFrom(c), id); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ShareLocationHandler records the driver's current position.
func ShareLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, err)
		}
		var loc domain.Location
		if err := c.BodyParser(&loc); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if err := deps.Trips.ShareLocation(c.UserContext(), sessionFrom(c), id, loc); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// StopSharingHandler clears the driver's position.
func StopSharingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, err)
		}
		if err := deps.Trips.StopSharing(c.UserContext(), sessionFrom(c), id); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MyTripsHandler lists the calling driver's trips.
func MyTripsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trips, err := deps.Trips.ListByDriver(c.UserContext(), sessionFrom(c))
		if err != nil {
			return fail(c, err)
		}
		if trips == nil {
			trips = []domain.Trip{}
		}
		return c.JSON(trips)
	}
}

// DriverBookingsHandler lists confirmed bookings across the caller's trips.
func DriverBookingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := deps.Bookings.ListForDriver(c.UserContext(), sessionFrom(c))
		if err != nil {
			return fail(c, err)
		}
		if list == nil {
			list = []domain.Booking{}
		}
		return c.JSON(list)
	}
}

// CreateBookingHandler requests a seat reservation. A refused reservation
// answers 409 with the reason given by the store and the trip as re-read
// after the refusal.
func CreateBookingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.ReserveInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if _, err := paramUUID("trip_id", in.TripID); err != nil {
			return fail(c, err)
		}
		out, err := deps.Bookings.Reserve(c.UserContext(), sessionFrom(c), in)
		var conflict domain.ConflictError
		if errors.As(err, &conflict) && out != nil {
			return refused(c, conflict.Msg, out.Trip, nil)
		}
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}
}

// MyBookingsHandler lists the caller's bookings with their effective status.
func MyBookingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := deps.Bookings.ListMine(c.UserContext(), sessionFrom(c))
		if err != nil {
			return fail(c, err)
		}
		if list == nil {
			list = []domain.Booking{}
		}
		return c.JSON(list)
	}
}

// CancelBookingHandler cancels one of the caller's bookings.
func CancelBookingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, err)
		}
		if err := deps.Bookings.Cancel(c.UserContext(), sessionFrom(c), id); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
