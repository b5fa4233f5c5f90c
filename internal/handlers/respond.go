package handlers

import (
	"errors"
	"log"

	"koleksi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// respondError writes the HTTP response for a service error.
func respondError(c *fiber.Ctx, err error, action string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found.",
		})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Conflict",
			"errors":  fiber.Map{"name": "A group with this name already exists."},
		})
	case errors.Is(err, services.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication credentials were not provided.",
		})
	default:
		log.Printf("Error trying to %s: %v", action, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not " + action,
		})
	}
}
