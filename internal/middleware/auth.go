package middleware

import (
	"log"
	"strings"

	"koleksi/internal/models"

	"github.com/gofiber/fiber/v2"
)

// PrincipalKey is the fiber.Ctx locals key the authenticated principal is stored under.
const PrincipalKey = "principal"

// Authenticator resolves a bearer token to a principal. *services.IdentityService implements it.
type Authenticator interface {
	Authenticate(token string) (models.Principal, error)
}

// AuthRequired is a Fiber middleware that rejects requests without a valid bearer token.
func AuthRequired(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication credentials were not provided.",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		principal, err := auth.Authenticate(strings.TrimSpace(parts[1]))
		if err != nil {
			log.Printf("Authentication failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals(PrincipalKey, principal)
		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by AuthRequired.
func PrincipalFrom(c *fiber.Ctx) (models.Principal, bool) {
	principal, ok := c.Locals(PrincipalKey).(models.Principal)
	if !ok || principal.ID == "" {
		return models.Principal{}, false
	}
	return principal, true
}
