package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"taskmanager/internal/security"
)

// AuthRequired is a Fiber middleware that rejects requests without a valid
// bearer token and exposes the caller's identity to downstream handlers via
// c.Locals ("user_id", "user_name", "user_email").
func AuthRequired(tokens *security.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			log.Printf("Token validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.Subject)
		c.Locals("user_name", claims.Name)
		c.Locals("user_email", claims.Email)

		return c.Next()
	}
}
