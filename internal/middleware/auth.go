package middleware

import (
	"strings"

	"campusrent/server/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the bearer token from the Authorization header
func AuthMiddleware(c *fiber.Ctx) error {
	auth := c.Get("Authorization")
	if auth == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized - No token provided",
		})
	}

	tokenString := strings.TrimPrefix(auth, "Bearer ")
	if tokenString == auth {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized - Malformed Authorization header",
		})
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized - Invalid token",
		})
	}

	// Store user info in context
	c.Locals("userID", claims.UserID)
	c.Locals("email", claims.Email)
	c.Locals("campusTag", claims.CampusTag)

	return c.Next()
}
