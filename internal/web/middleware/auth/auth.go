// Package auth provides the middleware guarding routes that need a signed-in user.
package auth

import (
	"github.com/gofiber/fiber/v2"

	authlib "github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/web/session"
)

// RequireJSON rejects anonymous requests with 401 and a SessionRequired error body.
func RequireJSON(c *fiber.Ctx) error {
	if session.Current(c) == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": authlib.CodeSessionRequired,
		})
	}

	return c.Next()
}
