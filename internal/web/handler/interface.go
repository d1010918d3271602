// Package handler holds what the route handler packages share.
package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, a *auth.Auth) error
}
