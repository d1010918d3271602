// Package errorpage renders the auth error page.
package errorpage

import (
	"github.com/gofiber/fiber/v2"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/web/handler"
)

const (
	// Path is the path of the error page below the auth base path.
	Path = "/error"
	// Template is the name of the error page template.
	Template = "error"
)

// Service is the error page handler service.
type Service struct {
	handler.Service
	auth *auth.Auth
}

// Init initializes the error page handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, a *auth.Auth) error {
	if app == nil || cfg == nil || a == nil {
		return handler.ErrNilDependency
	}

	s.auth = a

	app.Get(a.BasePath()+Path, s.Get)

	return nil
}

// Get renders the error page for the error query parameter.
func (s *Service) Get(c *fiber.Ctx) error {
	code := auth.KnownErrorCode(c.Query("error"))
	heading, message, status := handler.ErrorPage(code)

	return c.Status(status).Render(Template, fiber.Map{
		"Title":     heading,
		"Message":   message,
		"Code":      code,
		"SigninURL": s.auth.BasePath() + "/signin",
	}, handler.BaseLayout)
}
