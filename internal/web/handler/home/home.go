// Package home serves the landing page and the session of the signed-in user.
package home

import (
	"github.com/gofiber/fiber/v2"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/web/handler"
	authmw "github.com/authgate/authgate/internal/web/middleware/auth"
	"github.com/authgate/authgate/internal/web/session"
)

const (
	// MePath returns the session of the signed-in user.
	MePath = "/me"
	// Template is the name of the landing page template.
	Template = "index"
)

// Service is the home handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	auth *auth.Auth
}

// Init initializes the home handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, a *auth.Auth) error {
	if app == nil || cfg == nil || a == nil {
		return handler.ErrNilDependency
	}

	s.cfg = cfg
	s.auth = a

	app.Get(handler.RootPath, s.Get)
	app.Get(MePath, authmw.RequireJSON, s.Me)

	return nil
}

// Get renders the landing page.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(Template, fiber.Map{
		"Title":      s.cfg.Title,
		"Session":    session.Current(c),
		"SigninURL":  s.auth.BasePath() + "/signin",
		"SignoutURL": s.auth.BasePath() + "/signout",
	}, handler.BaseLayout)
}

// Me returns the session of the signed-in user.
func (s *Service) Me(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")

	return c.JSON(session.Current(c))
}
