// Package signout ends the session of the signed-in user.
package signout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/web/handler"
	"github.com/authgate/authgate/internal/web/session"
)

const (
	// Path is the path of the sign-out routes below the auth base path.
	Path = "/signout"
	// Template is the name of the sign-out page template.
	Template = "signout"
)

// Service is the sign-out handler service.
type Service struct {
	handler.Service
	auth    *auth.Auth
	cookies session.Cookies
}

// Init initializes the sign-out handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, a *auth.Auth) error {
	if app == nil || cfg == nil || a == nil {
		return handler.ErrNilDependency
	}

	s.auth = a
	s.cookies = session.NewCookies(cfg.DevMode)

	app.Route(a.BasePath()+Path, func(router fiber.Router) {
		router.Get(handler.RootPath, s.Get)
		router.Post(handler.RootPath, s.Post)
	})

	return nil
}

// Get renders the sign-out confirmation page.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(Template, fiber.Map{
		"Title":       "Sign out",
		"Action":      s.auth.BasePath() + Path,
		"CSRFToken":   handler.CSRFToken(c),
		"CallbackURL": c.Query(handler.CallbackURLField),
		"Session":     session.Current(c),
	}, handler.BaseLayout)
}

// Post deletes the session and clears the session cookie.
func (s *Service) Post(c *fiber.Ctx) error {
	// the cookie, not the resolved session: the lookup may have failed on a store error
	if err := s.auth.SignOut(c.UserContext(), s.cookies.Get(c, session.SessionCookie)); err != nil {
		log.Error().Err(err).Msg("failed to delete session")

		return fiber.ErrInternalServerError
	}

	s.cookies.Clear(c, session.SessionCookie)

	return c.Redirect(s.auth.RedirectURL(c.FormValue(handler.CallbackURLField)))
}
