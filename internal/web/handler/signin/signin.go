// Package signin serves the sign-in page and starts the OAuth flow of a provider.
package signin

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/web/handler"
	"github.com/authgate/authgate/internal/web/session"
)

const (
	// Path is the path of the sign-in routes below the auth base path.
	Path = "/signin"
	// Template is the name of the sign-in page template.
	Template = "signin"
)

// ProviderButton is a provider entry of the sign-in page.
type ProviderButton struct {
	ID     string
	Name   string
	Action string
}

// Service is the sign-in handler service.
type Service struct {
	handler.Service
	auth    *auth.Auth
	cookies session.Cookies
}

// Init initializes the sign-in handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, a *auth.Auth) error {
	if app == nil || cfg == nil || a == nil {
		return handler.ErrNilDependency
	}

	s.auth = a
	s.cookies = session.NewCookies(cfg.DevMode)

	app.Route(a.BasePath()+Path, func(router fiber.Router) {
		router.Get(handler.RootPath, s.Get)
		router.Get("/:provider", s.GetProvider)
		router.Post("/:provider", s.Post)
	})

	return nil
}

// Get renders the sign-in page.
func (s *Service) Get(c *fiber.Ctx) error {
	buttons := make([]ProviderButton, 0, len(s.auth.Providers()))
	for _, p := range s.auth.Providers() {
		buttons = append(buttons, ProviderButton{
			ID:     p.ID(),
			Name:   p.Name(),
			Action: s.auth.BasePath() + Path + "/" + p.ID(),
		})
	}

	return c.Render(Template, fiber.Map{
		"Title":       "Sign in",
		"Providers":   buttons,
		"CSRFToken":   handler.CSRFToken(c),
		"CallbackURL": c.Query(handler.CallbackURLField),
		"Error":       handler.SigninErrorMessage(handler.QueryErrorCode(c)),
	}, handler.BaseLayout)
}

// GetProvider sends browsers that followed a provider link to the sign-in page, the flow
// is only started by the csrf protected form.
func (s *Service) GetProvider(c *fiber.Ctx) error {
	target := s.auth.BasePath() + Path
	if cb := c.Query(handler.CallbackURLField); cb != "" {
		target += "?" + url.Values{handler.CallbackURLField: {cb}}.Encode()
	}

	return c.Redirect(target)
}

// Post stores the oauth check cookie and redirects to the provider.
func (s *Service) Post(c *fiber.Ctx) error {
	providerID := c.Params("provider")

	start, err := s.auth.BeginSignIn(providerID, c.FormValue(handler.CallbackURLField))
	if err != nil {
		log.Warn().Err(err).Str("provider", providerID).Msg("sign in could not be started")

		return c.Redirect(s.auth.BasePath() + Path + "?" + url.Values{
			"error": {string(auth.ErrorCodeOf(err))},
		}.Encode())
	}

	s.cookies.Set(c, session.CheckCookie, start.Check, start.CheckExpires)

	return c.Redirect(start.URL)
}
