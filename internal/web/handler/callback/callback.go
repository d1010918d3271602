// Package callback completes the OAuth flow when the provider redirects back.
package callback

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/metrics"
	"github.com/authgate/authgate/internal/web/handler"
	"github.com/authgate/authgate/internal/web/session"
)

// Path is the path of the callback routes below the auth base path.
const Path = "/callback"

// Service is the callback handler service.
type Service struct {
	auth    *auth.Auth
	cookies session.Cookies
	metrics *metrics.Metrics
}

// Init initializes the callback handler. m may be nil.
func (s *Service) Init(app *fiber.App, cfg *config.Config, a *auth.Auth, m *metrics.Metrics) error {
	if app == nil || cfg == nil || a == nil {
		return handler.ErrNilDependency
	}

	s.auth = a
	s.cookies = session.NewCookies(cfg.DevMode)
	s.metrics = m

	app.Route(a.BasePath()+Path, func(router fiber.Router) {
		router.Get("/:provider", s.Get)
	})

	return nil
}

// Get finishes the sign-in and sets the session cookie.
func (s *Service) Get(c *fiber.Ctx) error {
	providerID := c.Params("provider")
	check := s.cookies.Get(c, session.CheckCookie)

	// the check is single use
	s.cookies.Clear(c, session.CheckCookie)

	res, err := s.auth.CompleteSignIn(c.UserContext(), providerID, auth.CallbackParams{
		Code:             c.Query("code"),
		State:            c.Query("state"),
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	}, check, session.Token(c))
	if err != nil {
		code := auth.ErrorCodeOf(err)

		log.Warn().Err(err).Str("provider", providerID).Str("code", string(code)).Msg("sign in failed")

		if s.metrics != nil {
			s.metrics.SignIn(s.providerLabel(providerID), string(code))
		}

		return c.Redirect(s.errorURL(code))
	}

	s.cookies.Set(c, session.SessionCookie, res.SessionToken, res.Expires)

	return c.Redirect(res.RedirectURL)
}

// providerLabel keeps the metric labels bounded to the configured providers.
func (s *Service) providerLabel(providerID string) string {
	if _, ok := s.auth.Provider(providerID); ok {
		return providerID
	}

	return metrics.ProviderUnknown
}

func (s *Service) errorURL(code auth.ErrorCode) string {
	route := "/signin"
	if code == auth.CodeAccessDenied || code == auth.CodeConfiguration {
		route = "/error"
	}

	return s.auth.BasePath() + route + "?" + url.Values{"error": {string(code)}}.Encode()
}
