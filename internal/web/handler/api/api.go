// Package api serves the JSON endpoints of the auth routes.
package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/web/handler"
	"github.com/authgate/authgate/internal/web/session"
)

// ProviderInfo describes a provider to clients.
type ProviderInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	SigninURL   string `json:"signinUrl"`
	CallbackURL string `json:"callbackUrl"`
}

// Service is the api handler service.
type Service struct {
	handler.Service
	auth *auth.Auth
}

// Init initializes the api handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, a *auth.Auth) error {
	if app == nil || cfg == nil || a == nil {
		return handler.ErrNilDependency
	}

	s.auth = a

	app.Route(a.BasePath(), func(router fiber.Router) {
		router.Get("/providers", s.Providers)
		router.Get("/csrf", s.CSRF)
		router.Get("/session", s.Session)
	})

	return nil
}

// Providers lists the configured providers by id.
func (s *Service) Providers(c *fiber.Ctx) error {
	out := make(map[string]ProviderInfo, len(s.auth.Providers()))
	for _, p := range s.auth.Providers() {
		out[p.ID()] = ProviderInfo{
			ID:          p.ID(),
			Name:        p.Name(),
			Type:        string(p.Type()),
			SigninURL:   s.auth.URL("signin/" + p.ID()),
			CallbackURL: s.auth.CallbackURL(p.ID()),
		}
	}

	return c.JSON(out)
}

// CSRF returns the csrf token that must accompany sign-in and sign-out posts.
func (s *Service) CSRF(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")

	return c.JSON(fiber.Map{handler.CSRFFormField: handler.CSRFToken(c)})
}

// Session returns the session of the request, an empty object when signed out.
func (s *Service) Session(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")

	if current := session.Current(c); current != nil {
		return c.JSON(current)
	}

	return c.JSON(fiber.Map{})
}
