package session

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/metrics"
)

const (
	sessionLocalsKey = "session"
	tokenLocalsKey   = "sessionToken"
)

// Resolver looks up the session of a token.
type Resolver interface {
	GetSession(ctx context.Context, token string) (*auth.Session, error)
}

// Config of the session middleware.
type Config struct {
	// Next skips the middleware when it returns true.
	Next     func(c *fiber.Ctx) bool
	Resolver Resolver
	Cookies  Cookies
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Middleware resolves the session cookie and stores the session in the request locals.
// The cookie expiry follows the session expiry, stale cookies are cleared.
func Middleware(cfg Config) fiber.Handler {
	count := func(result string) {
		if cfg.Metrics != nil {
			cfg.Metrics.SessionLookup(result)
		}
	}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		token := cfg.Cookies.Get(c, SessionCookie)
		if token == "" {
			count(metrics.SessionNone)

			return c.Next()
		}

		s, err := cfg.Resolver.GetSession(c.UserContext(), token)

		switch {
		case err == nil:
			count(metrics.SessionValid)
			c.Locals(sessionLocalsKey, s)
			c.Locals(tokenLocalsKey, token)
			cfg.Cookies.Set(c, SessionCookie, token, s.Expires)
		case errors.Is(err, auth.ErrSessionExpired):
			count(metrics.SessionExpired)
			cfg.Cookies.Clear(c, SessionCookie)
		case errors.Is(err, auth.ErrSessionNotFound):
			count(metrics.SessionNone)
			cfg.Cookies.Clear(c, SessionCookie)
		default:
			// keep the cookie, the store may only be unavailable for a moment
			count(metrics.SessionFailed)
			log.Error().Err(err).Msg("failed to resolve session")
		}

		return c.Next()
	}
}

// Current returns the session of the request, nil when signed out.
func Current(c *fiber.Ctx) *auth.Session {
	s, _ := c.Locals(sessionLocalsKey).(*auth.Session)

	return s
}

// Token returns the session token of a signed-in request.
func Token(c *fiber.Ctx) string {
	t, _ := c.Locals(tokenLocalsKey).(string)

	return t
}

// UserID returns the user id of the signed-in request, empty when signed out.
func UserID(c *fiber.Ctx) string {
	if s := Current(c); s != nil && s.User != nil {
		return s.User.ID
	}

	return ""
}
