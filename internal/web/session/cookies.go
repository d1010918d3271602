// Package session resolves the session cookie of a request and manages the auth cookies.
package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Cookie base names. Outside dev mode they carry the __Secure- prefix.
const (
	SessionCookie = "authgate.session-token"
	CheckCookie   = "authgate.oauth-check"
	CSRFCookie    = "authgate.csrf-token"

	securePrefix = "__Secure-"
	sameSite     = fiber.CookieSameSiteLaxMode
)

// Cookies writes the auth cookies with consistent attributes.
type Cookies struct {
	secure bool
}

// NewCookies returns secure cookies unless devMode is set.
func NewCookies(devMode bool) Cookies {
	return Cookies{secure: !devMode}
}

// Secure reports whether the cookies are restricted to https.
func (c Cookies) Secure() bool {
	return c.secure
}

// Name returns the cookie name for base.
func (c Cookies) Name(base string) string {
	if c.secure {
		return securePrefix + base
	}

	return base
}

// Get returns the cookie value of base.
func (c Cookies) Get(ctx *fiber.Ctx, base string) string {
	return ctx.Cookies(c.Name(base))
}

// Set writes an http-only cookie valid until expires.
func (c Cookies) Set(ctx *fiber.Ctx, base, value string, expires time.Time) {
	ctx.Cookie(&fiber.Cookie{
		Name:     c.Name(base),
		Value:    value,
		Path:     "/",
		Expires:  expires,
		Secure:   c.secure,
		HTTPOnly: true,
		SameSite: sameSite,
	})
}

// Clear expires the cookie of base.
func (c Cookies) Clear(ctx *fiber.Ctx, base string) {
	ctx.Cookie(&fiber.Cookie{
		Name:     c.Name(base),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   c.secure,
		HTTPOnly: true,
		SameSite: sameSite,
	})
}
