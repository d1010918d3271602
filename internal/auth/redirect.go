package auth

import (
	"net/url"
	"strings"
)

// RedirectURL resolves a post sign-in or sign-out target through the Redirect callback.
func (a *Auth) RedirectURL(target string) string {
	if a.opts.Callbacks.Redirect != nil {
		return a.opts.Callbacks.Redirect(RedirectParams{URL: target, BaseURL: a.origin})
	}

	return DefaultRedirect(target, a.origin)
}

// DefaultRedirect allows relative paths and urls on the same origin as baseURL.
// Everything else is replaced by baseURL.
func DefaultRedirect(target, baseURL string) string {
	if strings.HasPrefix(target, "/") &&
		!strings.HasPrefix(target, "//") &&
		!strings.HasPrefix(target, "/\\") {
		return baseURL + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return baseURL
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}

	if u.Scheme == base.Scheme && u.Host == base.Host {
		return target
	}

	return baseURL
}
