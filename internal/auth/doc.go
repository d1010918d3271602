// Package auth implements database backed OAuth sign-in.
//
// It drives the authorization code flow (with PKCE) against the configured
// providers, links provider accounts to users through an Adapter and issues
// opaque session tokens whose sessions are persisted by the same Adapter.
// Request handling, cookies and CSRF protection live in the web packages.
package auth
