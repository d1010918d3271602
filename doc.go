// Package main provides the entry point of authgate.
// It runs a fiber web service that signs users in with GitHub or Google through
// the OAuth authorization code flow and keeps database backed sessions. The
// session object exposed to clients carries the persisted user id.
package main
