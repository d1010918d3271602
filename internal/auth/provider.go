package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/authgate/authgate/internal/db/models"
)

// Provider is an OAuth identity provider.
type Provider interface {
	ID() string
	Name() string
	Type() models.AccountType
	// AuthCodeURL returns the authorization url carrying state and the S256 challenge of verifier.
	AuthCodeURL(state, verifier, redirectURL string) string
	// Exchange trades the authorization code for tokens.
	Exchange(ctx context.Context, code, verifier, redirectURL string) (*Tokens, error)
	// Profile loads the user profile belonging to tokens.
	Profile(ctx context.Context, tokens *Tokens) (*Profile, error)
	// AllowDangerousEmailAccountLinking reports whether an existing user with the same
	// email may be linked without proof of ownership.
	AllowDangerousEmailAccountLinking() bool
}

// Tokens is the token response of a provider.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	IDToken      string
	Expiry       time.Time
}

// Profile is the normalized user profile of a provider.
type Profile struct {
	ID            string
	Name          string
	Email         string
	EmailVerified bool
	Image         string
}

// oauthProvider implements the code exchange shared by all providers.
type oauthProvider struct {
	id           string
	name         string
	typ          models.AccountType
	config       oauth2.Config
	httpClient   *http.Client
	allowLinking bool
}

func (p *oauthProvider) ID() string {
	return p.id
}

func (p *oauthProvider) Name() string {
	return p.name
}

func (p *oauthProvider) Type() models.AccountType {
	return p.typ
}

func (p *oauthProvider) AllowDangerousEmailAccountLinking() bool {
	return p.allowLinking
}

func (p *oauthProvider) AuthCodeURL(state, verifier, redirectURL string) string {
	cfg := p.config
	cfg.RedirectURL = redirectURL

	return cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (p *oauthProvider) Exchange(ctx context.Context, code, verifier, redirectURL string) (*Tokens, error) {
	cfg := p.config
	cfg.RedirectURL = redirectURL

	token, err := cfg.Exchange(p.clientContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	tokens := &Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}

	if scope, ok := token.Extra("scope").(string); ok {
		tokens.Scope = scope
	}

	if idToken, ok := token.Extra("id_token").(string); ok {
		tokens.IDToken = idToken
	}

	return tokens, nil
}

func (p *oauthProvider) clientContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}

	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func (p *oauthProvider) client() *http.Client {
	if p.httpClient == nil {
		return http.DefaultClient
	}

	return p.httpClient
}
