package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/authgate/authgate/internal/db/models"
)

const (
	googleIssuer  = "https://accounts.google.com"
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// GoogleConfig configures the Google provider.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	// Scopes default to openid, email and profile.
	Scopes                            []string
	AllowDangerousEmailAccountLinking bool

	// Discovery resolves endpoints and keys from the issuer's discovery document
	// instead of the built in Google endpoints.
	Discovery bool
	// Issuer overrides the expected id_token issuer.
	Issuer string
	// Endpoint overrides the OAuth endpoints when Discovery is off.
	Endpoint oauth2.Endpoint
	// KeySet overrides the remote JWKS used to verify id tokens when Discovery is off.
	KeySet     oidc.KeySet
	HTTPClient *http.Client
}

// GoogleProvider signs users in with Google. The profile is taken from the verified id_token.
type GoogleProvider struct {
	oauthProvider
	verifier *oidc.IDTokenVerifier
}

// Google returns the Google provider. With Discovery enabled it fetches the
// discovery document of the issuer.
func Google(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = googleIssuer
	}

	if cfg.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, cfg.HTTPClient)
	}

	oidcConfig := &oidc.Config{ClientID: cfg.ClientID}

	var (
		endpoint = cfg.Endpoint
		verifier *oidc.IDTokenVerifier
	)

	if cfg.Discovery {
		provider, err := oidc.NewProvider(ctx, issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
		}

		endpoint = provider.Endpoint()
		verifier = provider.Verifier(oidcConfig)
	} else {
		if endpoint.AuthURL == "" {
			endpoint = endpoints.Google
		}

		keySet := cfg.KeySet
		if keySet == nil {
			keySet = oidc.NewRemoteKeySet(ctx, googleJWKSURL)
		}

		verifier = oidc.NewVerifier(issuer, keySet, oidcConfig)
	}

	return &GoogleProvider{
		oauthProvider: oauthProvider{
			id:   "google",
			name: "Google",
			typ:  models.AccountTypeOIDC,
			config: oauth2.Config{
				ClientID:     cfg.ClientID,
				ClientSecret: cfg.ClientSecret,
				Endpoint:     endpoint,
				Scopes:       scopes,
			},
			httpClient:   cfg.HTTPClient,
			allowLinking: cfg.AllowDangerousEmailAccountLinking,
		},
		verifier: verifier,
	}, nil
}

// Profile verifies the id_token and maps its claims.
func (p *GoogleProvider) Profile(ctx context.Context, tokens *Tokens) (*Profile, error) {
	if tokens.IDToken == "" {
		return nil, ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, tokens.IDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Sub           string `json:"sub"`
		Name          string `json:"name"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Picture       string `json:"picture"`
	}

	if err = idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	return &Profile{
		ID:            claims.Sub,
		Name:          claims.Name,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Image:         claims.Picture,
	}, nil
}
