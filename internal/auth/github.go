package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/authgate/authgate/internal/db/models"
)

const gitHubAPIURL = "https://api.github.com"

// GitHubConfig configures the GitHub provider.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	// Scopes default to read:user and user:email.
	Scopes                            []string
	AllowDangerousEmailAccountLinking bool

	// Endpoint overrides the github.com OAuth endpoints.
	Endpoint oauth2.Endpoint
	// APIURL overrides the REST API root.
	APIURL     string
	HTTPClient *http.Client
}

// GitHubProvider signs users in with GitHub. GitHub does not issue id tokens, the
// profile is read from the REST API.
type GitHubProvider struct {
	oauthProvider
	apiURL string
}

type gitHubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type gitHubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHub returns the GitHub provider.
func GitHub(cfg GitHubConfig) *GitHubProvider {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"read:user", "user:email"}
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = endpoints.GitHub
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = gitHubAPIURL
	}

	return &GitHubProvider{
		oauthProvider: oauthProvider{
			id:   "github",
			name: "GitHub",
			typ:  models.AccountTypeOAuth,
			config: oauth2.Config{
				ClientID:     cfg.ClientID,
				ClientSecret: cfg.ClientSecret,
				Endpoint:     endpoint,
				Scopes:       scopes,
			},
			httpClient:   cfg.HTTPClient,
			allowLinking: cfg.AllowDangerousEmailAccountLinking,
		},
		apiURL: strings.TrimRight(apiURL, "/"),
	}
}

// Profile reads /user and, when the public email is hidden, the primary address of /user/emails.
func (p *GitHubProvider) Profile(ctx context.Context, tokens *Tokens) (*Profile, error) {
	var user gitHubUser
	if err := p.get(ctx, tokens.AccessToken, "/user", &user); err != nil {
		return nil, err
	}

	if user.ID == 0 {
		return nil, fmt.Errorf("github /user: %w", ErrEmptyProfile)
	}

	if user.Email == "" {
		var emails []gitHubEmail
		// the scope may not grant access to the addresses, keep the profile without email then
		if err := p.get(ctx, tokens.AccessToken, "/user/emails", &emails); err == nil {
			user.Email = primaryEmail(emails)
		}
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &Profile{
		ID:    strconv.FormatInt(user.ID, 10),
		Name:  name,
		Email: user.Email,
		Image: user.AvatarURL,
	}, nil
}

func (p *GitHubProvider) get(ctx context.Context, accessToken, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+path, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "authgate")

	resp, err := p.client().Do(req)
	if err != nil {
		return fmt.Errorf("github %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)

		return fmt.Errorf("github %s: unexpected status %d", path, resp.StatusCode)
	}

	if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("github %s: %w", path, err)
	}

	return nil
}

func primaryEmail(emails []gitHubEmail) string {
	for _, e := range emails {
		if e.Primary {
			return e.Email
		}
	}

	if len(emails) > 0 {
		return emails[0].Email
	}

	return ""
}
