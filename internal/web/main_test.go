package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/authconfig"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/db/adapter"
	"github.com/authgate/authgate/internal/db/models"
	"github.com/authgate/authgate/internal/db/testdb"
	"github.com/authgate/authgate/internal/metrics"
	"github.com/authgate/authgate/internal/web"
	"github.com/authgate/authgate/internal/web/session"
)

const baseURL = "http://localhost:3000"

// stubProvider hands out a fixed profile for every code.
type stubProvider struct {
	profile auth.Profile
}

func (p *stubProvider) ID() string                              { return "stub" }
func (p *stubProvider) Name() string                            { return "Stub" }
func (p *stubProvider) Type() models.AccountType                { return models.AccountTypeOAuth }
func (p *stubProvider) AllowDangerousEmailAccountLinking() bool { return false }

func (p *stubProvider) AuthCodeURL(state, _, redirectURL string) string {
	return "https://provider.example/authorize?" + url.Values{
		"state":        {state},
		"redirect_uri": {redirectURL},
	}.Encode()
}

func (p *stubProvider) Exchange(_ context.Context, code, _, _ string) (*auth.Tokens, error) {
	return &auth.Tokens{AccessToken: "access-" + code, TokenType: "bearer"}, nil
}

func (p *stubProvider) Profile(_ context.Context, _ *auth.Tokens) (*auth.Profile, error) {
	profile := p.profile

	return &profile, nil
}

// flakyAdapter fails session lookups while lookupErr is set, everything else
// reaches the database.
type flakyAdapter struct {
	*adapter.Gorm
	lookupErr error
}

func (f *flakyAdapter) GetSessionAndUser(ctx context.Context, token string) (*models.Session, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}

	return f.Gorm.GetSessionAndUser(ctx, token)
}

type harness struct {
	app     *fiber.App
	service *web.Service
	adapter *flakyAdapter
	cookies session.Cookies
	jar     map[string]*http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	gormAdapter, err := adapter.New(testdb.New(t))
	require.NoError(t, err)

	dbAdapter := &flakyAdapter{Gorm: gormAdapter}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	a, err := auth.New(auth.Options{
		BaseURL: baseURL,
		Secret:  "0123456789abcdef0123456789abcdef",
		Providers: []auth.Provider{&stubProvider{profile: auth.Profile{
			ID:    "42",
			Name:  "Octo Cat",
			Email: "octocat@example.com",
			Image: "https://example.com/octocat.png",
		}}},
		Adapter:   dbAdapter,
		Callbacks: auth.Callbacks{Session: authconfig.SessionWithUserID},
		Events:    authconfig.Events(m),
	})
	require.NoError(t, err)

	cfg := &config.Config{Title: "authgate"}
	cfg.Webserver.URL = baseURL

	service, err := web.New(cfg, a, nil, m, reg)
	require.NoError(t, err)

	return &harness{
		app:     service.App,
		service: service,
		adapter: dbAdapter,
		cookies: session.NewCookies(cfg.DevMode),
		jar:     make(map[string]*http.Cookie),
	}
}

// do sends req with the cookie jar and stores the cookies of the response.
func (h *harness) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	for _, c := range h.jar {
		req.AddCookie(c)
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)

	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(h.jar, c.Name)

			continue
		}

		h.jar[c.Name] = c
	}

	return resp
}

func (h *harness) get(t *testing.T, target string) *http.Response {
	t.Helper()

	return h.do(t, httptest.NewRequest(fiber.MethodGet, target, nil))
}

func (h *harness) postForm(t *testing.T, target string, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	return h.do(t, req)
}

func (h *harness) csrfToken(t *testing.T) string {
	t.Helper()

	resp := h.get(t, "/api/auth/csrf")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.CSRFToken)

	return body.CSRFToken
}

func decodeSession(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	return body
}

// signIn runs the complete flow and returns the callback response.
func (h *harness) signIn(t *testing.T, callbackURL string) *http.Response {
	t.Helper()

	token := h.csrfToken(t)

	resp := h.postForm(t, "/api/auth/signin/stub", url.Values{
		"csrfToken":   {token},
		"callbackUrl": {callbackURL},
	})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get(fiber.HeaderLocation))
	require.NoError(t, err)
	require.Equal(t, "provider.example", location.Host)
	require.Equal(t, baseURL+"/api/auth/callback/stub", location.Query().Get("redirect_uri"))
	require.Contains(t, h.jar, h.cookies.Name(session.CheckCookie))

	q := url.Values{"code": {"abc"}, "state": {location.Query().Get("state")}}

	return h.get(t, "/api/auth/callback/stub?"+q.Encode())
}

func TestSignInFlow(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/api/auth/session")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeSession(t, resp))

	resp = h.signIn(t, "/me")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, baseURL+"/me", resp.Header.Get(fiber.HeaderLocation))
	assert.NotContains(t, h.jar, h.cookies.Name(session.CheckCookie))
	require.Contains(t, h.jar, h.cookies.Name(session.SessionCookie))

	user, err := h.adapter.GetUserByAccount(context.Background(), "stub", "42")
	require.NoError(t, err)
	require.NotNil(t, user)

	resp = h.get(t, "/api/auth/session")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))

	body := decodeSession(t, resp)
	sessionUser, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, user.ID, sessionUser["id"])
	assert.Equal(t, "Octo Cat", sessionUser["name"])
	assert.Equal(t, "octocat@example.com", sessionUser["email"])
	assert.NotEmpty(t, body["expires"])

	resp = h.get(t, "/me")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, user.ID, decodeSession(t, resp)["user"].(map[string]any)["id"])

	resp = h.get(t, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Octo Cat")
	assert.Contains(t, string(page), user.ID)

	resp = h.postForm(t, "/api/auth/signout", url.Values{
		"csrfToken":   {h.csrfToken(t)},
		"callbackUrl": {"/"},
	})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, baseURL+"/", resp.Header.Get(fiber.HeaderLocation))
	assert.NotContains(t, h.jar, h.cookies.Name(session.SessionCookie))

	resp = h.get(t, "/api/auth/session")
	assert.Empty(t, decodeSession(t, resp))

	resp = h.get(t, "/me")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "SessionRequired", decodeSession(t, resp)["error"])
}

func TestSignInRejectsForeignCallbackURL(t *testing.T) {
	h := newHarness(t)

	resp := h.signIn(t, "https://evil.example/steal")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, baseURL, resp.Header.Get(fiber.HeaderLocation))
}

func TestSignInRequiresCSRFToken(t *testing.T) {
	h := newHarness(t)

	_ = h.csrfToken(t)

	resp := h.postForm(t, "/api/auth/signin/stub", url.Values{"csrfToken": {"forged"}})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.NotContains(t, h.jar, h.cookies.Name(session.CheckCookie))
}

func TestSignInUnknownProvider(t *testing.T) {
	h := newHarness(t)

	resp := h.postForm(t, "/api/auth/signin/nope", url.Values{"csrfToken": {h.csrfToken(t)}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/api/auth/signin?error=OAuthSignin", resp.Header.Get(fiber.HeaderLocation))
}

func TestCallbackErrors(t *testing.T) {
	tests := []struct {
		name     string
		query    url.Values
		location string
	}{
		{
			name:     "without check cookie",
			query:    url.Values{"code": {"abc"}, "state": {"xyz"}},
			location: "/api/auth/signin?error=OAuthCallback",
		},
		{
			name:     "provider error",
			query:    url.Values{"error": {"access_denied"}},
			location: "/api/auth/signin?error=OAuthCallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			resp := h.get(t, "/api/auth/callback/stub?"+tt.query.Encode())
			require.Equal(t, fiber.StatusFound, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get(fiber.HeaderLocation))
			assert.NotContains(t, h.jar, h.cookies.Name(session.SessionCookie))
		})
	}
}

func TestStaleSessionCookieIsCleared(t *testing.T) {
	h := newHarness(t)

	h.jar[h.cookies.Name(session.SessionCookie)] = &http.Cookie{
		Name:  h.cookies.Name(session.SessionCookie),
		Value: "unknown",
	}

	resp := h.get(t, "/api/auth/session")
	assert.Empty(t, decodeSession(t, resp))
	assert.NotContains(t, h.jar, h.cookies.Name(session.SessionCookie))
}

func TestProviders(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/api/auth/providers")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, map[string]map[string]string{
		"stub": {
			"id":          "stub",
			"name":        "Stub",
			"type":        "oauth",
			"signinUrl":   baseURL + "/api/auth/signin/stub",
			"callbackUrl": baseURL + "/api/auth/callback/stub",
		},
	}, body)
}

func TestPages(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		status   int
		contains string
	}{
		{name: "sign in", target: "/api/auth/signin", status: fiber.StatusOK, contains: "Sign in with Stub"},
		{
			name:     "sign in with error",
			target:   "/api/auth/signin?error=OAuthAccountNotLinked",
			status:   fiber.StatusOK,
			contains: "sign in with the same account you used originally",
		},
		{name: "sign out", target: "/api/auth/signout", status: fiber.StatusOK, contains: "not signed in"},
		{name: "home", target: "/", status: fiber.StatusOK, contains: "You are not signed in."},
		{
			name:     "configuration error",
			target:   "/api/auth/error?error=Configuration",
			status:   fiber.StatusInternalServerError,
			contains: "problem with the server configuration",
		},
		{name: "access denied", target: "/api/auth/error?error=AccessDenied", status: fiber.StatusForbidden},
		{name: "unknown error", target: "/api/auth/error?error=Bogus", status: fiber.StatusOK, contains: "Default"},
	}

	h := newHarness(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.get(t, tt.target)
			require.Equal(t, tt.status, resp.StatusCode)

			page, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(page), tt.contains)
		})
	}
}

func TestSignInLinkRedirectsToPage(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/api/auth/signin/stub?callbackUrl=%2Fme")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/api/auth/signin?callbackUrl=%2Fme", resp.Header.Get(fiber.HeaderLocation))
}

func TestCheckAliveAndMetrics(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/checkalive")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, h.service.Alive())

	_ = h.signIn(t, "/")

	resp = h.get(t, "/metrics")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `authgate_signins_total{outcome="new_user",provider="stub"} 1`)
}

func TestCallbackUnknownProviderMetricLabel(t *testing.T) {
	h := newHarness(t)

	for i := range 20 {
		resp := h.get(t, fmt.Sprintf("/api/auth/callback/intruder%d?code=x&state=y", i))
		require.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/api/auth/signin?error=OAuthCallback", resp.Header.Get(fiber.HeaderLocation))
	}

	resp := h.get(t, "/api/auth/callback/stub?code=x&state=y")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	resp = h.get(t, "/metrics")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, `authgate_signins_total{outcome="OAuthCallback",provider="unknown"} 20`)
	assert.Contains(t, out, `authgate_signins_total{outcome="OAuthCallback",provider="stub"} 1`)
	assert.NotContains(t, out, "intruder")
	assert.Equal(t, 2, strings.Count(out, "authgate_signins_total{"))
}

func TestSignOutWhileSessionStoreFails(t *testing.T) {
	h := newHarness(t)

	resp := h.signIn(t, "/")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	cookieName := h.cookies.Name(session.SessionCookie)
	require.Contains(t, h.jar, cookieName)
	token := h.jar[cookieName].Value

	h.adapter.lookupErr = errors.New("store unavailable")

	resp = h.postForm(t, "/api/auth/signout", url.Values{"csrfToken": {h.csrfToken(t)}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.NotContains(t, h.jar, cookieName)

	h.adapter.lookupErr = nil

	stored, err := h.adapter.GetSessionAndUser(context.Background(), token)
	require.NoError(t, err)
	assert.Nil(t, stored)
}
