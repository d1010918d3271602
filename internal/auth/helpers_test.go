package auth_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/db/adapter"
	"github.com/authgate/authgate/internal/db/models"
	"github.com/authgate/authgate/internal/db/testdb"
)

const (
	testBaseURL = "http://localhost:3000"
	testSecret  = "0123456789abcdef0123456789abcdef"
)

// fakeProvider skips the network: every exchange succeeds unless exchangeErr is set
// and the profile is returned as configured.
type fakeProvider struct {
	id           string
	profile      auth.Profile
	exchangeErr  error
	allowLinking bool

	mu          sync.Mutex
	gotCode     string
	gotVerifier string
	gotRedirect string
}

func (p *fakeProvider) ID() string                              { return p.id }
func (p *fakeProvider) Name() string                            { return "Fake " + p.id }
func (p *fakeProvider) Type() models.AccountType                { return models.AccountTypeOAuth }
func (p *fakeProvider) AllowDangerousEmailAccountLinking() bool { return p.allowLinking }

func (p *fakeProvider) AuthCodeURL(state, verifier, redirectURL string) string {
	q := url.Values{"state": {state}, "redirect_uri": {redirectURL}}

	return "https://provider.example/authorize?" + q.Encode()
}

func (p *fakeProvider) Exchange(_ context.Context, code, verifier, redirectURL string) (*auth.Tokens, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gotCode, p.gotVerifier, p.gotRedirect = code, verifier, redirectURL

	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}

	return &auth.Tokens{AccessToken: "access-" + code, TokenType: "bearer", Scope: "read:user"}, nil
}

func (p *fakeProvider) Profile(_ context.Context, _ *auth.Tokens) (*auth.Profile, error) {
	profile := p.profile

	return &profile, nil
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type fixture struct {
	auth    *auth.Auth
	adapter *adapter.Gorm
	clock   *clock
}

func newFixture(t *testing.T, providers []auth.Provider, modify func(*auth.Options)) *fixture {
	t.Helper()

	a, err := adapter.New(testdb.New(t))
	require.NoError(t, err)

	c := newClock()
	opts := auth.Options{
		BaseURL:   testBaseURL,
		Secret:    testSecret,
		Providers: providers,
		Adapter:   a,
		Session: auth.SessionOptions{
			Strategy:  auth.StrategyDatabase,
			MaxAge:    auth.DefaultMaxAge,
			UpdateAge: auth.DefaultUpdateAge,
		},
		Now: c.Now,
	}

	if modify != nil {
		modify(&opts)
	}

	au, err := auth.New(opts)
	require.NoError(t, err)

	return &fixture{auth: au, adapter: a, clock: c}
}

// signIn runs a complete sign-in against the provider.
func (f *fixture) signIn(t *testing.T, providerID, sessionToken string) (*auth.SignInResult, error) {
	t.Helper()

	start, err := f.auth.BeginSignIn(providerID, "/dashboard")
	require.NoError(t, err)

	u, err := url.Parse(start.URL)
	require.NoError(t, err)

	return f.auth.CompleteSignIn(context.Background(), providerID, auth.CallbackParams{
		Code:  "the-code",
		State: u.Query().Get("state"),
	}, start.Check, sessionToken)
}

func octocat() auth.Profile {
	return auth.Profile{
		ID:    "583231",
		Name:  "The Octocat",
		Email: "octocat@example.com",
		Image: "https://avatars.example.com/u/583231",
	}
}
