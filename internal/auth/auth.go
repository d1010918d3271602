package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/authgate/authgate/internal/db/models"
)

const (
	// StrategyDatabase persists sessions through the adapter.
	StrategyDatabase = "database"

	// DefaultMaxAge is the idle lifetime of a session.
	DefaultMaxAge = 30 * 24 * time.Hour
	// DefaultUpdateAge throttles how often the expiry of a session is extended.
	DefaultUpdateAge = 24 * time.Hour
	// DefaultBasePath is the mount point of the auth routes.
	DefaultBasePath = "/api/auth"
)

// Adapter persists users, accounts and sessions. Lookups of missing rows return nil
// without an error.
type Adapter interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	LinkAccount(ctx context.Context, account *models.Account) error
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionAndUser(ctx context.Context, token string) (*models.Session, error)
	UpdateSession(ctx context.Context, token string, expires time.Time) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) (*models.Session, error)
}

// SessionOptions configures the session lifetime.
type SessionOptions struct {
	Strategy  string
	MaxAge    time.Duration
	UpdateAge time.Duration
}

// SessionUser is the user part of the client visible session.
type SessionUser struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

// Session is the client visible session object.
type Session struct {
	User    *SessionUser `json:"user,omitempty"`
	Expires time.Time    `json:"expires"`
}

// SignInParams is passed to the SignIn callback. User is the stored user for known
// accounts, otherwise a not yet persisted user built from the profile.
type SignInParams struct {
	User    *models.User
	Account *models.Account
	Profile *Profile
}

// RedirectParams is passed to the Redirect callback.
type RedirectParams struct {
	URL     string
	BaseURL string
}

// SessionParams is passed to the Session callback.
type SessionParams struct {
	Session *Session
	User    *models.User
}

// Callbacks customize the flow. Nil callbacks keep the default behavior.
type Callbacks struct {
	SignIn   func(ctx context.Context, params SignInParams) (bool, error)
	Redirect func(params RedirectParams) string
	Session  func(ctx context.Context, params SessionParams) (*Session, error)
}

// SignInEvent describes a completed sign-in.
type SignInEvent struct {
	User      *models.User
	Account   *models.Account
	Profile   *Profile
	IsNewUser bool
}

// Events are notified after the fact. They can not alter the flow.
type Events struct {
	SignIn      func(ctx context.Context, ev SignInEvent)
	SignOut     func(ctx context.Context, session *models.Session)
	CreateUser  func(ctx context.Context, user *models.User)
	LinkAccount func(ctx context.Context, user *models.User, account *models.Account)
	Session     func(ctx context.Context, session *Session)
}

// Options configures Auth.
type Options struct {
	// BaseURL is the public absolute url of the application, e.g. https://example.com.
	BaseURL string
	// BasePath is the mount point of the auth routes, DefaultBasePath when empty.
	BasePath string
	// Secret signs the oauth check cookie.
	Secret    string
	Providers []Provider
	Adapter   Adapter
	Session   SessionOptions
	Callbacks Callbacks
	Events    Events

	// GenerateSessionToken overrides the session token generator.
	GenerateSessionToken func() (string, error)
	// Now overrides the clock.
	Now func() time.Time
}

// Auth runs the sign-in flow and resolves sessions.
type Auth struct {
	opts      Options
	baseURL   string
	origin    string
	providers map[string]Provider
	order     []Provider
	checkKey  []byte
}

// New validates opts and applies defaults.
func New(opts Options) (*Auth, error) {
	if opts.Secret == "" {
		return nil, newError(CodeConfiguration, ErrMissingSecret)
	}

	if opts.Adapter == nil {
		return nil, newError(CodeConfiguration, ErrMissingAdapter)
	}

	if opts.Session.Strategy == "" {
		opts.Session.Strategy = StrategyDatabase
	}

	if opts.Session.Strategy != StrategyDatabase {
		return nil, newError(CodeConfiguration, fmt.Errorf("%w: %s", ErrUnsupportedStrategy, opts.Session.Strategy))
	}

	if opts.Session.MaxAge <= 0 {
		opts.Session.MaxAge = DefaultMaxAge
	}

	if opts.Session.UpdateAge < 0 {
		opts.Session.UpdateAge = DefaultUpdateAge
	}

	if opts.BasePath == "" {
		opts.BasePath = DefaultBasePath
	}

	opts.BasePath = "/" + strings.Trim(opts.BasePath, "/")

	if opts.GenerateSessionToken == nil {
		opts.GenerateSessionToken = GenerateSessionToken
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, newError(CodeConfiguration, fmt.Errorf("%w: %q", ErrInvalidBaseURL, opts.BaseURL))
	}

	a := &Auth{
		opts:      opts,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		origin:    u.Scheme + "://" + u.Host,
		providers: make(map[string]Provider, len(opts.Providers)),
	}

	for _, p := range opts.Providers {
		if _, ok := a.providers[p.ID()]; ok {
			return nil, newError(CodeConfiguration, fmt.Errorf("%w: %s", ErrDuplicateProvider, p.ID()))
		}

		a.providers[p.ID()] = p
		a.order = append(a.order, p)
	}

	if a.checkKey, err = deriveKey(opts.Secret, checkKeyInfo); err != nil {
		return nil, newError(CodeConfiguration, err)
	}

	return a, nil
}

// Providers returns the configured providers in registration order.
func (a *Auth) Providers() []Provider {
	return a.order
}

// Provider returns the provider with the given id.
func (a *Auth) Provider(id string) (Provider, bool) {
	p, ok := a.providers[id]

	return p, ok
}

// BasePath returns the mount point of the auth routes.
func (a *Auth) BasePath() string {
	return a.opts.BasePath
}

// BaseURL returns the public url of the application without a trailing slash.
func (a *Auth) BaseURL() string {
	return a.baseURL
}

// MaxAge returns the session lifetime.
func (a *Auth) MaxAge() time.Duration {
	return a.opts.Session.MaxAge
}

// URL returns the absolute url of an auth route, e.g. URL("signin").
func (a *Auth) URL(route string) string {
	return a.baseURL + a.opts.BasePath + "/" + strings.TrimLeft(route, "/")
}

// CallbackURL returns the redirect uri registered at the provider.
func (a *Auth) CallbackURL(providerID string) string {
	return a.URL("callback/" + providerID)
}

func (a *Auth) now() time.Time {
	return a.opts.Now()
}
