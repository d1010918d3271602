package config

import (
	"time"

	"github.com/authgate/authgate/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode     bool // enable dev mode for development
	Title       string
	DB          DB
	Log         logger.Log
	Webserver   Webserver
	Auth        Auth
	KV          KV
	Maintenance Maintenance
}

// Webserver implement webserver settings.
type Webserver struct {
	Port         int    // listening port for the webserver
	URL          string // public base url, used for OAuth redirect urls
	ShutDownTime int    // wait time for shutdown in seconds
	CheckAlive   string // path of the load balancer health check
}

// Auth holds the authentication settings.
type Auth struct {
	// Secret signs the short-lived OAuth check cookie.
	Secret   string `validate:"required,min=32"`
	BasePath string `validate:"required,startswith=/"`
	Session  Session
	GitHub   OAuthProvider
	Google   GoogleProvider
}

// Session settings.
type Session struct {
	// Strategy is the session persistence strategy. Only "database" is supported.
	Strategy string `validate:"oneof=database"`
	// MaxAge is the idle lifetime of a session.
	MaxAge time.Duration `validate:"gt=0"`
	// UpdateAge throttles how often the session expiry is pushed forward. An explicit 0
	// extends the session on every request, unset falls back to UpdateInterval.
	UpdateAge *time.Duration `validate:"omitempty,gte=0,ltefield=MaxAge"`
}

// UpdateInterval returns UpdateAge. When unset it is 24 hours, capped at MaxAge.
func (s Session) UpdateInterval() time.Duration {
	if s.UpdateAge != nil {
		return *s.UpdateAge
	}

	if s.MaxAge > 0 && s.MaxAge < defaultUpdateAge {
		return s.MaxAge
	}

	return defaultUpdateAge
}

// OAuthProvider holds the client registration of an OAuth identity provider.
type OAuthProvider struct {
	Enabled      bool
	ClientID     string `validate:"required_if=Enabled true"`
	ClientSecret string `validate:"required_if=Enabled true"`
	Scopes       []string

	// AllowDangerousEmailAccountLinking links a provider account to an existing user
	// with the same email address instead of refusing the sign in.
	AllowDangerousEmailAccountLinking bool
}

// GoogleProvider adds the Google specific settings.
type GoogleProvider struct {
	OAuthProvider

	// Discovery loads endpoints and signing keys from the issuer's
	// openid-configuration document at startup.
	Discovery bool
}

// KV selects the storage used for short-lived web state (csrf tokens).
type KV struct {
	Driver string `validate:"oneof=memory database redis"`
	Table  string
	Redis  Redis
}

// Redis connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Maintenance holds the background job settings.
type Maintenance struct {
	// PruneSchedule is a cron spec for deleting expired sessions. Empty disables pruning.
	PruneSchedule string
}
