// Package authconfig wires the GitHub and Google providers, the database adapter and
// the session callback into the auth package.
package authconfig

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/db/adapter"
	"github.com/authgate/authgate/internal/db/models"
	"github.com/authgate/authgate/internal/metrics"
)

// New returns the configured Auth. m may be nil.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, m *metrics.Metrics) (*auth.Auth, error) {
	providers, err := Providers(ctx, &cfg.Auth)
	if err != nil {
		return nil, err
	}

	dbAdapter, err := adapter.New(db)
	if err != nil {
		return nil, err
	}

	return auth.New(auth.Options{
		BaseURL:   cfg.Webserver.URL,
		BasePath:  cfg.Auth.BasePath,
		Secret:    cfg.Auth.Secret,
		Providers: providers,
		Adapter:   dbAdapter,
		Session: auth.SessionOptions{
			Strategy:  cfg.Auth.Session.Strategy,
			MaxAge:    cfg.Auth.Session.MaxAge,
			UpdateAge: cfg.Auth.Session.UpdateInterval(),
		},
		Callbacks: auth.Callbacks{
			Session: SessionWithUserID,
		},
		Events: Events(m),
	})
}

// Providers returns the enabled providers, GitHub first.
func Providers(ctx context.Context, cfg *config.Auth) ([]auth.Provider, error) {
	var providers []auth.Provider

	if cfg.GitHub.Enabled {
		providers = append(providers, auth.GitHub(auth.GitHubConfig{
			ClientID:                          cfg.GitHub.ClientID,
			ClientSecret:                      cfg.GitHub.ClientSecret,
			Scopes:                            cfg.GitHub.Scopes,
			AllowDangerousEmailAccountLinking: cfg.GitHub.AllowDangerousEmailAccountLinking,
		}))
	}

	if cfg.Google.Enabled {
		google, err := auth.Google(ctx, auth.GoogleConfig{
			ClientID:                          cfg.Google.ClientID,
			ClientSecret:                      cfg.Google.ClientSecret,
			Scopes:                            cfg.Google.Scopes,
			AllowDangerousEmailAccountLinking: cfg.Google.AllowDangerousEmailAccountLinking,
			Discovery:                         cfg.Google.Discovery,
		})
		if err != nil {
			return nil, fmt.Errorf("google provider: %w", err)
		}

		providers = append(providers, google)
	}

	return providers, nil
}

// SessionWithUserID copies the persisted user id onto session.user.id.
func SessionWithUserID(_ context.Context, params auth.SessionParams) (*auth.Session, error) {
	if params.Session.User != nil && params.User != nil {
		params.Session.User.ID = params.User.ID
	}

	return params.Session, nil
}

// Events logs the auth events and counts them when m is set.
func Events(m *metrics.Metrics) auth.Events {
	return auth.Events{
		SignIn: func(_ context.Context, ev auth.SignInEvent) {
			log.Info().
				Str("user_id", ev.User.ID).
				Str("provider", ev.Account.Provider).
				Bool("new_user", ev.IsNewUser).
				Msg("signed in")

			if m != nil {
				outcome := metrics.OutcomeSuccess
				if ev.IsNewUser {
					outcome = metrics.OutcomeNewUser
				}

				m.SignIn(ev.Account.Provider, outcome)
			}
		},
		SignOut: func(_ context.Context, s *models.Session) {
			log.Info().Str("user_id", s.UserID).Msg("signed out")

			if m != nil {
				m.SignOuts.Inc()
			}
		},
		CreateUser: func(_ context.Context, u *models.User) {
			log.Info().Str("user_id", u.ID).Msg("user created")

			if m != nil {
				m.UsersCreated.Inc()
			}
		},
		LinkAccount: func(_ context.Context, u *models.User, a *models.Account) {
			log.Info().
				Str("user_id", u.ID).
				Str("provider", a.Provider).
				Str("provider_account_id", a.ProviderAccountID).
				Msg("account linked")

			if m != nil {
				m.AccountsLinked.WithLabelValues(a.Provider).Inc()
			}
		},
	}
}
