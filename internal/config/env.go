package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// secrets are read from the environment so they can stay out of main.toml.
type secrets struct {
	Secret       string `env:"AUTH_SECRET"`
	URL          string `env:"AUTH_URL"`
	GitHubID     string `env:"AUTH_GITHUB_ID"`
	GitHubSecret string `env:"AUTH_GITHUB_SECRET"`
	GoogleID     string `env:"AUTH_GOOGLE_ID"`
	GoogleSecret string `env:"AUTH_GOOGLE_SECRET"`
	DBPassword   string `env:"AUTHGATE_DB_PASSWORD"`
}

// applyEnv overrides config values with the non-empty environment secrets.
// Setting a provider client id through the environment enables that provider.
func applyEnv(c *Config) error {
	var s secrets

	if err := env.Parse(&s); err != nil {
		return errors.Wrap(err, "failed to parse environment")
	}

	override(&c.Auth.Secret, s.Secret)
	override(&c.Webserver.URL, s.URL)
	override(&c.DB.Password, s.DBPassword)
	override(&c.Auth.GitHub.ClientSecret, s.GitHubSecret)
	override(&c.Auth.Google.ClientSecret, s.GoogleSecret)

	if s.GitHubID != "" {
		c.Auth.GitHub.ClientID = s.GitHubID
		c.Auth.GitHub.Enabled = true
	}

	if s.GoogleID != "" {
		c.Auth.Google.ClientID = s.GoogleID
		c.Auth.Google.Enabled = true
	}

	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
