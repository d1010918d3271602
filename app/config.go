package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/authgate/authgate/internal/config"
)

const redacted = "REDACTED"

func init() { //nolint: gochecknoinits
	dumpCmd.Flags().BoolVar(&dumpJSON, "json", false, "Dump as JSON instead of TOML")
	dumpCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Do not redact secrets")

	configCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(configCmd)
}

var (
	dumpJSON    bool
	showSecrets bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := cfg
			if !showSecrets {
				c = redactSecrets(c)
			}

			dump := config.DumpConfig
			if dumpJSON {
				dump = config.DumpConfigJSON
			}

			out, err := dump(&c)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), out)

			return nil
		},
	}
)

// redactSecrets returns a copy of c without credentials.
func redactSecrets(c config.Config) config.Config {
	for _, s := range []*string{
		&c.Auth.Secret,
		&c.Auth.GitHub.ClientSecret,
		&c.Auth.Google.ClientSecret,
		&c.DB.Password,
		&c.KV.Redis.Password,
	} {
		if *s != "" {
			*s = redacted
		}
	}

	return c
}
