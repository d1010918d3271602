// Package app implements the main application commands.
package app

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/logger"
)

var (
	configPath string // Path to the configuration directory
	envFile    string // Optional dotenv file with secrets

	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "authgate",
		Short: "authgate signs users in with GitHub and Google",
		Long: `authgate is a web service that signs users in with their GitHub or Google
account and keeps their sessions in a database.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "Directory holding main.toml")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before reading the config")
}

// loadConfig loads the dotenv file, reads the config and initializes the logger.
func loadConfig() error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	var err error
	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	return logger.Init(cfg.Log)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
