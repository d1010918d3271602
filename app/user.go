package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/authgate/authgate/internal/db"
	"github.com/authgate/authgate/internal/db/adapter"
	"github.com/authgate/authgate/internal/db/models"
)

// ErrUserNotFound is returned when neither id nor email match a user.
var ErrUserNotFound = errors.New("user not found")

func init() { //nolint: gochecknoinits
	userCmd.AddCommand(userShowCmd, userDeleteCmd, userUnlinkCmd)
	rootCmd.AddCommand(userCmd)
}

var (
	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	userShowCmd = &cobra.Command{
		Use:   "show <id|email>",
		Short: "Show a user and the linked provider accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAdapter()
			if err != nil {
				return err
			}

			user, err := findUser(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}

			accounts, err := a.ListAccounts(cmd.Context(), user.ID)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatUser(user, accounts))

			return nil
		},
	}

	userDeleteCmd = &cobra.Command{
		Use:   "delete <id|email>",
		Short: "Delete a user with all accounts and sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAdapter()
			if err != nil {
				return err
			}

			user, err := findUser(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}

			if err = a.DeleteUser(cmd.Context(), user.ID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "user %s deleted\n", user.ID)

			return nil
		},
	}

	userUnlinkCmd = &cobra.Command{
		Use:   "unlink <provider> <provider-account-id>",
		Short: "Unlink a provider account from its user",
		Args:  cobra.ExactArgs(2), //nolint: mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAdapter()
			if err != nil {
				return err
			}

			if err = a.UnlinkAccount(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("unlink %s account %s: %w", args[0], args[1], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s account %s unlinked\n", args[0], args[1])

			return nil
		},
	}
)

func openAdapter() (*adapter.Gorm, error) {
	gdb, err := db.Open(&cfg)
	if err != nil {
		return nil, err
	}

	return adapter.New(gdb)
}

// findUser looks the user up by id, or by email when key contains an @.
func findUser(ctx context.Context, a *adapter.Gorm, key string) (*models.User, error) {
	var (
		user *models.User
		err  error
	)

	if strings.Contains(key, "@") {
		user, err = a.GetUserByEmail(ctx, key)
	} else {
		user, err = a.GetUser(ctx, key)
	}

	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, key)
	}

	return user, nil
}

func formatUser(user *models.User, accounts []models.Account) string {
	var b strings.Builder

	fmt.Fprintf(&b, "id:       %s\n", user.ID)
	fmt.Fprintf(&b, "name:     %s\n", user.Name)
	fmt.Fprintf(&b, "email:    %s\n", user.EmailAddress())
	fmt.Fprintf(&b, "created:  %s\n", user.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	for _, acc := range accounts {
		fmt.Fprintf(&b, "account:  %s %s (%s)\n", acc.Provider, acc.ProviderAccountID, acc.Type)
	}

	return b.String()
}
