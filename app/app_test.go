package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/db/adapter"
	"github.com/authgate/authgate/internal/db/models"
	"github.com/authgate/authgate/internal/db/testdb"
)

func TestRedactSecrets(t *testing.T) {
	var c config.Config
	c.Auth.Secret = "0123456789abcdef0123456789abcdef"
	c.Auth.GitHub.ClientID = "github-id"
	c.Auth.GitHub.ClientSecret = "github-secret"
	c.DB.Password = "db-password"

	got := redactSecrets(c)

	assert.Equal(t, redacted, got.Auth.Secret)
	assert.Equal(t, redacted, got.Auth.GitHub.ClientSecret)
	assert.Equal(t, redacted, got.DB.Password)
	assert.Empty(t, got.Auth.Google.ClientSecret)
	assert.Equal(t, "github-id", got.Auth.GitHub.ClientID)

	// the original stays untouched
	assert.Equal(t, "github-secret", c.Auth.GitHub.ClientSecret)
}

func TestFindUser(t *testing.T) {
	ctx := context.Background()

	a, err := adapter.New(testdb.New(t))
	require.NoError(t, err)

	email := "octocat@example.com"
	user := &models.User{Name: "Octo Cat", Email: &email}
	require.NoError(t, a.CreateUser(ctx, user))
	require.NoError(t, a.LinkAccount(ctx, &models.Account{
		UserID:            user.ID,
		Type:              models.AccountTypeOAuth,
		Provider:          "github",
		ProviderAccountID: "583231",
	}))

	byID, err := findUser(ctx, a, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byID.ID)

	byEmail, err := findUser(ctx, a, email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = findUser(ctx, a, "nobody@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	accounts, err := a.ListAccounts(ctx, user.ID)
	require.NoError(t, err)

	out := formatUser(byID, accounts)
	assert.Contains(t, out, "id:       "+user.ID)
	assert.Contains(t, out, "email:    octocat@example.com")
	assert.Contains(t, out, "account:  github 583231 (oauth)")
}
