package auth_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmw "github.com/authgate/authgate/internal/web/middleware/auth"
)

func TestRequireJSON(t *testing.T) {
	app := fiber.New()
	app.Get("/me", authmw.RequireJSON, func(c *fiber.Ctx) error {
		return c.SendString("secret")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/me", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
