package session_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/metrics"
	"github.com/authgate/authgate/internal/web/session"
)

type resolver map[string]error

func (r resolver) GetSession(_ context.Context, token string) (*auth.Session, error) {
	if err, ok := r[token]; ok {
		return nil, err
	}

	return &auth.Session{
		User:    &auth.SessionUser{ID: "user-" + token},
		Expires: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func TestCookies(t *testing.T) {
	assert.Equal(t, "__Secure-authgate.session-token", session.NewCookies(false).Name(session.SessionCookie))
	assert.True(t, session.NewCookies(false).Secure())
	assert.Equal(t, "authgate.session-token", session.NewCookies(true).Name(session.SessionCookie))
	assert.False(t, session.NewCookies(true).Secure())
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		wantUserID string
		wantCookie string // expected Set-Cookie value, "-" for none
		result     string
	}{
		{name: "no cookie", wantCookie: "-", result: metrics.SessionNone},
		{name: "valid", token: "abc", wantUserID: "user-abc", wantCookie: "abc", result: metrics.SessionValid},
		{name: "expired", token: "old", wantCookie: "", result: metrics.SessionExpired},
		{name: "unknown", token: "gone", wantCookie: "", result: metrics.SessionNone},
		{name: "store down", token: "down", wantCookie: "-", result: metrics.SessionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())
			cookies := session.NewCookies(true)

			app := fiber.New()
			app.Use(session.Middleware(session.Config{
				Resolver: resolver{
					"old":  auth.ErrSessionExpired,
					"gone": auth.ErrSessionNotFound,
					"down": errors.New("connection refused"),
				},
				Cookies: cookies,
				Metrics: m,
			}))
			app.Get("/", func(c *fiber.Ctx) error {
				return c.SendString(session.UserID(c) + "|" + session.Token(c))
			})

			req := httptest.NewRequest(fiber.MethodGet, "/", nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: cookies.Name(session.SessionCookie), Value: tt.token})
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			if tt.wantUserID != "" {
				assert.Equal(t, tt.wantUserID+"|"+tt.token, string(body))
			} else {
				assert.Equal(t, "|", string(body))
			}

			var got *http.Cookie
			for _, c := range resp.Cookies() {
				if c.Name == cookies.Name(session.SessionCookie) {
					got = c
				}
			}

			if tt.wantCookie == "-" {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, tt.wantCookie, got.Value)
				assert.True(t, got.HttpOnly)
			}

			assert.InDelta(t, 1, testutil.ToFloat64(m.SessionLookups.WithLabelValues(tt.result)), 0)
		})
	}
}
