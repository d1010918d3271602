package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/authgate/authgate/internal/auth"
)

// SigninErrorMessage returns the notice shown on the sign-in page.
func SigninErrorMessage(code auth.ErrorCode) string {
	switch code {
	case "":
		return ""
	case auth.CodeOAuthAccountNotLinked:
		return "To confirm your identity, sign in with the same account you used originally."
	case auth.CodeSessionRequired:
		return "Please sign in to access this page."
	case auth.CodeAccessDenied:
		return "You do not have permission to sign in."
	default:
		return "Try signing in with a different account."
	}
}

// ErrorPage returns the heading, message and status code of the error page.
func ErrorPage(code auth.ErrorCode) (string, string, int) {
	switch code {
	case auth.CodeConfiguration:
		return "Server error", "There is a problem with the server configuration.", fiber.StatusInternalServerError
	case auth.CodeAccessDenied:
		return "Access Denied", "You do not have permission to sign in.", fiber.StatusForbidden
	default:
		return "Error", "Something went wrong while signing you in.", fiber.StatusOK
	}
}

// CSRFToken returns the csrf token of the request.
func CSRFToken(c *fiber.Ctx) string {
	t, _ := c.Locals(CSRFLocalsKey).(string)

	return t
}

// QueryErrorCode returns the code of the error query parameter, empty when it is absent.
func QueryErrorCode(c *fiber.Ctx) auth.ErrorCode {
	v := c.Query("error")
	if v == "" {
		return ""
	}

	return auth.KnownErrorCode(v)
}
