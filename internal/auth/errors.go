package auth

import "errors"

// ErrorCode is the user facing reason of a failed auth operation. It is passed to the
// sign-in and error pages as the error query parameter.
type ErrorCode string

const (
	// CodeConfiguration means the server is misconfigured.
	CodeConfiguration ErrorCode = "Configuration"
	// CodeAccessDenied means the sign-in callback rejected the user.
	CodeAccessDenied ErrorCode = "AccessDenied"
	// CodeOAuthSignin means the authorization request could not be built.
	CodeOAuthSignin ErrorCode = "OAuthSignin"
	// CodeOAuthCallback means the provider response could not be handled.
	CodeOAuthCallback ErrorCode = "OAuthCallback"
	// CodeOAuthCreateAccount means the user or account could not be persisted.
	CodeOAuthCreateAccount ErrorCode = "OAuthCreateAccount"
	// CodeOAuthAccountNotLinked means the email already belongs to another account.
	CodeOAuthAccountNotLinked ErrorCode = "OAuthAccountNotLinked"
	// CodeCallback means a callback or adapter call failed.
	CodeCallback ErrorCode = "Callback"
	// CodeSessionRequired means the page needs a signed-in user.
	CodeSessionRequired ErrorCode = "SessionRequired"
	// CodeDefault is used for everything else.
	CodeDefault ErrorCode = "Default"
)

var (
	// ErrMissingSecret is returned by New without a secret.
	ErrMissingSecret = errors.New("secret is required")
	// ErrMissingAdapter is returned by New without an adapter.
	ErrMissingAdapter = errors.New("adapter is required")
	// ErrUnsupportedStrategy is returned for session strategies other than database.
	ErrUnsupportedStrategy = errors.New("unsupported session strategy")
	// ErrDuplicateProvider is returned when two providers share an id.
	ErrDuplicateProvider = errors.New("duplicate provider id")
	// ErrInvalidBaseURL is returned when the base url is not absolute.
	ErrInvalidBaseURL = errors.New("base url must be absolute")
	// ErrUnknownProvider is returned for a provider id that is not configured.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNoIDToken is returned when the token response of an OIDC provider lacks an id_token.
	ErrNoIDToken = errors.New("no id_token in token response")
	// ErrProviderError is returned when the provider redirected back with an error.
	ErrProviderError = errors.New("provider returned an error")
	// ErrMissingCode is returned when the callback carries no authorization code.
	ErrMissingCode = errors.New("missing authorization code")
	// ErrInvalidCheck is returned when the oauth check cookie is missing, expired or tampered with.
	ErrInvalidCheck = errors.New("invalid oauth check")
	// ErrStateMismatch is returned when the state parameter differs from the one issued.
	ErrStateMismatch = errors.New("state mismatch")
	// ErrEmptyProfile is returned when the provider reported no account id.
	ErrEmptyProfile = errors.New("profile without account id")

	// ErrSignInDenied is returned when the sign-in callback rejects the user.
	ErrSignInDenied = errors.New("sign in denied")
	// ErrAccountNotLinked is returned when the provider account can not be linked to the user.
	ErrAccountNotLinked = errors.New("account is linked to another user")

	// ErrSessionNotFound is returned for unknown session tokens.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned for sessions past their expiry. The session is deleted.
	ErrSessionExpired = errors.New("session expired")
)

// Error carries the code shown to the user together with the underlying cause.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}

	return string(e.Code) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}

// ErrorCodeOf returns the code carried by err, CodeDefault for foreign errors and
// an empty code for nil.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return CodeDefault
}

// KnownErrorCode maps an error query parameter to a known code, CodeDefault otherwise.
func KnownErrorCode(s string) ErrorCode {
	switch c := ErrorCode(s); c {
	case CodeConfiguration, CodeAccessDenied, CodeOAuthSignin, CodeOAuthCallback,
		CodeOAuthCreateAccount, CodeOAuthAccountNotLinked, CodeCallback, CodeSessionRequired:
		return c
	default:
		return CodeDefault
	}
}
