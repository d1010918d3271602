package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/authgate/authgate/internal/db/models"
)

// SignInStart is the outcome of BeginSignIn.
type SignInStart struct {
	// URL is the authorization url of the provider.
	URL string
	// Check must be stored in the oauth check cookie until the callback.
	Check        string
	CheckExpires time.Time
}

// CallbackParams are the query parameters the provider redirected back with.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// SignInResult is the outcome of CompleteSignIn.
type SignInResult struct {
	// SessionToken is the token for the session cookie. It equals the token passed
	// in when an already signed-in user linked another account.
	SessionToken string
	Expires      time.Time
	RedirectURL  string
	User         *models.User
	IsNewUser    bool
}

// BeginSignIn starts the authorization code flow for the provider. callbackURL is where
// the user lands after signing in, it is sanitized through the Redirect callback.
func (a *Auth) BeginSignIn(providerID, callbackURL string) (*SignInStart, error) {
	p, ok := a.providers[providerID]
	if !ok {
		return nil, newError(CodeOAuthSignin, fmt.Errorf("%w: %s", ErrUnknownProvider, providerID))
	}

	state, err := GenerateStateToken()
	if err != nil {
		return nil, newError(CodeOAuthSignin, err)
	}

	verifier := oauth2.GenerateVerifier()

	check, expires, err := a.signCheck(checkClaims{
		Provider:    providerID,
		State:       state,
		Verifier:    verifier,
		CallbackURL: a.RedirectURL(callbackURL),
	})
	if err != nil {
		return nil, newError(CodeOAuthSignin, err)
	}

	return &SignInStart{
		URL:          p.AuthCodeURL(state, verifier, a.CallbackURL(providerID)),
		Check:        check,
		CheckExpires: expires,
	}, nil
}

// CompleteSignIn handles the provider callback. check is the value of the oauth check
// cookie and sessionToken the current session cookie, empty when signed out.
func (a *Auth) CompleteSignIn(
	ctx context.Context,
	providerID string,
	params CallbackParams,
	check, sessionToken string,
) (*SignInResult, error) {
	p, ok := a.providers[providerID]
	if !ok {
		return nil, newError(CodeOAuthCallback, fmt.Errorf("%w: %s", ErrUnknownProvider, providerID))
	}

	if params.Error != "" {
		return nil, newError(CodeOAuthCallback,
			fmt.Errorf("%w: %s %s", ErrProviderError, params.Error, params.ErrorDescription))
	}

	claims, err := a.verifyCheck(check, providerID, params.State)
	if err != nil {
		return nil, newError(CodeOAuthCallback, err)
	}

	if params.Code == "" {
		return nil, newError(CodeOAuthCallback, ErrMissingCode)
	}

	tokens, err := p.Exchange(ctx, params.Code, claims.Verifier, a.CallbackURL(providerID))
	if err != nil {
		return nil, newError(CodeOAuthCallback, err)
	}

	profile, err := p.Profile(ctx, tokens)
	if err != nil {
		return nil, newError(CodeOAuthCallback, err)
	}

	if profile.ID == "" {
		return nil, newError(CodeOAuthCallback, ErrEmptyProfile)
	}

	account := newAccount(p, profile, tokens)

	result, err := a.handleLogin(ctx, p, profile, account, sessionToken)
	if err != nil {
		return nil, err
	}

	result.RedirectURL = claims.CallbackURL

	return result, nil
}

func newAccount(p Provider, profile *Profile, tokens *Tokens) *models.Account {
	account := &models.Account{
		Type:              p.Type(),
		Provider:          p.ID(),
		ProviderAccountID: profile.ID,
		AccessToken:       tokens.AccessToken,
		RefreshToken:      tokens.RefreshToken,
		TokenType:         tokens.TokenType,
		Scope:             tokens.Scope,
		IDToken:           tokens.IDToken,
	}

	if !tokens.Expiry.IsZero() {
		account.ExpiresAt = tokens.Expiry.Unix()
	}

	return account
}

// handleLogin links or creates the user for the provider account and opens a session.
func (a *Auth) handleLogin(
	ctx context.Context,
	p Provider,
	profile *Profile,
	account *models.Account,
	sessionToken string,
) (*SignInResult, error) {
	adapter := a.opts.Adapter

	current, err := a.currentSession(ctx, sessionToken)
	if err != nil {
		return nil, newError(CodeCallback, err)
	}

	existing, err := adapter.GetUserByAccount(ctx, account.Provider, account.ProviderAccountID)
	if err != nil {
		return nil, newError(CodeCallback, err)
	}

	candidate := existing
	if candidate == nil {
		candidate = userFromProfile(profile)
	}

	if err = a.allowSignIn(ctx, SignInParams{User: candidate, Account: account, Profile: profile}); err != nil {
		return nil, err
	}

	switch {
	case existing != nil && current != nil:
		if current.UserID != existing.ID {
			return nil, newError(CodeOAuthAccountNotLinked, ErrAccountNotLinked)
		}

		// signed in again with an already linked account
		return a.finish(ctx, account, profile, &SignInResult{
			SessionToken: current.SessionToken,
			Expires:      current.Expires,
			User:         existing,
		})
	case existing != nil:
		if err = a.refreshProfile(ctx, existing, profile); err != nil {
			return nil, newError(CodeCallback, err)
		}

		return a.startSession(ctx, account, profile, existing, false)
	case current != nil:
		if err = a.linkAccount(ctx, current.User, account); err != nil {
			return nil, newError(CodeOAuthCreateAccount, err)
		}

		return a.finish(ctx, account, profile, &SignInResult{
			SessionToken: current.SessionToken,
			Expires:      current.Expires,
			User:         current.User,
		})
	}

	byEmail, err := adapter.GetUserByEmail(ctx, profile.Email)
	if err != nil {
		return nil, newError(CodeCallback, err)
	}

	if byEmail != nil {
		if !p.AllowDangerousEmailAccountLinking() {
			return nil, newError(CodeOAuthAccountNotLinked, ErrAccountNotLinked)
		}

		if err = a.linkAccount(ctx, byEmail, account); err != nil {
			return nil, newError(CodeOAuthCreateAccount, err)
		}

		return a.startSession(ctx, account, profile, byEmail, false)
	}

	user := userFromProfile(profile)
	if err = adapter.CreateUser(ctx, user); err != nil {
		return nil, newError(CodeOAuthCreateAccount, err)
	}

	if a.opts.Events.CreateUser != nil {
		a.opts.Events.CreateUser(ctx, user)
	}

	if err = a.linkAccount(ctx, user, account); err != nil {
		return nil, newError(CodeOAuthCreateAccount, err)
	}

	return a.startSession(ctx, account, profile, user, true)
}

// currentSession returns the valid session of sessionToken, nil when signed out.
func (a *Auth) currentSession(ctx context.Context, sessionToken string) (*models.Session, error) {
	if sessionToken == "" {
		return nil, nil
	}

	s, err := a.opts.Adapter.GetSessionAndUser(ctx, sessionToken)
	if err != nil || s == nil {
		return nil, err
	}

	if s.Expired(a.now()) {
		return nil, nil
	}

	return s, nil
}

func (a *Auth) allowSignIn(ctx context.Context, params SignInParams) error {
	if a.opts.Callbacks.SignIn == nil {
		return nil
	}

	ok, err := a.opts.Callbacks.SignIn(ctx, params)
	if err != nil {
		return newError(CodeAccessDenied, errors.Join(ErrSignInDenied, err))
	}

	if !ok {
		return newError(CodeAccessDenied, ErrSignInDenied)
	}

	return nil
}

func (a *Auth) linkAccount(ctx context.Context, user *models.User, account *models.Account) error {
	account.UserID = user.ID
	if err := a.opts.Adapter.LinkAccount(ctx, account); err != nil {
		return err
	}

	if a.opts.Events.LinkAccount != nil {
		a.opts.Events.LinkAccount(ctx, user, account)
	}

	return nil
}

// refreshProfile stores a changed name or avatar of a returning user.
func (a *Auth) refreshProfile(ctx context.Context, user *models.User, profile *Profile) error {
	changed := false

	if profile.Name != "" && profile.Name != user.Name {
		user.Name = profile.Name
		changed = true
	}

	if profile.Image != "" && profile.Image != user.Image {
		user.Image = profile.Image
		changed = true
	}

	if !changed {
		return nil
	}

	return a.opts.Adapter.UpdateUser(ctx, user)
}

func (a *Auth) startSession(
	ctx context.Context,
	account *models.Account,
	profile *Profile,
	user *models.User,
	isNewUser bool,
) (*SignInResult, error) {
	token, err := a.opts.GenerateSessionToken()
	if err != nil {
		return nil, newError(CodeCallback, err)
	}

	session := &models.Session{
		SessionToken: token,
		UserID:       user.ID,
		Expires:      a.now().Add(a.opts.Session.MaxAge),
	}

	if err = a.opts.Adapter.CreateSession(ctx, session); err != nil {
		return nil, newError(CodeCallback, err)
	}

	return a.finish(ctx, account, profile, &SignInResult{
		SessionToken: token,
		Expires:      session.Expires,
		User:         user,
		IsNewUser:    isNewUser,
	})
}

func (a *Auth) finish(
	ctx context.Context,
	account *models.Account,
	profile *Profile,
	result *SignInResult,
) (*SignInResult, error) {
	if account.UserID == "" {
		account.UserID = result.User.ID
	}

	if a.opts.Events.SignIn != nil {
		a.opts.Events.SignIn(ctx, SignInEvent{
			User:      result.User,
			Account:   account,
			Profile:   profile,
			IsNewUser: result.IsNewUser,
		})
	}

	return result, nil
}

func userFromProfile(profile *Profile) *models.User {
	user := &models.User{
		Name:  profile.Name,
		Image: profile.Image,
	}

	if profile.Email != "" {
		email := profile.Email
		user.Email = &email
	}

	return user
}
