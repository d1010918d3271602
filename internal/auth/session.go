package auth

import "context"

// GetSession resolves a session token. Expired sessions are deleted and reported as
// ErrSessionExpired. A session is extended to now + MaxAge once UpdateAge has passed
// since its last extension.
func (a *Auth) GetSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	adapter := a.opts.Adapter

	stored, err := adapter.GetSessionAndUser(ctx, token)
	if err != nil {
		return nil, newError(CodeCallback, err)
	}

	if stored == nil {
		return nil, ErrSessionNotFound
	}

	now := a.now()

	if stored.Expired(now) {
		if _, err = adapter.DeleteSession(ctx, token); err != nil {
			return nil, newError(CodeCallback, err)
		}

		return nil, ErrSessionExpired
	}

	dueAt := stored.Expires.Add(-a.opts.Session.MaxAge).Add(a.opts.Session.UpdateAge)
	if !dueAt.After(now) {
		updated, err := adapter.UpdateSession(ctx, token, now.Add(a.opts.Session.MaxAge))
		if err != nil {
			return nil, newError(CodeCallback, err)
		}

		stored.Expires = updated.Expires
	}

	session := &Session{
		User: &SessionUser{
			Name:  stored.User.Name,
			Email: stored.User.EmailAddress(),
			Image: stored.User.Image,
		},
		Expires: stored.Expires,
	}

	if a.opts.Callbacks.Session != nil {
		session, err = a.opts.Callbacks.Session(ctx, SessionParams{Session: session, User: stored.User})
		if err != nil {
			return nil, newError(CodeCallback, err)
		}
	}

	if a.opts.Events.Session != nil {
		a.opts.Events.Session(ctx, session)
	}

	return session, nil
}

// SignOut deletes the session of token. Unknown tokens are ignored.
func (a *Auth) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	deleted, err := a.opts.Adapter.DeleteSession(ctx, token)
	if err != nil {
		return newError(CodeCallback, err)
	}

	if deleted != nil && a.opts.Events.SignOut != nil {
		a.opts.Events.SignOut(ctx, deleted)
	}

	return nil
}
