package handler

import "errors"

// ErrNilDependency is returned by Init when app, cfg or auth is nil.
var ErrNilDependency = errors.New("app, cfg or auth is nil")
