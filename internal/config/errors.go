package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrEmptySecret error if neither config auth.secret nor AUTH_SECRET is set.
	ErrEmptySecret = errors.New("toml config auth.secret can not be empty, set AUTH_SECRET")

	// ErrNoProviderEnabled error if neither GitHub nor Google sign in is enabled.
	ErrNoProviderEnabled = errors.New("toml config auth: at least one oauth provider must be enabled")

	// ErrRedisAddrEmpty error if the redis kv driver is selected without an address.
	ErrRedisAddrEmpty = errors.New("toml config kv.redis.addr can not be empty when kv.driver is redis")
)
