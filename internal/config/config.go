// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	// JSONEnv holds a JSON document merged over the TOML file.
	JSONEnv = "AUTHGATE_CONFIG_JSON"

	// DefaultBasePath is the mount path of the auth routes.
	DefaultBasePath = "/api/auth"

	defaultMaxAge        = 30 * 24 * time.Hour
	defaultUpdateAge     = 24 * time.Hour
	defaultShutDownTime  = 5
	defaultKVTable       = "authgate_kv"
	defaultRedisPrefix   = "authgate"
	defaultCheckAlive    = "/checkalive"
	invalidErrMessage    = "invalid config"
	sessionStrategyDBKey = "database"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(JSONEnv)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	if err = applyEnv(&c); err != nil {
		return c, err
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// setDefaults fills optional settings left empty by the config file.
func setDefaults(c *Config) {
	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.CheckAlive == "" {
		c.Webserver.CheckAlive = defaultCheckAlive
	}

	if c.DB.GormEngine == "" {
		c.DB.GormEngine = EngineMySQL
	}

	if c.Auth.BasePath == "" {
		c.Auth.BasePath = DefaultBasePath
	}

	if c.Auth.Session.Strategy == "" {
		c.Auth.Session.Strategy = sessionStrategyDBKey
	}

	if c.Auth.Session.MaxAge == 0 {
		c.Auth.Session.MaxAge = defaultMaxAge
	}

	if c.Auth.Session.UpdateAge == nil {
		updateAge := c.Auth.Session.UpdateInterval()
		c.Auth.Session.UpdateAge = &updateAge
	}

	if c.KV.Driver == "" {
		c.KV.Driver = "memory"
	}

	if c.KV.Table == "" {
		c.KV.Table = defaultKVTable
	}

	if c.KV.Redis.Prefix == "" {
		c.KV.Redis.Prefix = defaultRedisPrefix
	}
}

// validate fills defaults and checks the settings authgate can not start without.
func validate(c *Config) error {
	setDefaults(c)

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	// the public url is the base of every oauth redirect url
	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	// the shipped main.toml carries no secret, it has to come from AUTH_SECRET
	if c.Auth.Secret == "" {
		return errors.Wrap(ErrEmptySecret, invalidErrMessage)
	}

	if !c.Auth.GitHub.Enabled && !c.Auth.Google.Enabled {
		return errors.Wrap(ErrNoProviderEnabled, invalidErrMessage)
	}

	if c.KV.Driver == "redis" && c.KV.Redis.Addr == "" {
		return errors.Wrap(ErrRedisAddrEmpty, invalidErrMessage)
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	return nil
}
