// Package kv selects the storage backing short-lived web state such as csrf tokens.
package kv

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	mysqlstorage "github.com/gofiber/storage/mysql/v2"
	postgresstorage "github.com/gofiber/storage/postgres/v3"
	"github.com/redis/go-redis/v9"

	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/db/dsn"
)

// Drivers.
const (
	DriverMemory   = "memory"
	DriverDatabase = "database"
	DriverRedis    = "redis"
)

var (
	// ErrUnknownDriver is returned for an unsupported kv driver.
	ErrUnknownDriver = errors.New("unknown kv driver")
	// ErrUnsupportedEngine is returned when the database driver is used with sqlite.
	ErrUnsupportedEngine = errors.New("database kv driver needs mysql or postgres")
	// ErrStorageInit is returned when a storage backend could not connect.
	ErrStorageInit = errors.New("failed to initialize kv storage")
)

// New returns the configured storage. The memory driver returns nil, which makes the
// fiber middlewares fall back to their in-process storage.
func New(cfg *config.Config) (fiber.Storage, error) {
	switch cfg.KV.Driver {
	case DriverMemory, "":
		return nil, nil
	case DriverRedis:
		return NewRedis(redis.NewClient(&redis.Options{
			Addr:     cfg.KV.Redis.Addr,
			Password: cfg.KV.Redis.Password,
			DB:       cfg.KV.Redis.DB,
		}), cfg.KV.Redis.Prefix), nil
	case DriverDatabase:
		return database(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.KV.Driver)
	}
}

func database(cfg *config.Config) (fiber.Storage, error) {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return guard(func() fiber.Storage {
			return mysqlstorage.New(mysqlstorage.Config{
				ConnectionURI: dsn.Create(cfg),
				Table:         cfg.KV.Table,
			})
		})
	case config.EnginePostgres:
		return guard(func() fiber.Storage {
			return postgresstorage.New(postgresstorage.Config{
				ConnectionURI: dsn.Create(cfg),
				Table:         cfg.KV.Table,
			})
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, cfg.DB.GormEngine)
	}
}

// guard turns the connect panics of the gofiber storages into an error.
func guard(open func() fiber.Storage) (s fiber.Storage, err error) {
	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = fmt.Errorf("%w: %v", ErrStorageInit, r)
		}
	}()

	return open(), nil
}
