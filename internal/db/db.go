// Package db opens the application database and migrates the auth schema.
package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/db/dsn"
	"github.com/authgate/authgate/internal/db/models"
	gormlog "github.com/authgate/authgate/internal/logger/adapter/gorm"
)

// ErrUnknownEngine is returned for an unsupported gorm engine.
var ErrUnknownEngine = errors.New("unknown database engine")

// Dialector returns the gorm driver for the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL, "":
		return gormmysql.Open(dsn.Create(cfg)), nil
	case config.EnginePostgres:
		return gormpostgres.Open(dsn.Create(cfg)), nil
	case config.EngineSQLite:
		return sqlite.Open(dsn.Create(cfg)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, cfg.DB.GormEngine)
	}
}

// Open connects to the configured database.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	slow := time.Duration(cfg.Log.SlowQueryThreshold) * time.Millisecond

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlog.New(log.Logger, slow),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.DB.GormEngine == config.EngineSQLite {
		// sqlite allows a single writer
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}

		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates or updates the users, accounts and sessions tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Session{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
