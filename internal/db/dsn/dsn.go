// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/authgate/authgate/internal/config"
)

// Create builds the Data Source Name for the configured engine.
func Create(dbCfg *config.Config) string {
	switch dbCfg.DB.GormEngine {
	case config.EnginePostgres:
		return postgres(&dbCfg.DB)
	case config.EngineSQLite:
		return sqlite(&dbCfg.DB)
	default:
		return mysql(&dbCfg.DB)
	}
}

func mysql(db *config.DB) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.Extras,
	)
}

// postgres returns a URL form DSN, accepted by both gorm's pgx driver and the
// gofiber postgres storage.
func postgres(db *config.DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:     "/" + db.Name,
		RawQuery: db.Extras,
	}

	return u.String()
}

func sqlite(db *config.DB) string {
	if db.Extras == "" {
		return db.Name
	}

	return db.Name + "?" + db.Extras
}
