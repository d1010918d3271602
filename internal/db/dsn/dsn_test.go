package dsn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/db/dsn"
)

func TestCreate(t *testing.T) {
	tests := []struct {
		name string
		db   config.DB
		want string
	}{
		{
			name: "mysql",
			db: config.DB{
				GormEngine: config.EngineMySQL,
				Host:       "localhost",
				Port:       3306,
				User:       "auth",
				Password:   "secret",
				Name:       "authgate",
				Extras:     "parseTime=true",
			},
			want: "auth:secret@tcp(localhost:3306)/authgate?parseTime=true",
		},
		{
			name: "postgres escapes the password",
			db: config.DB{
				GormEngine: config.EnginePostgres,
				Host:       "db",
				Port:       5432,
				User:       "auth",
				Password:   "p@ss word",
				Name:       "authgate",
				Extras:     "sslmode=disable",
			},
			want: "postgres://auth:p%40ss%20word@db:5432/authgate?sslmode=disable",
		},
		{
			name: "sqlite with pragma",
			db: config.DB{
				GormEngine: config.EngineSQLite,
				Name:       "authgate.db",
				Extras:     "_pragma=foreign_keys(1)",
			},
			want: "authgate.db?_pragma=foreign_keys(1)",
		},
		{
			name: "sqlite plain",
			db:   config.DB{GormEngine: config.EngineSQLite, Name: "file::memory:"},
			want: "file::memory:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dsn.Create(&config.Config{DB: tt.db}))
		})
	}
}
