// Package daemon assembles the database, the auth configuration, the web service and
// the maintenance jobs.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/authgate/authgate/internal/authconfig"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/db"
	"github.com/authgate/authgate/internal/db/adapter"
	"github.com/authgate/authgate/internal/kv"
	cronlog "github.com/authgate/authgate/internal/logger/adapter/cron"
	"github.com/authgate/authgate/internal/maintenance"
	"github.com/authgate/authgate/internal/metrics"
	"github.com/authgate/authgate/internal/web"
)

// stopTimeout bounds the wait for a running prune on shutdown.
const stopTimeout = 30 * time.Second

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	webService *web.Service
	scheduler  *maintenance.Scheduler
}

// Start starts the maintenance jobs and the web service, then blocks until shutdown.
func (d *Daemon) Start() error {
	if d.scheduler != nil {
		d.scheduler.Start()
	}

	go func() {
		if err := d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port)); err != nil {
			log.Error().Err(err).Msg("web service stopped")
		}
	}()

	d.webService.WaitShutdown()

	if d.scheduler != nil {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()

		d.scheduler.Stop(ctx)
	}

	if sqlDB, err := d.db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	return nil
}

// New creates a new Daemon instance with the provided configuration.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err = db.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	a, err := authconfig.New(ctx, cfg, gdb, m)
	if err != nil {
		return nil, fmt.Errorf("auth configuration: %w", err)
	}

	storage, err := kv.New(cfg)
	if err != nil {
		return nil, err
	}

	webService, err := web.New(cfg, a, storage, m, prometheus.DefaultGatherer)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:        cfg,
		db:         gdb,
		webService: webService,
	}

	if cfg.Maintenance.PruneSchedule != "" {
		dbAdapter, err := adapter.New(gdb)
		if err != nil {
			return nil, err
		}

		d.scheduler, err = maintenance.New(cfg.Maintenance.PruneSchedule, dbAdapter, cronlog.New(log.Logger))
		if err != nil {
			return nil, fmt.Errorf("prune schedule: %w", err)
		}
	}

	return d, nil
}
