// Package maintenance runs the periodic cleanup of expired sessions.
package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ErrEmptySchedule is returned by New without a schedule.
var ErrEmptySchedule = errors.New("empty prune schedule")

// pruneTimeout bounds a single prune run.
const pruneTimeout = time.Minute

// Pruner deletes sessions that expired at or before now.
type Pruner interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler prunes expired sessions on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	pruner Pruner
	now    func() time.Time
}

// New parses schedule (standard cron spec or a descriptor like @hourly).
func New(schedule string, pruner Pruner, logger cron.Logger) (*Scheduler, error) {
	if schedule == "" {
		return nil, ErrEmptySchedule
	}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		pruner: pruner,
		now:    time.Now,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, err
	}

	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for a running prune until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// PruneNow deletes the expired sessions and returns how many were removed.
func (s *Scheduler) PruneNow(ctx context.Context) (int64, error) {
	return Prune(ctx, s.pruner, s.now())
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	if _, err := s.PruneNow(ctx); err != nil {
		log.Error().Err(err).Msg("failed to prune expired sessions")
	}
}

// Prune deletes the sessions expired at now and logs the result.
func Prune(ctx context.Context, pruner Pruner, now time.Time) (int64, error) {
	n, err := pruner.DeleteExpiredSessions(ctx, now)
	if err != nil {
		return 0, err
	}

	log.Info().Int64("sessions", n).Msg("pruned expired sessions")

	return n, nil
}
