package maintenance_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/db/adapter"
	"github.com/authgate/authgate/internal/db/models"
	"github.com/authgate/authgate/internal/db/testdb"
	cronlog "github.com/authgate/authgate/internal/logger/adapter/cron"
	"github.com/authgate/authgate/internal/maintenance"
)

type countingPruner struct {
	calls atomic.Int32
	err   error
}

func (p *countingPruner) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	p.calls.Add(1)
	return 3, p.err
}

func TestNew(t *testing.T) {
	logger := cronlog.New(zerolog.Nop())

	_, err := maintenance.New("", &countingPruner{}, logger)
	require.ErrorIs(t, err, maintenance.ErrEmptySchedule)

	_, err = maintenance.New("not a schedule", &countingPruner{}, logger)
	require.Error(t, err)

	s, err := maintenance.New("@hourly", &countingPruner{}, logger)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestSchedulerRuns(t *testing.T) {
	p := &countingPruner{}

	s, err := maintenance.New("@every 1s", p, cronlog.New(zerolog.Nop()))
	require.NoError(t, err)

	s.Start()
	t.Cleanup(func() { s.Stop(context.Background()) })

	assert.Eventually(t, func() bool { return p.calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
}

func TestPruneNowAgainstDatabase(t *testing.T) {
	a, err := adapter.New(testdb.New(t))
	require.NoError(t, err)

	ctx := context.Background()
	user := &models.User{Name: "Octo"}
	require.NoError(t, a.CreateUser(ctx, user))

	now := time.Now().UTC()
	require.NoError(t, a.CreateSession(ctx, &models.Session{SessionToken: "old", UserID: user.ID, Expires: now.Add(-time.Hour)}))
	require.NoError(t, a.CreateSession(ctx, &models.Session{SessionToken: "new", UserID: user.ID, Expires: now.Add(time.Hour)}))

	s, err := maintenance.New("@hourly", a, cronlog.New(zerolog.Nop()))
	require.NoError(t, err)

	n, err := s.PruneNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPruneError(t *testing.T) {
	p := &countingPruner{err: errors.New("db down")}

	_, err := maintenance.Prune(context.Background(), p, time.Now())
	require.Error(t, err)
}
