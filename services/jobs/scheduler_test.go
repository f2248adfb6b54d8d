package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSweeper struct {
	calls   int
	expired int
	err     error
}

func (f *fakeSweeper) Sweep(ctx context.Context) (int, error) {
	f.calls++
	return f.expired, f.err
}

type fakeBackups struct {
	calls    int
	err      error
	kept     []int
	pruneErr error
}

func (f *fakeBackups) Run(ctx context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "backups/2026-01-01-x.json", nil
}

func (f *fakeBackups) Prune(ctx context.Context, keep int) (int, error) {
	f.kept = append(f.kept, keep)
	return 0, f.pruneErr
}

func TestNewScheduler(t *testing.T) {
	t.Run("sweep and backup", func(t *testing.T) {
		s, err := NewScheduler(zap.NewNop(), &fakeSweeper{}, &fakeBackups{}, "0 0 * * *", 14)
		require.NoError(t, err)
		assert.Equal(t, 2, s.Jobs())
	})

	t.Run("backup disabled", func(t *testing.T) {
		s, err := NewScheduler(zap.NewNop(), &fakeSweeper{}, &fakeBackups{}, "", 14)
		require.NoError(t, err)
		assert.Equal(t, 1, s.Jobs())
	})

	t.Run("bad backup spec", func(t *testing.T) {
		_, err := NewScheduler(zap.NewNop(), &fakeSweeper{}, &fakeBackups{}, "every night", 14)
		assert.Error(t, err)
	})
}

func TestSchedulerStartStop(t *testing.T) {
	s, err := NewScheduler(zap.NewNop(), &fakeSweeper{}, nil, "", 0)
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestSweepSessions(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	sweeper := &fakeSweeper{expired: 2}
	SweepSessions(context.Background(), sweeper, logger)
	assert.Equal(t, 1, sweeper.calls)
	assert.Equal(t, 1, logs.FilterMessage("expired sessions removed").Len())

	SweepSessions(context.Background(), &fakeSweeper{err: errors.New("db down")}, logger)
	assert.Equal(t, 1, logs.FilterMessage("session sweep failed").Len())

	SweepSessions(context.Background(), &fakeSweeper{}, logger)
	assert.Equal(t, 1, logs.FilterMessage("expired sessions removed").Len())
}

func TestRunBackup(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	backups := &fakeBackups{}
	RunBackup(context.Background(), backups, 7, logger)
	assert.Equal(t, 1, logs.FilterMessage("scheduled backup done").Len())
	assert.Equal(t, []int{7}, backups.kept)

	keepAll := &fakeBackups{}
	RunBackup(context.Background(), keepAll, 0, logger)
	assert.Empty(t, keepAll.kept)

	failed := &fakeBackups{err: errors.New("bucket gone")}
	RunBackup(context.Background(), failed, 7, logger)
	assert.Equal(t, 1, logs.FilterMessage("scheduled backup failed").Len())
	assert.Empty(t, failed.kept)

	RunBackup(context.Background(), &fakeBackups{pruneErr: errors.New("denied")}, 7, logger)
	assert.Equal(t, 1, logs.FilterMessage("backup pruning failed").Len())
}
