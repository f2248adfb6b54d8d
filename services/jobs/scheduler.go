package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionSweepSpec runs the session timeout poll once a minute
const SessionSweepSpec = "@every 1m"

// jobTimeout bounds a single job run
const jobTimeout = 5 * time.Minute

// SessionSweeper discards expired persisted sessions
type SessionSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// BackupRunner writes one backup and returns where it went.
// Prune drops the oldest backups beyond keep.
type BackupRunner interface {
	Run(ctx context.Context) (string, error)
	Prune(ctx context.Context, keep int) (int, error)
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler registers the session sweep and, when backupSpec is set, the backup job.
// Each backup run keeps the newest retention backups (0 keeps all).
func NewScheduler(logger *zap.Logger, sweeper SessionSweeper, backups BackupRunner, backupSpec string, retention int) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(time.Local))
	s := &Scheduler{cron: c, logger: logger}

	if _, err := c.AddFunc(SessionSweepSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		SweepSessions(ctx, sweeper, logger)
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	if backups != nil && backupSpec != "" {
		if _, err := c.AddFunc(backupSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			RunBackup(ctx, backups, retention, logger)
		}); err != nil {
			return nil, fmt.Errorf("failed to schedule backup %q: %w", backupSpec, err)
		}
	}

	return s, nil
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", s.Jobs()))
}

// Stop stops scheduling and waits for running jobs up to ctx's deadline
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

// SweepSessions runs one session sweep
func SweepSessions(ctx context.Context, sweeper SessionSweeper, logger *zap.Logger) {
	expired, err := sweeper.Sweep(ctx)
	if err != nil {
		logger.Error("session sweep failed", zap.Error(err))
		return
	}
	if expired > 0 {
		logger.Info("expired sessions removed", zap.Int("count", expired))
	}
}

// RunBackup runs one backup, then prunes down to keep backups
func RunBackup(ctx context.Context, backups BackupRunner, keep int, logger *zap.Logger) {
	key, err := backups.Run(ctx)
	if err != nil {
		logger.Error("scheduled backup failed", zap.Error(err))
		return
	}
	logger.Info("scheduled backup done", zap.String("key", key))

	if keep <= 0 {
		return
	}
	if _, err := backups.Prune(ctx, keep); err != nil {
		logger.Error("backup pruning failed", zap.Error(err))
	}
}
