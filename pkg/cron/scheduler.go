// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ArchivePurger removes archived runs older than a cutoff
type ArchivePurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// HistoryPurger removes run records older than a cutoff
type HistoryPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	retention time.Duration
	archive   ArchivePurger
	history   HistoryPurger
	logger    *slog.Logger
	now       func() time.Time
}

// NewScheduler creates a retention scheduler. history may be nil when no database is configured.
func NewScheduler(schedule string, retention time.Duration, archive ArchivePurger, history HistoryPurger, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		schedule:  schedule,
		retention: retention,
		archive:   archive,
		history:   history,
		logger:    logger,
		now:       time.Now,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.sweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("schedule", s.schedule),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the retention sweep.
func (s *Scheduler) RunNow() {
	go s.sweep()
}

// sweep deletes archives and run records past the retention window.
func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	s.logger.Info("starting archive retention sweep", slog.Time("cutoff", cutoff))

	purged, err := s.archive.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to purge archive", slog.Any("error", err))
	}

	var deleted int64
	if s.history != nil {
		deleted, err = s.history.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			s.logger.Error("failed to delete run history", slog.Any("error", err))
		}
	}

	s.logger.Info("archive retention sweep completed",
		slog.Int("runs_purged", purged),
		slog.Int64("records_deleted", deleted),
	)
}
