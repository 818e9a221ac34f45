package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/contractbot/contract-reminder/internal/repository"
	"github.com/contractbot/contract-reminder/internal/services/reminder"
	"github.com/contractbot/contract-reminder/internal/services/sheetsync"
)

// dailyRunName keys the persisted stamp of the last completed daily run.
const dailyRunName = "reminder-daily"

// Scheduler drives sheet sync and the reminder pipeline on three
// independent triggers: the sync interval, the daily check and an
// hourly safety net for the case where the process was down at the
// daily hour. Missed daily runs are coalesced into a single catch-up
// via the persisted run stamp. A tick that lands while the previous
// job is still running is skipped rather than queued.
type Scheduler struct {
	cron         *cron.Cron
	reminders    *reminder.Service
	sync         *sheetsync.Service
	runs         repository.RunRepository
	loc          *time.Location
	logger       *slog.Logger
	dailyHour    int
	syncInterval time.Duration
}

func New(reminders *reminder.Service, sync *sheetsync.Service, runs repository.RunRepository, loc *time.Location, dailyHour int, syncInterval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := &cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		reminders:    reminders,
		sync:         sync,
		runs:         runs,
		loc:          loc,
		logger:       logger,
		dailyHour:    dailyHour,
		syncInterval: syncInterval,
	}
}

// Start registers the triggers and launches the cron loop. A catch-up
// reminder run fires immediately when the most recent daily tick was
// missed while the process was down.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.sync.Enabled() {
		spec := fmt.Sprintf("@every %s", s.syncInterval)
		if _, err := s.cron.AddFunc(spec, func() {
			s.sync.Sync(ctx, false)
		}); err != nil {
			return err
		}
	}

	daily := fmt.Sprintf("0 %d * * *", s.dailyHour)
	if _, err := s.cron.AddFunc(daily, func() { s.RunOnce(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 1h", func() { s.RunOnce(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		"daily_hour", s.dailyHour,
		"sync_enabled", s.sync.Enabled(),
	)

	if s.needsCatchUp(ctx, time.Now().In(s.loc)) {
		s.logger.Info("daily reminder run was missed, catching up")
		go s.RunOnce(ctx)
	}
	return nil
}

// Stop halts the trigger loop; running jobs finish on their own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

// RunOnce is the combined job: sync the sheet when configured, then an
// unforced reminder pass. Errors are absorbed and logged; a scheduled
// run must never take the process down.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.sync.Enabled() {
		s.sync.Sync(ctx, false)
	}
	result, err := s.reminders.Run(ctx, false)
	if err != nil {
		s.logger.Error("reminder run finished with failures",
			"processed", result.Processed,
			"notified", result.Notified,
			"skipped", result.Skipped,
			"error", err,
		)
	} else {
		s.logger.Info("reminder run done",
			"processed", result.Processed,
			"notified", result.Notified,
			"skipped", result.Skipped,
		)
	}
	if err := s.runs.Stamp(ctx, dailyRunName, time.Now()); err != nil {
		s.logger.Warn("failed to stamp reminder run", "error", err)
	}
}

// needsCatchUp reports whether the most recent due daily tick happened
// with no completed run after it. Only the latest tick is considered,
// so any number of missed days coalesces into one catch-up run.
func (s *Scheduler) needsCatchUp(ctx context.Context, now time.Time) bool {
	lastRun, ok, err := s.runs.LastRun(ctx, dailyRunName)
	if err != nil {
		s.logger.Warn("failed to load run stamp", "error", err)
		return false
	}
	due := previousDailyTick(now, s.dailyHour)
	return !ok || lastRun.Before(due)
}

// previousDailyTick is the most recent occurrence of the daily hour at
// or before now.
func previousDailyTick(now time.Time, hour int) time.Time {
	tick := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if tick.After(now) {
		tick = tick.AddDate(0, 0, -1)
	}
	return tick
}

// cronLogger adapts slog to the cron.Logger interface so job panics
// land in the structured log.
type cronLogger struct {
	logger *slog.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{"error", err}, keysAndValues...)
	l.logger.Error(msg, args...)
}
