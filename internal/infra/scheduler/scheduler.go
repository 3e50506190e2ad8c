package scheduler

import (
	"context"
	"fmt"
	"time"

	"obligation_reminder_bot/internal/app" // For DailyChecker interface

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DailyCheckScheduler fires the daily obligation check on a cron schedule.
type DailyCheckScheduler struct {
	cronEngine *cron.Cron
	checker    app.DailyChecker
	logger     *logrus.Entry
	cronSpec   string
	runTimeout time.Duration
	now        func() time.Time
}

func NewDailyCheckScheduler(
	checker app.DailyChecker,
	logger *logrus.Entry,
	loc *time.Location, // the timezone "today" is resolved in
	cronSpec string, // e.g., "0 9 * * *" (9 AM daily)
	runTimeout time.Duration,
) *DailyCheckScheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &DailyCheckScheduler{
		cronEngine: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		checker:    checker,
		logger:     logger,
		cronSpec:   cronSpec,
		runTimeout: runTimeout,
		now:        time.Now,
	}
}

func (s *DailyCheckScheduler) Start() error {
	s.logger.WithField("cron_spec", s.cronSpec).Info("Starting daily check scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for daily obligation check.")
		s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("could not add daily check cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Daily check scheduler started.")
	return nil
}

// RunOnce executes one daily check bounded by the run timeout. Errors are
// logged, never propagated; the next firing is the retry.
func (s *DailyCheckScheduler) RunOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.runTimeout)
	defer cancel()

	report, err := s.checker.RunDailyCheck(ctx, s.now())
	if err != nil {
		s.logger.WithError(err).Error("Daily obligation check failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"date":     report.Date,
		"matched":  report.Matched,
		"notified": report.Notified,
		"failed":   report.Failed,
		"skipped":  report.Skipped,
		"reset":    report.Reset,
	}).Info("Daily obligation check completed")
}

func (s *DailyCheckScheduler) Stop() {
	s.logger.Info("Stopping daily check scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Daily check scheduler gracefully stopped.")
}
