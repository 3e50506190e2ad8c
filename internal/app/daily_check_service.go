// internal/app/daily_check_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"obligation_reminder_bot/internal/domain/calendar"
	"obligation_reminder_bot/internal/domain/notification"
	"obligation_reminder_bot/internal/domain/obligation"
	"obligation_reminder_bot/internal/domain/owner"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DailyChecker is the single entry point fired once per day by a scheduler.
type DailyChecker interface {
	RunDailyCheck(ctx context.Context, now time.Time) (*notification.Report, error)
}

// RunObserver receives the outcome of every daily check, e.g. for metrics.
type RunObserver interface {
	ObserveRun(report *notification.Report, err error, elapsed time.Duration)
}

// DailyCheckService implements DailyChecker.
type DailyCheckService struct {
	obligationRepo obligation.Repository
	ownerRepo      owner.Repository
	dispatcher     *Dispatcher
	resolver       *calendar.Resolver
	validator      *obligation.Validator
	observer       RunObserver // optional
	logger         *logrus.Entry
}

func NewDailyCheckService(
	or obligation.Repository,
	ownr owner.Repository,
	dispatcher *Dispatcher,
	resolver *calendar.Resolver,
	observer RunObserver,
	logger *logrus.Entry,
) *DailyCheckService {
	return &DailyCheckService{
		obligationRepo: or,
		ownerRepo:      ownr,
		dispatcher:     dispatcher,
		resolver:       resolver,
		validator:      obligation.NewValidator(),
		observer:       observer,
		logger:         logger,
	}
}

// RunDailyCheck resolves today, fetches every obligation once, resets paid
// flags on a cycle boundary and notifies the obligations due today.
// Store failures abort the run before any message is sent; everything else is
// recovered per item and aggregated into the report.
func (s *DailyCheckService) RunDailyCheck(ctx context.Context, now time.Time) (*notification.Report, error) {
	started := time.Now()
	report, err := s.run(ctx, now)
	if s.observer != nil {
		s.observer.ObserveRun(report, err, time.Since(started))
	}
	return report, err
}

func (s *DailyCheckService) run(ctx context.Context, now time.Time) (*notification.Report, error) {
	today := s.resolver.Resolve(now)
	runLogger := s.logger.WithField("date", today.String())
	runLogger.Info("Starting daily obligation check")

	// 1. Single bulk read
	all, err := s.obligationRepo.ListAll(ctx)
	if err != nil {
		runLogger.WithError(err).Error("Failed to fetch obligations")
		return nil, fmt.Errorf("%w: fetch obligations: %w", notification.ErrStoreUnavailable, err)
	}
	owners, err := s.ownerRepo.ListAll(ctx)
	if err != nil {
		runLogger.WithError(err).Error("Failed to fetch owners")
		return nil, fmt.Errorf("%w: fetch owners: %w", notification.ErrStoreUnavailable, err)
	}
	recipients := make(map[uuid.UUID]string, len(owners))
	for _, o := range owners {
		recipients[o.ID] = o.Recipient()
	}

	report := &notification.Report{
		Date:    today.String(),
		Period:  today.Period(),
		Fetched: len(all),
	}

	// 2. Skip malformed records
	valid, rejected := s.validator.Partition(all)
	for _, rejErr := range rejected {
		runLogger.WithError(rejErr).Warn("Skipping malformed obligation")
	}
	report.Malformed = len(rejected)

	// 3. Match against the snapshot before the reset touches it. Matching does
	// not read the paid flag, so the order of the two effects does not matter.
	matched := obligation.Match(valid, today.Day, today.Month)
	report.Matched = len(matched)

	// 4. Cycle reset, persisted before any send
	if reset := obligation.ResetIfBoundary(today.Day, valid); len(reset) > 0 {
		ids := make([]uuid.UUID, 0, len(reset))
		for _, o := range reset {
			ids = append(ids, o.ID)
		}
		if err := s.obligationRepo.ResetPaidFlags(ctx, ids); err != nil {
			runLogger.WithError(err).Error("Failed to persist cycle reset")
			return nil, fmt.Errorf("%w: reset paid flags: %w", notification.ErrStoreUnavailable, err)
		}
		report.Reset = len(ids)
		runLogger.WithField("reset_count", len(ids)).Info("Cleared paid flags for new monthly cycle")
	}

	if len(matched) == 0 {
		runLogger.Info("No obligations due today")
		return report, nil
	}

	// 5. Dispatch
	runLogger.WithField("matched_count", len(matched)).Info("Dispatching reminders")
	report.Results = s.dispatcher.Dispatch(ctx, today, matched, recipients)
	report.Tally()

	s.warnOnMissedLongCycles(runLogger, matched, report.Results)

	runLogger.WithFields(logrus.Fields{
		"matched":  report.Matched,
		"notified": report.Notified,
		"failed":   report.Failed,
		"skipped":  report.Skipped,
	}).Info("Daily obligation check finished")
	return report, nil
}

// warnOnMissedLongCycles flags failed bimonthly/annual reminders: unlike
// monthly ones they will not come around again until their next target month.
func (s *DailyCheckService) warnOnMissedLongCycles(runLogger *logrus.Entry, matched []*obligation.Obligation, results []notification.Result) {
	failed := make(map[uuid.UUID]error, len(results))
	for _, r := range results {
		if !r.Success && !r.Skipped {
			failed[r.ObligationID] = r.Err
		}
	}
	for _, o := range matched {
		err, ok := failed[o.ID]
		if !ok || o.Frequency == obligation.FrequencyMonthly {
			continue
		}
		runLogger.WithFields(logrus.Fields{
			"obligation_id": o.ID,
			"frequency":     o.Frequency,
			"target_month":  o.TargetMonth,
		}).WithError(err).Warn("Reminder for long-cycle obligation failed; next chance is its next qualifying month unless the check is re-run today")
	}
}
