// internal/app/obligation_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"obligation_reminder_bot/internal/domain/calendar"
	"obligation_reminder_bot/internal/domain/obligation"
	"obligation_reminder_bot/internal/domain/owner"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ObligationView pairs an obligation with its deadline state for listing.
type ObligationView struct {
	Obligation *obligation.Obligation
	Grace      obligation.Grace
}

// NewObligationInput carries the user-supplied fields of a new obligation.
type NewObligationInput struct {
	Title              string
	Reference          string
	TriggerDay         int
	DeadlineOffsetDays int
	Frequency          obligation.Frequency
	TargetMonth        int
}

// ObligationService handles user actions on obligations. Every action is
// scoped to the owner performing it.
type ObligationService struct {
	obligationRepo obligation.Repository
	ownerRepo      owner.Repository
	resolver       *calendar.Resolver
	validator      *obligation.Validator
	now            func() time.Time
	logger         *logrus.Entry
}

func NewObligationService(or obligation.Repository, ownr owner.Repository, resolver *calendar.Resolver, logger *logrus.Entry) *ObligationService {
	return &ObligationService{
		obligationRepo: or,
		ownerRepo:      ownr,
		resolver:       resolver,
		validator:      obligation.NewValidator(),
		now:            time.Now,
		logger:         logger,
	}
}

// Create registers a new active obligation, enforcing the owner's plan limit.
func (s *ObligationService) Create(ctx context.Context, ownerID uuid.UUID, in NewObligationInput) (*obligation.Obligation, error) {
	ownr, err := s.ownerRepo.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner %s: %w", ownerID, err)
	}

	o := obligation.New(ownerID, in.Title, in.Reference, in.TriggerDay, in.DeadlineOffsetDays, in.Frequency, in.TargetMonth)
	if err := s.validator.Check(o); err != nil {
		return nil, err
	}

	active, err := s.obligationRepo.CountActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count active obligations: %w", err)
	}
	limit := ownr.MaxActiveObligations
	if limit <= 0 {
		limit = owner.DefaultMaxActiveObligations
	}
	if active >= limit {
		return nil, &obligation.PlanLimitError{Limit: limit}
	}

	if err := s.obligationRepo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create obligation: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"obligation_id": o.ID,
		"owner_id":      ownerID,
		"trigger_day":   o.TriggerDay,
		"frequency":     o.Frequency,
	}).Info("Obligation created")
	return o, nil
}

// ListForOwner returns the owner's non-closed obligations ordered by trigger
// day, each with its grace state for today.
func (s *ObligationService) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]ObligationView, error) {
	list, err := s.obligationRepo.FetchByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch obligations for owner %s: %w", ownerID, err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].TriggerDay < list[j].TriggerDay })

	views := make([]ObligationView, 0, len(list))
	for _, o := range list {
		if o.IsClosed() {
			continue
		}
		views = append(views, s.View(o))
	}
	return views, nil
}

// View computes o's grace state for today without touching the store.
func (s *ObligationService) View(o *obligation.Obligation) ObligationView {
	today := s.resolver.Resolve(s.now())
	return ObligationView{Obligation: o, Grace: obligation.GraceStateOf(o, today.Day)}
}

// MarkPaid flags the obligation's current cycle as paid.
func (s *ObligationService) MarkPaid(ctx context.Context, ownerID, id uuid.UUID) (*obligation.Obligation, error) {
	now := s.now()
	return s.apply(ctx, ownerID, id, "mark_paid", func(o *obligation.Obligation) (obligation.Patch, error) {
		return o.MarkPaid(now)
	})
}

// Toggle pauses an active obligation or resumes a paused one.
func (s *ObligationService) Toggle(ctx context.Context, ownerID, id uuid.UUID) (*obligation.Obligation, error) {
	return s.apply(ctx, ownerID, id, "toggle", (*obligation.Obligation).Toggle)
}

// Close permanently retires the obligation.
func (s *ObligationService) Close(ctx context.Context, ownerID, id uuid.UUID) (*obligation.Obligation, error) {
	return s.apply(ctx, ownerID, id, "close", (*obligation.Obligation).Close)
}

func (s *ObligationService) apply(ctx context.Context, ownerID, id uuid.UUID, action string, transition func(*obligation.Obligation) (obligation.Patch, error)) (*obligation.Obligation, error) {
	actionLogger := s.logger.WithFields(logrus.Fields{
		"action":        action,
		"obligation_id": id,
		"owner_id":      ownerID,
	})

	o, err := s.obligationRepo.GetForOwner(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, obligation.ErrObligationNotFound) {
			actionLogger.Warn("Obligation not found for owner")
			return nil, err
		}
		return nil, fmt.Errorf("failed to get obligation %s: %w", id, err)
	}

	patch, err := transition(o)
	if err != nil {
		actionLogger.WithError(err).Warn("Transition rejected")
		return nil, err
	}

	if err := s.obligationRepo.UpdateFields(ctx, id, patch); err != nil {
		actionLogger.WithError(err).Error("Failed to persist transition")
		return nil, fmt.Errorf("failed to update obligation %s: %w", id, err)
	}
	actionLogger.WithField("status", o.Status).Info("Obligation updated")
	return o, nil
}
