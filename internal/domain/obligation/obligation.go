// internal/domain/obligation/obligation.go
package obligation

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Frequency says how often, in calendar terms, an obligation recurs.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyBimonthly Frequency = "bimonthly"
	FrequencyAnnually  Frequency = "annually"
)

// Status is the lifecycle state of an obligation.
type Status string

const (
	StatusActive Status = "active" // initial state
	StatusPaused Status = "paused"
	StatusClosed Status = "closed" // terminal, stands in for deletion
)

var (
	ErrObligationNotFound  = errors.New("obligation not found")
	ErrObligationClosed    = errors.New("obligation is closed")
	ErrMalformedObligation = errors.New("malformed obligation")
	ErrPlanLimitReached    = errors.New("active obligation limit reached for owner's plan")
)

// PlanLimitError reports the limit that was applied when an owner's plan is full.
// It matches ErrPlanLimitReached under errors.Is.
type PlanLimitError struct {
	Limit int
}

func (e *PlanLimitError) Error() string {
	return fmt.Sprintf("%s (max %d)", ErrPlanLimitReached, e.Limit)
}

func (e *PlanLimitError) Unwrap() error { return ErrPlanLimitReached }

// Obligation is one tracked recurring payment, e.g. a credit card billing cycle.
// Corresponds to the 'obligations' table.
type Obligation struct {
	ID                 uuid.UUID `validate:"required"`
	OwnerID            uuid.UUID `validate:"required"`
	Title              string    `validate:"required"` // bank name
	Reference          string    // last four digits or free text
	TriggerDay         int       `validate:"min=1,max=31"` // cut-off day of month
	DeadlineOffsetDays int       `validate:"min=0"`        // grace days after TriggerDay
	Frequency          Frequency `validate:"oneof=monthly bimonthly annually"`
	TargetMonth        int       // 1..12 unless monthly; ignored for monthly
	Status             Status    `validate:"oneof=active paused closed"`
	IsPaidCurrentCycle bool
	LastPaidAt         sql.NullTime
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// New returns an active, unpaid obligation with a fresh ID.
func New(ownerID uuid.UUID, title, reference string, triggerDay, offsetDays int, freq Frequency, targetMonth int) *Obligation {
	if freq == "" {
		freq = FrequencyMonthly
	}
	return &Obligation{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		Title:              title,
		Reference:          reference,
		TriggerDay:         triggerDay,
		DeadlineOffsetDays: offsetDays,
		Frequency:          freq,
		TargetMonth:        targetMonth,
		Status:             StatusActive,
	}
}

// DeadlineDay is the hard payment day within the trigger month. It may exceed
// the length of the month; no rollover is applied.
func (o *Obligation) DeadlineDay() int {
	return o.TriggerDay + o.DeadlineOffsetDays
}

// IsClosed reports whether the obligation reached its terminal state.
func (o *Obligation) IsClosed() bool {
	return o.Status == StatusClosed
}

// Patch is a partial update. Nil fields are left untouched by the store.
type Patch struct {
	Status             *Status
	IsPaidCurrentCycle *bool
	LastPaidAt         *sql.NullTime
}

// IsEmpty reports whether the patch carries no field changes.
func (p Patch) IsEmpty() bool {
	return p.Status == nil && p.IsPaidCurrentCycle == nil && p.LastPaidAt == nil
}
