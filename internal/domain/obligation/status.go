package obligation

import (
	"database/sql"
	"fmt"
	"time"
)

// Toggle moves an obligation between active and paused and returns the patch
// to persist. Closed obligations are rejected.
func (o *Obligation) Toggle() (Patch, error) {
	var next Status
	switch o.Status {
	case StatusActive:
		next = StatusPaused
	case StatusPaused:
		next = StatusActive
	case StatusClosed:
		return Patch{}, ErrObligationClosed
	default:
		return Patch{}, fmt.Errorf("%w: unknown status %q", ErrMalformedObligation, o.Status)
	}
	o.Status = next
	return Patch{Status: &next}, nil
}

// Close moves an active or paused obligation to the terminal closed state.
// The paid flag is left as is; only the cycle reset clears it.
func (o *Obligation) Close() (Patch, error) {
	if o.IsClosed() {
		return Patch{}, ErrObligationClosed
	}
	closed := StatusClosed
	o.Status = closed
	return Patch{Status: &closed}, nil
}

// MarkPaid flags the current cycle as paid. It is not a status transition and
// is allowed while paused, but never on a closed obligation.
func (o *Obligation) MarkPaid(now time.Time) (Patch, error) {
	if o.IsClosed() {
		return Patch{}, ErrObligationClosed
	}
	paid := true
	lastPaid := sql.NullTime{Time: now, Valid: true}
	o.IsPaidCurrentCycle = paid
	o.LastPaidAt = lastPaid
	return Patch{IsPaidCurrentCycle: &paid, LastPaidAt: &lastPaid}, nil
}
