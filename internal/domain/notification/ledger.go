package notification

import (
	"context"

	"github.com/google/uuid"
)

// Ledger records which obligations were already notified in a period so that
// overlapping or retried daily checks do not send duplicates.
type Ledger interface {
	// Claim reserves (obligationID, period). It returns false when the pair was
	// already claimed by an earlier run.
	Claim(ctx context.Context, obligationID uuid.UUID, period string) (bool, error)
	// Release drops a claim so a failed send can be retried by a later run.
	Release(ctx context.Context, obligationID uuid.UUID, period string) error
}
