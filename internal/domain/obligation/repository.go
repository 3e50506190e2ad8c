package obligation

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting and retrieving obligations.
// Reads and writes made on behalf of a user are scoped to the owner.
type Repository interface {
	Create(ctx context.Context, o *Obligation) error
	GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Obligation, error)
	FetchByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Obligation, error) // excludes closed
	CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	UpdateFields(ctx context.Context, id uuid.UUID, patch Patch) error

	// ListAll is the single bulk read of the daily check.
	ListAll(ctx context.Context) ([]*Obligation, error)
	// ResetPaidFlags unconditionally clears is_paid_current_cycle for the given ids.
	ResetPaidFlags(ctx context.Context, ids []uuid.UUID) error
}
