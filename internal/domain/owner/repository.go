package owner

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting and retrieving Owner entities.
type Repository interface {
	Create(ctx context.Context, owner *Owner) error
	GetByID(ctx context.Context, id uuid.UUID) (*Owner, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*Owner, error)
	Update(ctx context.Context, owner *Owner) error // name and plan limit
	ListAll(ctx context.Context) ([]*Owner, error)
}
