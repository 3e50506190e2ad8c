package app

import (
	"context"
	"errors"
	"fmt"

	"obligation_reminder_bot/internal/domain/owner"

	"github.com/google/uuid"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrOwnerAlreadyExists = fmt.Errorf("owner with this Telegram ID already exists")

type AdminService struct {
	ownerRepo       owner.Repository
	adminTelegramID int64
	defaultMaxCards int
}

func NewAdminService(or owner.Repository, adminID int64, defaultMaxActive int) *AdminService {
	if defaultMaxActive <= 0 {
		defaultMaxActive = owner.DefaultMaxActiveObligations
	}
	return &AdminService{
		ownerRepo:       or,
		adminTelegramID: adminID,
		defaultMaxCards: defaultMaxActive,
	}
}

// IsAdmin reports whether the Telegram user is the configured admin.
func (s *AdminService) IsAdmin(telegramID int64) bool {
	return telegramID == s.adminTelegramID
}

// AddOwner registers a new owner. maxActive <= 0 applies the default plan limit.
func (s *AdminService) AddOwner(ctx context.Context, performingAdminID int64, telegramID int64, name string, maxActive int) (*owner.Owner, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}

	// Check if owner already exists by Telegram ID
	_, err := s.ownerRepo.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return nil, ErrOwnerAlreadyExists
	}
	if !errors.Is(err, owner.ErrOwnerNotFound) {
		return nil, fmt.Errorf("failed to check existing owner: %w", err)
	}

	if maxActive <= 0 {
		maxActive = s.defaultMaxCards
	}
	newOwner := &owner.Owner{
		ID:                   uuid.New(),
		TelegramID:           telegramID,
		Name:                 name,
		MaxActiveObligations: maxActive,
	}
	if err := s.ownerRepo.Create(ctx, newOwner); err != nil {
		if errors.Is(err, owner.ErrDuplicateTelegramID) {
			return nil, ErrOwnerAlreadyExists
		}
		return nil, fmt.Errorf("failed to create owner in repository: %w", err)
	}
	return newOwner, nil
}

// SetPlanLimit changes how many active obligations an owner may keep.
func (s *AdminService) SetPlanLimit(ctx context.Context, performingAdminID int64, telegramID int64, maxActive int) (*owner.Owner, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	if maxActive <= 0 {
		return nil, fmt.Errorf("plan limit must be positive, got %d", maxActive)
	}

	target, err := s.ownerRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, owner.ErrOwnerNotFound) {
			return nil, owner.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to get owner by Telegram ID: %w", err)
	}

	target.MaxActiveObligations = maxActive
	if err := s.ownerRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update owner plan limit: %w", err)
	}
	return target, nil
}

// ListOwners returns every registered owner.
func (s *AdminService) ListOwners(ctx context.Context, performingAdminID int64) ([]*owner.Owner, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.ownerRepo.ListAll(ctx)
}
