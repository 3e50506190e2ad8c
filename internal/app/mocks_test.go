package app

import (
	"context"
	"io"

	"obligation_reminder_bot/internal/domain/obligation"
	"obligation_reminder_bot/internal/domain/owner"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type MockObligationRepository struct {
	mock.Mock
}

func (m *MockObligationRepository) Create(ctx context.Context, o *obligation.Obligation) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockObligationRepository) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*obligation.Obligation, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*obligation.Obligation), args.Error(1)
}

func (m *MockObligationRepository) FetchByOwner(ctx context.Context, ownerID uuid.UUID) ([]*obligation.Obligation, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*obligation.Obligation), args.Error(1)
}

func (m *MockObligationRepository) CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

func (m *MockObligationRepository) UpdateFields(ctx context.Context, id uuid.UUID, patch obligation.Patch) error {
	return m.Called(ctx, id, patch).Error(0)
}

func (m *MockObligationRepository) ListAll(ctx context.Context) ([]*obligation.Obligation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*obligation.Obligation), args.Error(1)
}

func (m *MockObligationRepository) ResetPaidFlags(ctx context.Context, ids []uuid.UUID) error {
	return m.Called(ctx, ids).Error(0)
}

type MockOwnerRepository struct {
	mock.Mock
}

func (m *MockOwnerRepository) Create(ctx context.Context, o *owner.Owner) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOwnerRepository) GetByID(ctx context.Context, id uuid.UUID) (*owner.Owner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*owner.Owner), args.Error(1)
}

func (m *MockOwnerRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*owner.Owner, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*owner.Owner), args.Error(1)
}

func (m *MockOwnerRepository) Update(ctx context.Context, o *owner.Owner) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOwnerRepository) ListAll(ctx context.Context) ([]*owner.Owner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*owner.Owner), args.Error(1)
}

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Send(ctx context.Context, recipient, body string) error {
	return m.Called(ctx, recipient, body).Error(0)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Claim(ctx context.Context, obligationID uuid.UUID, period string) (bool, error) {
	args := m.Called(ctx, obligationID, period)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedger) Release(ctx context.Context, obligationID uuid.UUID, period string) error {
	return m.Called(ctx, obligationID, period).Error(0)
}
