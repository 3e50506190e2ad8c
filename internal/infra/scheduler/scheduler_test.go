package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"obligation_reminder_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDailyChecker struct {
	mock.Mock
}

func (m *MockDailyChecker) RunDailyCheck(ctx context.Context, now time.Time) (*notification.Report, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Report), args.Error(1)
}

func newTestScheduler(checker *MockDailyChecker, spec string) *DailyCheckScheduler {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewDailyCheckScheduler(checker, logrus.NewEntry(l), time.UTC, spec, time.Minute)
}

func TestRunOnce_PassesBoundedContextAndClock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	checker := new(MockDailyChecker)
	checker.On("RunDailyCheck", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), fixed).Return(&notification.Report{Date: "2025-03-01"}, nil).Once()

	s := newTestScheduler(checker, "0 9 * * *")
	s.now = func() time.Time { return fixed }
	s.RunOnce(context.Background())

	checker.AssertExpectations(t)
}

func TestRunOnce_ErrorIsSwallowed(t *testing.T) {
	checker := new(MockDailyChecker)
	checker.On("RunDailyCheck", mock.Anything, mock.Anything).Return(nil, errors.New("store down"))

	s := newTestScheduler(checker, "0 9 * * *")

	assert.NotPanics(t, func() { s.RunOnce(context.Background()) })
	checker.AssertNumberOfCalls(t, "RunDailyCheck", 1)
}

func TestStart_InvalidSpec(t *testing.T) {
	s := newTestScheduler(new(MockDailyChecker), "not a cron spec")
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler(new(MockDailyChecker), "0 9 * * *")
	require.NoError(t, s.Start())
	s.Stop()
}
