package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"obligation_reminder_bot/internal/domain/calendar"
	"obligation_reminder_bot/internal/domain/notification"
	"obligation_reminder_bot/internal/domain/obligation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var march12 = calendar.Today{Year: 2025, Month: 3, Day: 12}

func newCard(ownerID uuid.UUID, title string) *obligation.Obligation {
	return obligation.New(ownerID, title, "1234", 12, 5, obligation.FrequencyMonthly, 0)
}

func resultsByID(results []notification.Result) map[uuid.UUID]notification.Result {
	m := make(map[uuid.UUID]notification.Result, len(results))
	for _, r := range results {
		m[r.ObligationID] = r
	}
	return m
}

// panicChannel and stuckChannel misbehave in ways a mock cannot express.
type panicChannel struct{}

func (panicChannel) Send(context.Context, string, string) error { panic("boom") }

type stuckChannel struct {
	release chan struct{}
	stuck   string
}

func (c *stuckChannel) Send(_ context.Context, recipient, _ string) error {
	if recipient == c.stuck {
		<-c.release
	}
	return nil
}

func TestDispatch_FailureIsIsolated(t *testing.T) {
	ownerA, ownerB, ownerC := uuid.New(), uuid.New(), uuid.New()
	a, b, c := newCard(ownerA, "Banorte"), newCard(ownerB, "BBVA"), newCard(ownerC, "Nu")
	recipients := map[uuid.UUID]string{ownerA: "100", ownerB: "200", ownerC: "300"}

	ch := new(MockChannel)
	ch.On("Send", mock.Anything, "100", mock.Anything).Return(nil)
	ch.On("Send", mock.Anything, "200", mock.Anything).Return(errors.New("chat not found"))
	ch.On("Send", mock.Anything, "300", mock.Anything).Return(nil)

	d := NewDispatcher(ch, nil, DispatcherOptions{Concurrency: 1}, testLogger())
	results := d.Dispatch(context.Background(), march12, []*obligation.Obligation{a, b, c}, recipients)

	require.Len(t, results, 3)
	byID := resultsByID(results)
	assert.True(t, byID[a.ID].Success)
	assert.False(t, byID[b.ID].Success)
	assert.ErrorIs(t, byID[b.ID].Err, notification.ErrNotificationFailed)
	assert.True(t, byID[c.ID].Success)
	ch.AssertNumberOfCalls(t, "Send", 3)
}

func TestDispatch_UnknownRecipient(t *testing.T) {
	o := newCard(uuid.New(), "Banorte")
	ch := new(MockChannel)

	d := NewDispatcher(ch, nil, DispatcherOptions{}, testLogger())
	results := d.Dispatch(context.Background(), march12, []*obligation.Obligation{o}, map[uuid.UUID]string{})

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, notification.ErrRecipientUnknown)
	ch.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_PanicIsRecovered(t *testing.T) {
	ownerID := uuid.New()
	o := newCard(ownerID, "Banorte")

	d := NewDispatcher(panicChannel{}, nil, DispatcherOptions{}, testLogger())
	results := d.Dispatch(context.Background(), march12, []*obligation.Obligation{o}, map[uuid.UUID]string{ownerID: "100"})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.ErrorIs(t, results[0].Err, notification.ErrChannelPanicked)
}

func TestDispatch_TimeoutDoesNotBlockSiblings(t *testing.T) {
	ownerA, ownerB := uuid.New(), uuid.New()
	a, b := newCard(ownerA, "Banorte"), newCard(ownerB, "BBVA")
	ch := &stuckChannel{release: make(chan struct{}), stuck: "100"}
	defer close(ch.release)

	d := NewDispatcher(ch, nil, DispatcherOptions{Concurrency: 2, SendTimeout: 50 * time.Millisecond}, testLogger())
	results := d.Dispatch(context.Background(), march12, []*obligation.Obligation{a, b}, map[uuid.UUID]string{ownerA: "100", ownerB: "200"})

	byID := resultsByID(results)
	assert.False(t, byID[a.ID].Success)
	assert.ErrorIs(t, byID[a.ID].Err, context.DeadlineExceeded)
	assert.True(t, byID[b.ID].Success)
}

func TestDispatch_LedgerSkipsAlreadyNotified(t *testing.T) {
	ownerID := uuid.New()
	o := newCard(ownerID, "Banorte")

	ledger := new(MockLedger)
	ledger.On("Claim", mock.Anything, o.ID, "2025-03").Return(false, nil)
	ch := new(MockChannel)

	d := NewDispatcher(ch, ledger, DispatcherOptions{}, testLogger())
	results := d.Dispatch(context.Background(), march12, []*obligation.Obligation{o}, map[uuid.UUID]string{ownerID: "100"})

	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.NoError(t, results[0].Err)
	ch.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	ledger.AssertExpectations(t)
}

func TestDispatch_LedgerReleasedOnFailure(t *testing.T) {
	ownerID := uuid.New()
	o := newCard(ownerID, "Banorte")

	ledger := new(MockLedger)
	ledger.On("Claim", mock.Anything, o.ID, "2025-03").Return(true, nil)
	ledger.On("Release", mock.Anything, o.ID, "2025-03").Return(nil)
	ch := new(MockChannel)
	ch.On("Send", mock.Anything, "100", mock.Anything).Return(errors.New("telegram down"))

	d := NewDispatcher(ch, ledger, DispatcherOptions{}, testLogger())
	results := d.Dispatch(context.Background(), march12, []*obligation.Obligation{o}, map[uuid.UUID]string{ownerID: "100"})

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, notification.ErrNotificationFailed)
	ledger.AssertExpectations(t)
}

func TestDispatch_CancelledContext(t *testing.T) {
	ownerID := uuid.New()
	list := []*obligation.Obligation{newCard(ownerID, "Banorte"), newCard(ownerID, "BBVA")}
	ch := new(MockChannel)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(ch, nil, DispatcherOptions{}, testLogger())
	results := d.Dispatch(ctx, march12, list, map[uuid.UUID]string{ownerID: "100"})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, notification.ErrDispatchNotAttempted)
	}
	ch.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_EmptyMatch(t *testing.T) {
	d := NewDispatcher(new(MockChannel), nil, DispatcherOptions{}, testLogger())
	assert.Empty(t, d.Dispatch(context.Background(), march12, nil, nil))
}

func TestBuildMessageBody(t *testing.T) {
	o := obligation.New(uuid.New(), "Banorte", "1234", 10, 5, obligation.FrequencyMonthly, 0)
	assert.Equal(t, "🔔 Hoy es el corte de tu tarjeta Banorte **** 1234. Tienes hasta el día 15 para pagar.", BuildMessageBody(o))

	o.Reference = ""
	o.DeadlineOffsetDays = 0
	assert.Equal(t, "🔔 Hoy es el corte de tu tarjeta Banorte.", BuildMessageBody(o))
}
