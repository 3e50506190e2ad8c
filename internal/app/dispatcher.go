// internal/app/dispatcher.go
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"obligation_reminder_bot/internal/domain/calendar"
	"obligation_reminder_bot/internal/domain/notification"
	"obligation_reminder_bot/internal/domain/obligation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultDispatchConcurrency = 4
	defaultSendTimeout         = 10 * time.Second
)

// DispatcherOptions tunes how matched obligations are sent.
type DispatcherOptions struct {
	Concurrency   int           // max sends in flight
	RatePerSecond float64       // 0 disables pacing
	SendTimeout   time.Duration // per item
}

// Dispatcher sends one message per matched obligation. Items are independent:
// a failure, timeout or panic on one never stops the others.
type Dispatcher struct {
	channel     notification.Channel
	ledger      notification.Ledger // optional
	limiter     *rate.Limiter       // optional
	concurrency int
	sendTimeout time.Duration
	logger      *logrus.Entry
}

func NewDispatcher(ch notification.Channel, ledger notification.Ledger, opts DispatcherOptions, logger *logrus.Entry) *Dispatcher {
	d := &Dispatcher{
		channel:     ch,
		ledger:      ledger,
		concurrency: opts.Concurrency,
		sendTimeout: opts.SendTimeout,
		logger:      logger,
	}
	if d.concurrency <= 0 {
		d.concurrency = defaultDispatchConcurrency
	}
	if d.sendTimeout <= 0 {
		d.sendTimeout = defaultSendTimeout
	}
	if opts.RatePerSecond > 0 {
		burst := int(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return d
}

// Dispatch returns exactly one result per matched obligation, in no
// particular order. recipients maps owner IDs to channel recipients.
func (d *Dispatcher) Dispatch(ctx context.Context, today calendar.Today, matched []*obligation.Obligation, recipients map[uuid.UUID]string) []notification.Result {
	results := make([]notification.Result, len(matched))

	// Each goroutine owns one slot of results, so no locking is needed.
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, o := range matched {
		i, o := i, o
		g.Go(func() error {
			results[i] = d.dispatchOne(ctx, today, o, recipients)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, today calendar.Today, o *obligation.Obligation, recipients map[uuid.UUID]string) notification.Result {
	res := notification.Result{ObligationID: o.ID}
	itemLogger := d.logger.WithFields(logrus.Fields{
		"obligation_id": o.ID,
		"owner_id":      o.OwnerID,
	})

	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("%w: %w", notification.ErrDispatchNotAttempted, err)
		itemLogger.WithError(err).Warn("Run cancelled before dispatch")
		return res
	}

	recipient, ok := recipients[o.OwnerID]
	if !ok || recipient == "" {
		res.Err = notification.ErrRecipientUnknown
		itemLogger.Warn("No recipient registered for owner")
		return res
	}

	period := today.Period()
	if d.ledger != nil {
		claimed, err := d.ledger.Claim(ctx, o.ID, period)
		if err != nil {
			res.Err = fmt.Errorf("%w: claim idempotency key: %v", notification.ErrNotificationFailed, err)
			itemLogger.WithError(err).Error("Failed to claim idempotency key")
			return res
		}
		if !claimed {
			res.Skipped = true
			itemLogger.WithField("period", period).Info("Already notified this period, skipping")
			return res
		}
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			res.Err = fmt.Errorf("%w: %w", notification.ErrDispatchNotAttempted, err)
			d.release(o.ID, period, itemLogger)
			return res
		}
	}

	if err := d.send(ctx, recipient, BuildMessageBody(o)); err != nil {
		res.Err = fmt.Errorf("%w: %w", notification.ErrNotificationFailed, err)
		itemLogger.WithError(err).Error("Failed to send obligation reminder")
		d.release(o.ID, period, itemLogger)
		return res
	}

	res.Success = true
	itemLogger.Info("Obligation reminder sent")
	return res
}

// send bounds one channel call by the per-item timeout. Channels that ignore
// ctx are abandoned on timeout; their goroutine finishes in the background.
func (d *Dispatcher) send(ctx context.Context, recipient, body string) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", notification.ErrChannelPanicked, r)
			}
		}()
		done <- d.channel.Send(sendCtx, recipient, body)
	}()

	select {
	case err := <-done:
		return err
	case <-sendCtx.Done():
		return sendCtx.Err()
	}
}

func (d *Dispatcher) release(id uuid.UUID, period string, itemLogger *logrus.Entry) {
	if d.ledger == nil {
		return
	}
	// The run context may already be cancelled; releasing must still happen.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.ledger.Release(ctx, id, period); err != nil {
		itemLogger.WithError(err).Error("Failed to release idempotency key; obligation stays marked as notified")
	}
}

// BuildMessageBody renders the reminder text from the obligation's label fields.
func BuildMessageBody(o *obligation.Obligation) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 Hoy es el corte de tu tarjeta %s", o.Title))
	if o.Reference != "" {
		b.WriteString(fmt.Sprintf(" **** %s", o.Reference))
	}
	b.WriteString(".")
	if o.DeadlineOffsetDays > 0 {
		b.WriteString(fmt.Sprintf(" Tienes hasta el día %d para pagar.", o.DeadlineDay()))
	}
	return b.String()
}
