// Package bootstrap assembles the daily check from configuration. Both the
// bot and the CLI build their dependencies here.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"obligation_reminder_bot/internal/app"
	"obligation_reminder_bot/internal/domain/calendar"
	"obligation_reminder_bot/internal/domain/notification"
	"obligation_reminder_bot/internal/infra/cache"
	"obligation_reminder_bot/internal/infra/config"
	idb "obligation_reminder_bot/internal/infra/database"
	"obligation_reminder_bot/internal/infra/metrics"
	"obligation_reminder_bot/internal/infra/rabbitmq"
	"obligation_reminder_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	brokerDialRetries = 5
	brokerDialDelay   = 2 * time.Second
)

// Components are the long-lived dependencies shared by the entry points.
type Components struct {
	DB             *sql.DB
	ObligationRepo *idb.PostgresObligationRepository
	OwnerRepo      *idb.PostgresOwnerRepository
	Resolver       *calendar.Resolver
	Metrics        *metrics.Collector
	DailyCheck     *app.DailyCheckService

	closers []func() error
}

// New opens the store and builds the daily check. bot may be nil unless
// NOTIFY_CHANNEL is telegram.
func New(ctx context.Context, cfg *config.AppConfig, bot *telebot.Bot, logger *logrus.Logger) (*Components, error) {
	c := &Components{}

	resolver, err := calendar.LoadResolver(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	c.Resolver = resolver

	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	c.DB = db
	c.closers = append(c.closers, db.Close)
	c.ObligationRepo = idb.NewPostgresObligationRepository(db)
	c.OwnerRepo = idb.NewPostgresOwnerRepository(db)

	channel, err := c.buildChannel(cfg, bot)
	if err != nil {
		c.Close()
		return nil, err
	}
	ledger, err := c.buildLedger(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	dispatcher := app.NewDispatcher(channel, ledger, app.DispatcherOptions{
		Concurrency:   cfg.DispatchConcurrency,
		RatePerSecond: cfg.DispatchRatePerSecond,
		SendTimeout:   cfg.DispatchSendTimeout,
	}, logger.WithField("component", "dispatcher"))

	c.Metrics = metrics.NewCollector()
	c.DailyCheck = app.NewDailyCheckService(
		c.ObligationRepo,
		c.OwnerRepo,
		dispatcher,
		resolver,
		c.Metrics,
		logger.WithField("component", "daily_check"),
	)

	logger.WithFields(logrus.Fields{
		"timezone":            resolver.Location().String(),
		"notify_channel":      cfg.NotifyChannel,
		"idempotency_backend": cfg.IdempotencyBackend,
	}).Info("Daily check assembled")
	return c, nil
}

func (c *Components) buildChannel(cfg *config.AppConfig, bot *telebot.Bot) (notification.Channel, error) {
	switch cfg.NotifyChannel {
	case config.NotifyChannelAMQP:
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, brokerDialRetries, brokerDialDelay)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, conn.Close)
		ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQExchange)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, ch.Close)
		return rabbitmq.NewChannel(ch, cfg.RabbitMQExchange, cfg.RabbitMQRoutingKey), nil
	default:
		if bot == nil {
			return nil, errors.New("telegram notify channel requires a bot")
		}
		return telegram.NewTelebotAdapter(bot), nil
	}
}

func (c *Components) buildLedger(ctx context.Context, cfg *config.AppConfig) (notification.Ledger, error) {
	switch cfg.IdempotencyBackend {
	case config.IdempotencyNone:
		return nil, nil
	case config.IdempotencyRedis:
		client, err := cache.InitClient(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, client.Close)
		return cache.NewRedisLedger(client, cache.DefaultLedgerTTL), nil
	default:
		return idb.NewPostgresNotificationLedger(c.DB), nil
	}
}

// Close releases everything New opened, newest first.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("bootstrap.Close: %w", errors.Join(errs...))
	}
	return nil
}
