package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // Resolve TIMEZONE even on hosts without a zoneinfo database

	"obligation_reminder_bot/internal/app"
	"obligation_reminder_bot/internal/infra/bootstrap"
	"obligation_reminder_bot/internal/infra/config"
	idb "obligation_reminder_bot/internal/infra/database"
	"obligation_reminder_bot/internal/infra/logger"
	"obligation_reminder_bot/internal/infra/metrics"
	"obligation_reminder_bot/internal/infra/scheduler"
	"obligation_reminder_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	if err := cfg.RequireBot(); err != nil {
		logger.Log.Fatalf("Invalid bot configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"admin_id":    cfg.AdminTelegramID,
	}).Info("Obligation reminder bot starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"text":      c.Text(),
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}

	components, err := bootstrap.New(ctx, cfg, bot, logger.Log)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not assemble application")
	}
	defer components.Close()

	if err := idb.Migrate(components.DB); err != nil {
		mainLogger.WithError(err).Fatal("Could not apply database migrations")
	}
	mainLogger.Info("Database schema is up to date.")

	obligationService := app.NewObligationService(components.ObligationRepo, components.OwnerRepo, components.Resolver, logger.Component("obligation_service"))
	adminService := app.NewAdminService(components.OwnerRepo, cfg.AdminTelegramID, cfg.DefaultMaxActiveObligations)

	// Register Handlers
	handlerLogger := logger.Component("telegram")
	telegram.RegisterBotCommands(ctx, bot, cfg.AdminTelegramID, components.OwnerRepo, handlerLogger)
	telegram.RegisterAdminHandlers(ctx, bot, adminService, components.DailyCheck, cfg.AdminTelegramID, handlerLogger)
	telegram.RegisterObligationHandlers(ctx, bot, obligationService, components.OwnerRepo, handlerLogger)
	mainLogger.Info("Telegram handlers registered.")

	dailyScheduler := scheduler.NewDailyCheckScheduler(
		components.DailyCheck,
		logger.Component("scheduler"),
		components.Resolver.Location(),
		cfg.CronSpecDailyCheck,
		cfg.DailyCheckTimeout,
	)
	if err := dailyScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start scheduler")
	}

	if cfg.MetricsAddr != "" {
		go func() {
			router := metrics.NewRouter(components.Metrics, components.DB)
			if err := metrics.Serve(ctx, cfg.MetricsAddr, router, logger.Component("metrics")); err != nil {
				mainLogger.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()
	mainLogger.Info("Application setup complete. Bot and scheduler are running.")

	<-ctx.Done()

	mainLogger.Info("Shutting down application...")
	dailyScheduler.Stop()
	bot.Stop()
	mainLogger.Info("Application shut down gracefully.")
}
