package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/go-playground/validator"
	"github.com/joho/godotenv"
)

const (
	NotifyChannelTelegram = "telegram"
	NotifyChannelAMQP     = "amqp"

	IdempotencyPostgres = "postgres"
	IdempotencyRedis    = "redis"
	IdempotencyNone     = "none"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string
	DatabaseURL     string `validate:"required"`
	AdminTelegramID int64
	LogLevel        string
	Environment     string

	Timezone                    string
	CronSpecDailyCheck          string        `validate:"required"`
	DailyCheckTimeout           time.Duration `validate:"gt=0"`
	DispatchConcurrency         int           `validate:"min=1"`
	DispatchRatePerSecond       float64       `validate:"min=0"`
	DispatchSendTimeout         time.Duration `validate:"gt=0"`
	DefaultMaxActiveObligations int           `validate:"min=1"`

	NotifyChannel      string `validate:"oneof=telegram amqp"`
	RabbitMQURL        string
	RabbitMQExchange   string
	RabbitMQRoutingKey string

	IdempotencyBackend string `validate:"oneof=postgres redis none"`
	RedisAddr          string
	RedisPassword      string
	RedisDB            int `validate:"min=0"`

	MetricsAddr string // empty disables the metrics endpoint
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))
	cfg.Timezone = getEnv("TIMEZONE", "America/Mexico_City")
	cfg.CronSpecDailyCheck = getEnv("CRON_SPEC_DAILY_CHECK", "0 9 * * *") // Default: 9 AM daily

	if cfg.DailyCheckTimeout, err = getEnvDuration("DAILY_CHECK_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DispatchConcurrency, err = getEnvInt("DISPATCH_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.DispatchRatePerSecond, err = getEnvFloat("DISPATCH_RATE_PER_SECOND", 20); err != nil {
		return nil, err
	}
	if cfg.DispatchSendTimeout, err = getEnvDuration("DISPATCH_SEND_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.DefaultMaxActiveObligations, err = getEnvInt("DEFAULT_MAX_ACTIVE_OBLIGATIONS", 5); err != nil {
		return nil, err
	}

	cfg.NotifyChannel = strings.ToLower(getEnv("NOTIFY_CHANNEL", NotifyChannelTelegram))
	cfg.RabbitMQURL = os.Getenv("RABBITMQ_URL")
	cfg.RabbitMQExchange = getEnv("RABBITMQ_EXCHANGE", "notifications")
	cfg.RabbitMQRoutingKey = getEnv("RABBITMQ_ROUTING_KEY", "obligation.due")

	cfg.IdempotencyBackend = strings.ToLower(getEnv("IDEMPOTENCY_BACKEND", IdempotencyPostgres))
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.NotifyChannel == NotifyChannelAMQP && cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is not set but NOTIFY_CHANNEL is %s", NotifyChannelAMQP)
	}
	if cfg.IdempotencyBackend == IdempotencyRedis && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is not set but IDEMPOTENCY_BACKEND is %s", IdempotencyRedis)
	}
	return cfg, nil
}

// RequireBot checks the settings only the Telegram bot process needs.
func (c *AppConfig) RequireBot() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is not set")
	}
	if c.AdminTelegramID == 0 {
		return fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
