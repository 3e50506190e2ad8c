package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLedgerTTL outlives a billing period so a key is still present on
// every re-run within its month.
const DefaultLedgerTTL = 40 * 24 * time.Hour

type Options struct {
	Addr     string
	Password string
	DB       int
}

// InitClient connects to Redis and pings it.
func InitClient(ctx context.Context, opts Options) (*redis.Client, error) {
	const op = "cache.InitClient"
	db := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

// RedisLedger is a notification ledger on SETNX keys that expire on their own.
type RedisLedger struct {
	db  *redis.Client
	ttl time.Duration
}

func NewRedisLedger(db *redis.Client, ttl time.Duration) *RedisLedger {
	if ttl <= 0 {
		ttl = DefaultLedgerTTL
	}
	return &RedisLedger{db: db, ttl: ttl}
}

func ledgerKey(obligationID uuid.UUID, period string) string {
	return fmt.Sprintf("obligation:notified:%s:%s", period, obligationID)
}

func (l *RedisLedger) Claim(ctx context.Context, obligationID uuid.UUID, period string) (bool, error) {
	const op = "cache.RedisLedger.Claim"
	ok, err := l.db.SetNX(ctx, ledgerKey(obligationID, period), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

func (l *RedisLedger) Release(ctx context.Context, obligationID uuid.UUID, period string) error {
	const op = "cache.RedisLedger.Release"
	if err := l.db.Del(ctx, ledgerKey(obligationID, period)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
