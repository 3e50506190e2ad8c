package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresNotificationLedger records which obligations were notified in which
// period, backed by the notification_log table.
type PostgresNotificationLedger struct {
	db *sql.DB
}

func NewPostgresNotificationLedger(db *sql.DB) *PostgresNotificationLedger {
	return &PostgresNotificationLedger{db: db}
}

// Claim inserts the (obligation, period) key. It reports false when the key
// already exists, meaning an earlier run sent or is sending this reminder.
func (l *PostgresNotificationLedger) Claim(ctx context.Context, obligationID uuid.UUID, period string) (bool, error) {
	query := `INSERT INTO notification_log (obligation_id, period)
               VALUES ($1, $2)
               ON CONFLICT (obligation_id, period) DO NOTHING`
	res, err := l.db.ExecContext(ctx, query, obligationID, period)
	if err != nil {
		return false, fmt.Errorf("error claiming notification %s/%s: %w", obligationID, period, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error getting rows affected for claim: %w", err)
	}
	return n == 1, nil
}

func (l *PostgresNotificationLedger) Release(ctx context.Context, obligationID uuid.UUID, period string) error {
	query := `DELETE FROM notification_log WHERE obligation_id = $1 AND period = $2`
	if _, err := l.db.ExecContext(ctx, query, obligationID, period); err != nil {
		return fmt.Errorf("error releasing notification %s/%s: %w", obligationID, period, err)
	}
	return nil
}
