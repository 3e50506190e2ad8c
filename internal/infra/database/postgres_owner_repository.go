package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"obligation_reminder_bot/internal/domain/owner"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type PostgresOwnerRepository struct {
	db *sql.DB
}

func NewPostgresOwnerRepository(db *sql.DB) *PostgresOwnerRepository {
	return &PostgresOwnerRepository{db: db}
}

func (r *PostgresOwnerRepository) Create(ctx context.Context, o *owner.Owner) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	query := `INSERT INTO owners (id, telegram_id, name, max_active_obligations)
               VALUES ($1, $2, $3, $4)
               RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, o.ID, o.TelegramID, o.Name, o.MaxActiveObligations).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return owner.ErrDuplicateTelegramID
		}
		return fmt.Errorf("error creating owner: %w", err)
	}
	return nil
}

func (r *PostgresOwnerRepository) GetByID(ctx context.Context, id uuid.UUID) (*owner.Owner, error) {
	query := `SELECT id, telegram_id, name, max_active_obligations, created_at, updated_at
               FROM owners WHERE id = $1`
	o, err := scanOwner(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, owner.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("error getting owner by ID: %w", err)
	}
	return o, nil
}

func (r *PostgresOwnerRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*owner.Owner, error) {
	query := `SELECT id, telegram_id, name, max_active_obligations, created_at, updated_at
               FROM owners WHERE telegram_id = $1`
	o, err := scanOwner(r.db.QueryRowContext(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, owner.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("error getting owner by Telegram ID: %w", err)
	}
	return o, nil
}

func (r *PostgresOwnerRepository) Update(ctx context.Context, o *owner.Owner) error {
	query := `UPDATE owners
               SET name = $1, max_active_obligations = $2, updated_at = NOW()
               WHERE id = $3
               RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, o.Name, o.MaxActiveObligations, o.ID).Scan(&o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return owner.ErrOwnerNotFound
		}
		return fmt.Errorf("error updating owner: %w", err)
	}
	return nil
}

func (r *PostgresOwnerRepository) ListAll(ctx context.Context) ([]*owner.Owner, error) {
	query := `SELECT id, telegram_id, name, max_active_obligations, created_at, updated_at
               FROM owners ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing owners: %w", err)
	}
	defer rows.Close()

	owners := make([]*owner.Owner, 0)
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning owner: %w", err)
		}
		owners = append(owners, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owners: %w", err)
	}
	return owners, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOwner(row rowScanner) (*owner.Owner, error) {
	o := &owner.Owner{}
	if err := row.Scan(&o.ID, &o.TelegramID, &o.Name, &o.MaxActiveObligations, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
