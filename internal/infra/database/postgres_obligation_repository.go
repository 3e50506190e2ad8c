// internal/infra/database/postgres_obligation_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"obligation_reminder_bot/internal/domain/obligation"

	"github.com/google/uuid"
	"github.com/lib/pq" // For pq.Array
)

const obligationColumns = `id, owner_id, title, reference, trigger_day, deadline_offset_days, frequency,
               target_month, status, is_paid_current_cycle, last_paid_at, created_at, updated_at`

type PostgresObligationRepository struct {
	db *sql.DB
}

func NewPostgresObligationRepository(db *sql.DB) *PostgresObligationRepository {
	return &PostgresObligationRepository{db: db}
}

func (r *PostgresObligationRepository) Create(ctx context.Context, o *obligation.Obligation) error {
	query := `INSERT INTO obligations (id, owner_id, title, reference, trigger_day, deadline_offset_days,
               frequency, target_month, status, is_paid_current_cycle, last_paid_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
               RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		o.ID, o.OwnerID, o.Title, o.Reference, o.TriggerDay, o.DeadlineOffsetDays,
		o.Frequency, targetMonthValue(o.TargetMonth), o.Status, o.IsPaidCurrentCycle, o.LastPaidAt,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating obligation: %w", err)
	}
	return nil
}

func (r *PostgresObligationRepository) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*obligation.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE id = $1 AND owner_id = $2`
	o, err := scanObligation(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, obligation.ErrObligationNotFound
		}
		return nil, fmt.Errorf("error getting obligation %s: %w", id, err)
	}
	return o, nil
}

func (r *PostgresObligationRepository) FetchByOwner(ctx context.Context, ownerID uuid.UUID) ([]*obligation.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations
               WHERE owner_id = $1 AND status <> 'closed'
               ORDER BY trigger_day, created_at`
	return r.query(ctx, "owner obligations", query, ownerID)
}

// countActiveQuery counts the obligations occupying plan slots. Pausing or
// closing an obligation frees its slot.
const countActiveQuery = `SELECT COUNT(*) FROM obligations WHERE owner_id = $1 AND status = $2`

func (r *PostgresObligationRepository) CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, countActiveQuery, ownerID, obligation.StatusActive).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting obligations for owner %s: %w", ownerID, err)
	}
	return count, nil
}

func (r *PostgresObligationRepository) UpdateFields(ctx context.Context, id uuid.UUID, patch obligation.Patch) error {
	if patch.IsEmpty() {
		return nil
	}
	query, args := buildPatchQuery(id, patch)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating obligation %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected for obligation %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return obligation.ErrObligationNotFound
	}
	return nil
}

func (r *PostgresObligationRepository) ListAll(ctx context.Context) ([]*obligation.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations ORDER BY created_at`
	return r.query(ctx, "all obligations", query)
}

func (r *PostgresObligationRepository) ResetPaidFlags(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	query := `UPDATE obligations
               SET is_paid_current_cycle = FALSE, updated_at = NOW()
               WHERE id = ANY($1::uuid[])`
	if _, err := r.db.ExecContext(ctx, query, pq.Array(strIDs)); err != nil {
		return fmt.Errorf("error resetting paid flags for %d obligations: %w", len(ids), err)
	}
	return nil
}

func (r *PostgresObligationRepository) query(ctx context.Context, what, query string, args ...any) ([]*obligation.Obligation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", what, err)
	}
	defer rows.Close()

	list := make([]*obligation.Obligation, 0)
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning %s: %w", what, err)
		}
		list = append(list, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", what, err)
	}
	return list, nil
}

func scanObligation(row rowScanner) (*obligation.Obligation, error) {
	o := &obligation.Obligation{}
	var targetMonth sql.NullInt32
	err := row.Scan(&o.ID, &o.OwnerID, &o.Title, &o.Reference, &o.TriggerDay, &o.DeadlineOffsetDays,
		&o.Frequency, &targetMonth, &o.Status, &o.IsPaidCurrentCycle, &o.LastPaidAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.TargetMonth = int(targetMonth.Int32)
	return o, nil
}

// buildPatchQuery turns the set fields of patch into a single UPDATE, so
// fields the patch does not name are never written.
func buildPatchQuery(id uuid.UUID, patch obligation.Patch) (string, []any) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.IsPaidCurrentCycle != nil {
		add("is_paid_current_cycle", *patch.IsPaidCurrentCycle)
	}
	if patch.LastPaidAt != nil {
		add("last_paid_at", *patch.LastPaidAt)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE obligations SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	return query, args
}

func targetMonthValue(month int) sql.NullInt32 {
	return sql.NullInt32{Int32: int32(month), Valid: month > 0}
}
