package database

import (
	"database/sql"
	"testing"
	"time"

	"obligation_reminder_bot/internal/domain/obligation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBuildPatchQuery(t *testing.T) {
	id := uuid.New()
	paused := obligation.StatusPaused
	paid := true
	paidAt := sql.NullTime{Time: time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), Valid: true}

	tests := []struct {
		name      string
		patch     obligation.Patch
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "status only",
			patch:     obligation.Patch{Status: &paused},
			wantQuery: "UPDATE obligations SET status = $1, updated_at = NOW() WHERE id = $2",
			wantArgs:  []any{"paused", id},
		},
		{
			name:      "paid flag and timestamp",
			patch:     obligation.Patch{IsPaidCurrentCycle: &paid, LastPaidAt: &paidAt},
			wantQuery: "UPDATE obligations SET is_paid_current_cycle = $1, last_paid_at = $2, updated_at = NOW() WHERE id = $3",
			wantArgs:  []any{true, paidAt, id},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildPatchQuery(id, tt.patch)
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestTargetMonthValue(t *testing.T) {
	assert.Equal(t, sql.NullInt32{}, targetMonthValue(0))
	assert.Equal(t, sql.NullInt32{Int32: 4, Valid: true}, targetMonthValue(4))
}

func TestCountActiveQuery_OnlyActiveStatus(t *testing.T) {
	assert.Equal(t,
		"SELECT COUNT(*) FROM obligations WHERE owner_id = $1 AND status = $2",
		countActiveQuery)
	assert.Equal(t, obligation.Status("active"), obligation.StatusActive)
}
