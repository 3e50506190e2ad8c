package obligation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraceStateOf(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(o *Obligation)
		todayDay int
		want     Grace
	}{
		{
			name:     "on trigger day",
			todayDay: 10,
			want:     Grace{Kind: GraceDaysRemaining, DaysRemaining: 5},
		},
		{
			name:     "on deadline",
			todayDay: 15,
			want:     Grace{Kind: GraceDueToday},
		},
		{
			name:     "one day late",
			todayDay: 16,
			want:     Grace{Kind: GraceOverdue},
		},
		{
			name:     "before trigger day",
			todayDay: 1,
			want:     Grace{Kind: GraceDaysRemaining, DaysRemaining: 14},
		},
		{
			name:     "paid on deadline",
			mutate:   func(o *Obligation) { o.IsPaidCurrentCycle = true },
			todayDay: 15,
			want:     Grace{Kind: GracePaid},
		},
		{
			name:     "paid while overdue",
			mutate:   func(o *Obligation) { o.IsPaidCurrentCycle = true },
			todayDay: 28,
			want:     Grace{Kind: GracePaid},
		},
		{
			name: "paused wins over paid",
			mutate: func(o *Obligation) {
				o.Status = StatusPaused
				o.IsPaidCurrentCycle = true
			},
			todayDay: 10,
			want:     Grace{Kind: GracePaused},
		},
		{
			name:     "closed",
			mutate:   func(o *Obligation) { o.Status = StatusClosed },
			todayDay: 10,
			want:     Grace{Kind: GraceClosed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestObligation(10, FrequencyMonthly, 0)
			if tt.mutate != nil {
				tt.mutate(o)
			}
			before := *o

			got := GraceStateOf(o, tt.todayDay)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, before, *o, "grace computation must not mutate")
		})
	}
}

func TestGraceStateOf_ZeroOffset(t *testing.T) {
	o := newTestObligation(10, FrequencyMonthly, 0)
	o.DeadlineOffsetDays = 0

	assert.Equal(t, GraceDueToday, GraceStateOf(o, 10).Kind)
}

func TestGrace_String(t *testing.T) {
	assert.Equal(t, "⏳ Faltan 3 días para pago", Grace{Kind: GraceDaysRemaining, DaysRemaining: 3}.String())
	assert.Equal(t, "❌ Pago vencido", Grace{Kind: GraceOverdue}.String())
}
