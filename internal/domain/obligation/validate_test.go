package obligation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Check(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Obligation)
		wantErr bool
	}{
		{name: "valid monthly"},
		{name: "valid annual", mutate: func(o *Obligation) {
			o.Frequency = FrequencyAnnually
			o.TargetMonth = 12
		}},
		{name: "trigger day zero", mutate: func(o *Obligation) { o.TriggerDay = 0 }, wantErr: true},
		{name: "trigger day 32", mutate: func(o *Obligation) { o.TriggerDay = 32 }, wantErr: true},
		{name: "negative offset", mutate: func(o *Obligation) { o.DeadlineOffsetDays = -1 }, wantErr: true},
		{name: "unknown frequency", mutate: func(o *Obligation) { o.Frequency = "weekly" }, wantErr: true},
		{name: "unknown status", mutate: func(o *Obligation) { o.Status = "deleted" }, wantErr: true},
		{name: "bimonthly without target", mutate: func(o *Obligation) { o.Frequency = FrequencyBimonthly }, wantErr: true},
		{name: "annual target 13", mutate: func(o *Obligation) {
			o.Frequency = FrequencyAnnually
			o.TargetMonth = 13
		}, wantErr: true},
		{name: "missing owner", mutate: func(o *Obligation) { o.OwnerID = uuid.Nil }, wantErr: true},
		{name: "missing title", mutate: func(o *Obligation) { o.Title = "" }, wantErr: true},
		{name: "monthly ignores target", mutate: func(o *Obligation) { o.TargetMonth = 4 }},
		{name: "monthly ignores out of range target", mutate: func(o *Obligation) { o.TargetMonth = 13 }},
		{name: "monthly ignores negative target", mutate: func(o *Obligation) { o.TargetMonth = -1 }},
		{name: "bimonthly target 13", mutate: func(o *Obligation) {
			o.Frequency = FrequencyBimonthly
			o.TargetMonth = 13
		}, wantErr: true},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestObligation(10, FrequencyMonthly, 0)
			if tt.mutate != nil {
				tt.mutate(o)
			}

			err := v.Check(o)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedObligation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidator_Partition(t *testing.T) {
	good := newTestObligation(10, FrequencyMonthly, 0)
	bad := newTestObligation(10, FrequencyAnnually, 0)

	valid, rejected := NewValidator().Partition([]*Obligation{good, bad, nil})

	assert.Equal(t, []*Obligation{good}, valid)
	assert.Len(t, rejected, 2)
}
