package main

import (
	"bytes"
	"errors"
	"testing"

	"obligation_reminder_bot/internal/app"
	"obligation_reminder_bot/internal/domain/notification"
	"obligation_reminder_bot/internal/domain/obligation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReport(t *testing.T) {
	failedID := uuid.New()
	r := &notification.Report{
		Date:     "2025-03-01",
		Matched:  2,
		Notified: 1,
		Failed:   1,
		Results: []notification.Result{
			{ObligationID: uuid.New(), Success: true},
			{ObligationID: failedID, Err: errors.New("chat not found")},
		},
	}

	var buf bytes.Buffer
	renderReport(&buf, r)

	out := buf.String()
	assert.Contains(t, out, "Daily check 2025-03-01")
	assert.Contains(t, out, "Failures")
	assert.Contains(t, out, failedID.String())
	assert.Contains(t, out, "chat not found")
}

func TestRenderReport_NoFailures(t *testing.T) {
	var buf bytes.Buffer
	renderReport(&buf, &notification.Report{Date: "2025-03-02"})
	assert.NotContains(t, buf.String(), "Failures")
}

func TestRenderObligations(t *testing.T) {
	o := obligation.New(uuid.New(), "Banorte", "1234", 10, 20, obligation.FrequencyMonthly, 0)
	views := []app.ObligationView{{Obligation: o, Grace: obligation.Grace{Kind: obligation.GraceOverdue}}}

	var buf bytes.Buffer
	renderObligations(&buf, views)

	assert.Contains(t, buf.String(), "Banorte")
	assert.Contains(t, buf.String(), "Pago vencido")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, &notification.Report{Date: "2025-03-01", Notified: 2}))
	assert.Contains(t, buf.String(), `"notified": 2`)
}

func TestRunCmd_InvalidAt(t *testing.T) {
	cmd := runCmd()
	cmd.SetArgs([]string{"--at", "yesterday"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()

	assert.ErrorContains(t, err, "invalid --at")
}
