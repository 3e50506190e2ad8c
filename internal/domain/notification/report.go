// internal/domain/notification/report.go
package notification

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrStoreUnavailable     = errors.New("obligation store unavailable")
	ErrNotificationFailed   = errors.New("notification failed")
	ErrRecipientUnknown     = errors.New("no recipient for obligation owner")
	ErrChannelPanicked      = errors.New("notification channel panicked")
	ErrDispatchNotAttempted = errors.New("dispatch not attempted")
)

// Result is the outcome of dispatching one matched obligation.
type Result struct {
	ObligationID uuid.UUID
	Success      bool
	Skipped      bool  // already notified in this period; nothing was sent
	Err          error // set when Success is false and Skipped is false
}

// MarshalJSON renders Err as its message.
func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		ObligationID uuid.UUID `json:"obligation_id"`
		Success      bool      `json:"success"`
		Skipped      bool      `json:"skipped"`
		Error        string    `json:"error,omitempty"`
	}{
		ObligationID: r.ObligationID,
		Success:      r.Success,
		Skipped:      r.Skipped,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Report summarizes one daily check invocation.
type Report struct {
	Date      string   `json:"date"`   // resolved civil date, YYYY-MM-DD
	Period    string   `json:"period"` // YYYY-MM
	Fetched   int      `json:"fetched"`
	Malformed int      `json:"malformed"`
	Matched   int      `json:"matched"`
	Notified  int      `json:"notified"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Reset     int      `json:"reset"`
	Results   []Result `json:"results"`
}

// Tally recomputes the notified/failed/skipped counters from Results.
func (r *Report) Tally() {
	r.Notified, r.Failed, r.Skipped = 0, 0, 0
	for _, res := range r.Results {
		switch {
		case res.Success:
			r.Notified++
		case res.Skipped:
			r.Skipped++
		default:
			r.Failed++
		}
	}
}
