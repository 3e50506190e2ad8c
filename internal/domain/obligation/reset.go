package obligation

// CycleBoundaryDay is the day of month that starts a new monthly billing cycle.
const CycleBoundaryDay = 1

// ResetIfBoundary clears the paid flag of every monthly, non-closed obligation
// when day is the cycle boundary. The flag is assigned, not toggled, so calling
// it again on the same day yields the same state. It returns the obligations
// whose flag was assigned; the input slice is updated in place.
func ResetIfBoundary(day int, obligations []*Obligation) []*Obligation {
	if day != CycleBoundaryDay {
		return nil
	}
	reset := make([]*Obligation, 0)
	for _, o := range obligations {
		if o == nil || o.IsClosed() || o.Frequency != FrequencyMonthly {
			continue
		}
		o.IsPaidCurrentCycle = false
		reset = append(reset, o)
	}
	return reset
}
