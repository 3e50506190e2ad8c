package obligation

// Match selects the obligations due for a reminder on the given day and month.
// Paused and closed obligations never match. A trigger day that does not exist
// in the current month (e.g. 31 in April) simply does not match; there is no
// rollover to the last day of the month. The result keeps input order, but
// callers must not depend on it.
func Match(obligations []*Obligation, day, month int) []*Obligation {
	matched := make([]*Obligation, 0)
	for _, o := range obligations {
		if o == nil || o.Status != StatusActive {
			continue
		}
		if o.TriggerDay != day {
			continue
		}
		if !DueInMonth(o, month) {
			continue
		}
		matched = append(matched, o)
	}
	return matched
}

// DueInMonth applies the frequency rule for a given month.
//
// Bimonthly obligations fire in every month sharing the target month's parity,
// which approximates "every two months" without tracking an anchor month.
func DueInMonth(o *Obligation, month int) bool {
	switch o.Frequency {
	case FrequencyMonthly:
		return true
	case FrequencyBimonthly:
		return month%2 == o.TargetMonth%2
	case FrequencyAnnually:
		return month == o.TargetMonth
	default:
		return false
	}
}
