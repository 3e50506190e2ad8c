// Package calendar resolves "today" in the single civil timezone the daily
// check runs in, independent of the host's local time.
package calendar

import (
	"fmt"
	"time"
)

// DefaultTimezone is used when no timezone is configured.
const DefaultTimezone = "America/Mexico_City"

// Today is a civil date in the resolver's timezone.
type Today struct {
	Year  int
	Month int // 1..12
	Day   int // 1..31
}

// Period identifies the billing month, e.g. "2025-03". It keys notification
// idempotency so one obligation is notified at most once per period.
func (t Today) Period() string {
	return fmt.Sprintf("%04d-%02d", t.Year, t.Month)
}

func (t Today) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year, t.Month, t.Day)
}

// Resolver maps wall-clock instants to civil dates in a fixed location.
type Resolver struct {
	loc *time.Location
}

// NewResolver panics on a nil location.
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		panic("calendar: nil location")
	}
	return &Resolver{loc: loc}
}

// LoadResolver builds a Resolver from an IANA timezone name.
func LoadResolver(name string) (*Resolver, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("calendar.LoadResolver: %w", err)
	}
	return NewResolver(loc), nil
}

// Resolve is a pure function of the given instant.
func (r *Resolver) Resolve(instant time.Time) Today {
	local := instant.In(r.loc)
	return Today{
		Year:  local.Year(),
		Month: int(local.Month()),
		Day:   local.Day(),
	}
}

func (r *Resolver) Location() *time.Location {
	return r.loc
}
