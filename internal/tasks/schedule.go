package tasks

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"gymtrack_app_echo/internal/clock"
)

// DefaultRule fires at the top of every hour
const DefaultRule = "FREQ=HOURLY;BYMINUTE=0;BYSECOND=0"

// Schedule computes tick times from an RRULE anchored at local midnight
type Schedule struct {
	rule string
	loc  *time.Location
}

// ParseSchedule validates an RRULE string such as DefaultRule
func ParseSchedule(rule string, loc *time.Location) (*Schedule, error) {
	if rule == "" {
		rule = DefaultRule
	}
	if loc == nil {
		loc = time.Local
	}
	if _, err := rrule.StrToRRule(rule); err != nil {
		return nil, fmt.Errorf("invalid schedule rule %q: %w", rule, err)
	}
	return &Schedule{rule: rule, loc: loc}, nil
}

// Next returns the first tick strictly after now
func (s *Schedule) Next(now time.Time) time.Time {
	local := now.In(s.loc)
	rule, err := rrule.StrToRRule(s.rule)
	if err == nil {
		// anchor at the previous midnight so BY* parts line up with wall-clock time
		rule.DTStart(clock.AddDays(local, -1))
		if next := rule.After(local, false); !next.IsZero() {
			return next
		}
	}
	// fallback to the next full hour
	return local.Truncate(time.Hour).Add(time.Hour)
}
