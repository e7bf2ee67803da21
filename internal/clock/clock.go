// Package clock supplies "now" to date-driven code so tests can pin time.
package clock

import (
	"sync"
	"time"
)

// DayKeyLayout is the calendar-day key format
const DayKeyLayout = "2006-01-02"

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

// Real reads the wall clock in a fixed location
type Real struct {
	loc *time.Location
}

// NewReal returns a wall clock in loc. A nil loc means time.Local.
func NewReal(loc *time.Location) Real {
	if loc == nil {
		loc = time.Local
	}
	return Real{loc: loc}
}

func (r Real) Now() time.Time {
	return time.Now().In(r.loc)
}

// Fixed is a settable clock for tests and one-off CLI runs
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to t
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance moves the clock forward by d
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Today truncates t to midnight in t's location
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays shifts a date by n calendar days, staying at midnight across DST changes
func AddDays(day time.Time, n int) time.Time {
	return Today(day).AddDate(0, 0, n)
}

// DayKey formats the calendar day of t
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// DaysBetween counts calendar days from a to b (negative when b is before a)
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// ParseDay parses a YYYY-MM-DD value as midnight in loc
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DayKeyLayout, value, loc)
}
