package tasks

import (
	"sync"
	"time"

	"gymtrack_app_echo/internal/clock"
)

// DailyGate admits the daily job once per calendar day, from a configured
// hour on. The day it last ran is kept in memory only, so a restart re-arms it.
type DailyGate struct {
	mu      sync.Mutex
	hour    int
	lastKey string
}

func NewDailyGate(hour int) *DailyGate {
	return &DailyGate{hour: hour}
}

// ShouldRun reports whether the daily job is due at now
func (g *DailyGate) ShouldRun(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return now.Hour() >= g.hour && g.lastKey != clock.DayKey(now)
}

// MarkDone records that the daily job completed for now's day
func (g *DailyGate) MarkDone(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastKey = clock.DayKey(now)
}

// LastRunDay is the day key of the last completed run, empty if none
func (g *DailyGate) LastRunDay() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastKey
}

func (g *DailyGate) Hour() int {
	return g.hour
}
