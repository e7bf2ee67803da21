package tasks

import (
	"testing"
	"time"
)

func TestScheduleNext(t *testing.T) {
	s, err := ParseSchedule("", time.UTC)
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}

	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{at(10, 9, 15), at(10, 10, 0)},
		{at(10, 9, 0), at(10, 10, 0)},
		{at(10, 23, 30), at(11, 0, 0)},
	}
	for _, tt := range tests {
		if got := s.Next(tt.now); !got.Equal(tt.want) {
			t.Errorf("Next(%s) = %s; want %s", tt.now, got, tt.want)
		}
	}
}

func TestScheduleCustomRule(t *testing.T) {
	s, err := ParseSchedule("FREQ=MINUTELY;INTERVAL=15;BYSECOND=0", time.UTC)
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	if got := s.Next(at(10, 9, 7)); !got.Equal(at(10, 9, 15)) {
		t.Errorf("Next = %s; want 09:15", got)
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	if _, err := ParseSchedule("FREQ=SOMETIMES", time.UTC); err == nil {
		t.Error("expected error for invalid rule")
	}
}
