package session

import (
	"testing"
	"time"
)

func TestHasConflict(t *testing.T) {
	base := time.Date(2021, 3, 8, 9, 0, 0, 0, time.UTC) // 09:00

	calendar := []Session{
		{ID: "s1", Status: StatusScheduled, ScheduledAt: base, DurationMins: 60},                     // 09:00 - 10:00
		{ID: "s2", Status: StatusLive, ScheduledAt: base.Add(2 * time.Hour), DurationMins: 30},       // 11:00 - 11:30
		{ID: "s3", Status: StatusCancelled, ScheduledAt: base.Add(4 * time.Hour), DurationMins: 60},  // 13:00 - 14:00 (freed)
		{ID: "s4", Status: StatusCompleted, ScheduledAt: base.Add(-2 * time.Hour), DurationMins: 60}, // 07:00 - 08:00
	}

	tests := []struct {
		name      string
		start     time.Time
		duration  time.Duration
		excludeID string
		want      bool
	}{
		{name: "identical slot", start: base, duration: time.Hour, want: true},
		{name: "starts inside", start: base.Add(30 * time.Minute), duration: time.Hour, want: true},
		{name: "ends inside", start: base.Add(-30 * time.Minute), duration: time.Hour, want: true},
		{name: "envelops", start: base.Add(-time.Hour), duration: 3 * time.Hour, want: true},
		{name: "contained", start: base.Add(15 * time.Minute), duration: 15 * time.Minute, want: true},
		{name: "back-to-back after", start: base.Add(time.Hour), duration: time.Hour, want: false},
		{name: "back-to-back before", start: base.Add(-time.Hour), duration: time.Hour, want: false},
		{name: "overlaps live session", start: base.Add(2*time.Hour + 15*time.Minute), duration: time.Hour, want: true},
		{name: "overlaps completed session", start: base.Add(-90 * time.Minute), duration: time.Hour, want: true},
		{name: "cancelled slot is free", start: base.Add(4 * time.Hour), duration: time.Hour, want: false},
		{name: "free slot", start: base.Add(6 * time.Hour), duration: time.Hour, want: false},
		{name: "own slot excluded", start: base, duration: time.Hour, excludeID: "s1", want: false},
		{name: "own slot excluded but clashes with other", start: base.Add(90 * time.Minute), duration: time.Hour, excludeID: "s1", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasConflict(calendar, tt.start, tt.duration, tt.excludeID); got != tt.want {
				t.Errorf("HasConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasConflictEmptyCalendar(t *testing.T) {
	if HasConflict(nil, time.Now(), time.Hour, "") {
		t.Error("HasConflict() = true on an empty calendar, want false")
	}
}
