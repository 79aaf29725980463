package session

import "time"

// HasConflict reports whether the proposed half-open interval
// [start, start+duration) overlaps any non-cancelled session in calendar.
// Intervals that merely touch (one's end equals the other's start) do not
// conflict. excludeID skips the session being rescheduled; pass "" otherwise.
//
// The predicate is pure; callers needing check-then-write consistency must
// load calendar and act on the result inside the same locked transaction.
func HasConflict(calendar []Session, start time.Time, duration time.Duration, excludeID string) bool {
	end := start.Add(duration)
	for _, s := range calendar {
		if s.Status == StatusCancelled {
			continue
		}
		if excludeID != "" && s.ID == excludeID {
			continue
		}
		if start.Before(s.End()) && s.Start().Before(end) {
			return true
		}
	}
	return false
}
