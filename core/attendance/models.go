package attendance

import "time"

// Statuses. Rows are seeded Pending; the grading flow owns the rest.
const (
	StatusPending = "pending"
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

// Attendance is one learner's record for one session, unique per
// (SessionID, LearnerID).
type Attendance struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	LearnerID string    `json:"learner_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}
