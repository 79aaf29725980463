package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertPendingAttendance(ctx context.Context, sessionID string, learnerIDs []string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	now := time.Now().UTC()

	var inserted int
	for _, learnerID := range learnerIDs {
		key := sessionID + "/" + learnerID
		if _, ok := repo.db.attendances[key]; ok {
			continue
		}
		repo.db.attendances[key] = &attendance.Attendance{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			LearnerID: learnerID,
			Status:    attendance.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		inserted++
	}
	return inserted, nil
}

// SessionAttendances returns the stored records for a session; test assertion hook.
func (repo *attendanceRepository) SessionAttendances(sessionID string) []attendance.Attendance {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := make([]attendance.Attendance, 0)
	for _, att := range repo.db.attendances {
		if att.SessionID == sessionID {
			records = append(records, *att)
		}
	}
	return records
}
