package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRepository struct {
	exec core.DBExecutor
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{exec: exec}
}

func (repo attendanceRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// UpsertPendingAttendance inserts a Pending row per learner, skipping pairs
// that already have one; recorded statuses are never overwritten.
func (repo attendanceRepository) UpsertPendingAttendance(ctx context.Context, sessionID string, learnerIDs []string, exec ...core.DBExecutor) (int, error) {
	exe := repo.getExec(exec)
	now := time.Now().UTC()

	var inserted int
	for _, learnerID := range learnerIDs {
		res, err := exe.ExecContext(ctx,
			`INSERT INTO attendance (id, session_id, learner_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (session_id, learner_id) DO NOTHING`,
			uuid.New().String(), sessionID, learnerID, attendance.StatusPending, now,
		)
		if err != nil {
			return 0, errors.Wrap(err, "inserting attendance")
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	return inserted, nil
}
