package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/enrollment"
)

const (
	groupColumns      = `id, cohort_id, name, capacity, current_count, status, created_at, updated_at`
	enrollmentColumns = `id, learner_id, cohort_id, group_id, status, created_at, updated_at`
)

type groupRow struct {
	ID           string    `db:"id"`
	CohortID     string    `db:"cohort_id"`
	Name         string    `db:"name"`
	Capacity     int       `db:"capacity"`
	CurrentCount int       `db:"current_count"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type enrollmentRow struct {
	ID        string      `db:"id"`
	LearnerID string      `db:"learner_id"`
	CohortID  string      `db:"cohort_id"`
	GroupID   null.String `db:"group_id"`
	Status    string      `db:"status"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

type enrollmentRepository struct {
	exec core.DBExecutor
}

// interface compliance checks
var (
	_ enrollment.Repository = (*enrollmentRepository)(nil)
	_ attendance.Roster     = (*enrollmentRepository)(nil)
)

func NewEnrollmentRepository(exec core.DBExecutor) *enrollmentRepository {
	return &enrollmentRepository{exec: exec}
}

func (repo enrollmentRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo enrollmentRepository) unpackGroup(row groupRow) enrollment.Group {
	return enrollment.Group{
		ID:           row.ID,
		CohortID:     row.CohortID,
		Name:         row.Name,
		Capacity:     row.Capacity,
		CurrentCount: row.CurrentCount,
		Status:       row.Status,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func (repo enrollmentRepository) unpackEnrollment(row enrollmentRow) enrollment.Enrollment {
	return enrollment.Enrollment{
		ID:        row.ID,
		LearnerID: row.LearnerID,
		CohortID:  row.CohortID,
		GroupID:   row.GroupID.String,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func (repo enrollmentRepository) LockCohort(ctx context.Context, cohortID string, exec core.DBExecutor) error {
	return tryAdvisoryXactLock(ctx, exec, lockClassCohort, cohortID)
}

func (repo enrollmentRepository) QueryUnassignedEnrollments(ctx context.Context, cohortID string, exec ...core.DBExecutor) ([]enrollment.Enrollment, error) {
	var rows []enrollmentRow
	err := repo.getExec(exec).SelectContext(ctx, &rows,
		`SELECT `+enrollmentColumns+` FROM enrollment
		WHERE cohort_id = $1 AND status = $2 AND group_id IS NULL
		ORDER BY created_at ASC, id ASC`,
		cohortID, enrollment.StatusActive,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying unassigned enrollments")
	}
	enrs := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrs = append(enrs, repo.unpackEnrollment(row))
	}
	return enrs, nil
}

func (repo enrollmentRepository) QueryOpenGroupsForUpdate(ctx context.Context, cohortID string, maxPerGroup int, exec core.DBExecutor) ([]enrollment.Group, error) {
	var rows []groupRow
	err := exec.SelectContext(ctx, &rows,
		`SELECT `+groupColumns+` FROM class_group
		WHERE cohort_id = $1 AND status = $2 AND current_count < $3
		ORDER BY created_at ASC, id ASC
		FOR UPDATE`,
		cohortID, enrollment.GroupStatusActive, maxPerGroup,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying open groups")
	}
	groups := make([]enrollment.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, repo.unpackGroup(row))
	}
	return groups, nil
}

func (repo enrollmentRepository) CountGroups(ctx context.Context, cohortID string, exec ...core.DBExecutor) (int, error) {
	var count int
	err := repo.getExec(exec).GetContext(ctx, &count, "SELECT COUNT(*) FROM class_group WHERE cohort_id = $1", cohortID)
	if err != nil {
		return 0, errors.Wrap(err, "counting groups")
	}
	return count, nil
}

func (repo enrollmentRepository) CreateGroup(ctx context.Context, grp enrollment.Group, exec ...core.DBExecutor) (enrollment.Group, error) {
	grp.ID = uuid.New().String()
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO class_group (`+groupColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		grp.ID, grp.CohortID, grp.Name, grp.Capacity, grp.CurrentCount, grp.Status,
		grp.CreatedAt.UTC(), grp.UpdatedAt.UTC(),
	)
	if err != nil {
		return enrollment.Group{}, errors.Wrap(err, "inserting group")
	}
	return grp, nil
}

// AssignEnrollment binds the enrollment to the group and bumps the group's
// live count in a single statement; the class_group CHECK constraint rejects
// any bump past capacity.
func (repo enrollmentRepository) AssignEnrollment(ctx context.Context, enrollmentID, groupID string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		`WITH assigned AS (
			UPDATE enrollment SET group_id = $2, updated_at = $3
			WHERE id = $1 AND group_id IS NULL
			RETURNING id
		)
		UPDATE class_group SET current_count = current_count + 1, updated_at = $3
		WHERE id = $2 AND EXISTS (SELECT 1 FROM assigned)`,
		enrollmentID, groupID, time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "assigning enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// under the cohort lock the group is known to exist, so zero rows
		// means the enrollment is gone or no longer unassigned
		return enrollment.ErrNotFound
	}
	return nil
}

func (repo enrollmentRepository) QueryGroupLearnerIDs(ctx context.Context, groupID string, exec ...core.DBExecutor) ([]string, error) {
	var ids []string
	err := repo.getExec(exec).SelectContext(ctx, &ids,
		`SELECT learner_id FROM enrollment
		WHERE group_id = $1 AND status = $2
		ORDER BY created_at ASC, id ASC`,
		groupID, enrollment.StatusActive,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying group roster")
	}
	return ids, nil
}
