package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

// interface compliance checks
var (
	_ enrollment.Repository = (*enrollmentRepository)(nil)
	_ attendance.Roster     = (*enrollmentRepository)(nil)
)

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

// AddEnrollment registers an enrollment directly; test fixture hook.
func (repo *enrollmentRepository) AddEnrollment(enr enrollment.Enrollment) enrollment.Enrollment {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if enr.ID == "" {
		enr.ID = uuid.New().String()
	}
	repo.db.enrollments[enr.ID] = &enr
	return enr
}

// AddGroup registers a group directly; test fixture hook.
func (repo *enrollmentRepository) AddGroup(grp enrollment.Group) enrollment.Group {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if grp.ID == "" {
		grp.ID = uuid.New().String()
	}
	repo.db.groups[grp.ID] = &grp
	return grp
}

// GetGroup returns a stored group; test assertion hook.
func (repo *enrollmentRepository) GetGroup(id string) (enrollment.Group, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if grp, ok := repo.db.groups[id]; ok {
		return *grp, nil
	}
	return enrollment.Group{}, enrollment.ErrGroupNotFound
}

func (repo *enrollmentRepository) LockCohort(ctx context.Context, cohortID string, exec core.DBExecutor) error {
	return repo.db.tryLock(lockClassCohort, cohortID, lockTx(exec))
}

func (repo *enrollmentRepository) QueryUnassignedEnrollments(ctx context.Context, cohortID string, exec ...core.DBExecutor) ([]enrollment.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	enrs := make([]enrollment.Enrollment, 0)
	for _, enr := range repo.db.enrollments {
		if enr.CohortID == cohortID && enr.Status == enrollment.StatusActive && enr.GroupID == "" {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool {
		if !enrs[i].CreatedAt.Equal(enrs[j].CreatedAt) {
			return enrs[i].CreatedAt.Before(enrs[j].CreatedAt)
		}
		return enrs[i].ID < enrs[j].ID
	})
	return enrs, nil
}

func (repo *enrollmentRepository) QueryOpenGroupsForUpdate(ctx context.Context, cohortID string, maxPerGroup int, exec core.DBExecutor) ([]enrollment.Group, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	groups := make([]enrollment.Group, 0)
	for _, grp := range repo.db.groups {
		if grp.CohortID == cohortID && grp.Status == enrollment.GroupStatusActive && grp.CurrentCount < maxPerGroup {
			groups = append(groups, *grp)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if !groups[i].CreatedAt.Equal(groups[j].CreatedAt) {
			return groups[i].CreatedAt.Before(groups[j].CreatedAt)
		}
		return groups[i].ID < groups[j].ID
	})
	return groups, nil
}

func (repo *enrollmentRepository) CountGroups(ctx context.Context, cohortID string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, grp := range repo.db.groups {
		if grp.CohortID == cohortID {
			count++
		}
	}
	return count, nil
}

func (repo *enrollmentRepository) CreateGroup(ctx context.Context, grp enrollment.Group, exec ...core.DBExecutor) (enrollment.Group, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	grp.ID = uuid.New().String()
	repo.db.groups[grp.ID] = &grp
	return grp, nil
}

func (repo *enrollmentRepository) AssignEnrollment(ctx context.Context, enrollmentID, groupID string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	enr, ok := repo.db.enrollments[enrollmentID]
	if !ok || enr.GroupID != "" {
		return enrollment.ErrNotFound
	}
	grp, ok := repo.db.groups[groupID]
	if !ok {
		return enrollment.ErrGroupNotFound
	}
	enr.GroupID = groupID
	grp.CurrentCount++
	return nil
}

func (repo *enrollmentRepository) QueryGroupLearnerIDs(ctx context.Context, groupID string, exec ...core.DBExecutor) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	enrs := make([]enrollment.Enrollment, 0)
	for _, enr := range repo.db.enrollments {
		if enr.GroupID == groupID && enr.Status == enrollment.StatusActive {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool {
		if !enrs[i].CreatedAt.Equal(enrs[j].CreatedAt) {
			return enrs[i].CreatedAt.Before(enrs[j].CreatedAt)
		}
		return enrs[i].ID < enrs[j].ID
	})

	ids := make([]string, 0, len(enrs))
	for _, enr := range enrs {
		ids = append(ids, enr.LearnerID)
	}
	return ids, nil
}
