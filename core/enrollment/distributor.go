package enrollment

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

type (
	Repository interface {
		// LockCohort takes the exclusive per-cohort allocation lock for the
		// duration of the transaction; core.ErrOperationInProgress when a
		// concurrent run holds it.
		LockCohort(ctx context.Context, cohortID string, exec core.DBExecutor) error
		// QueryUnassignedEnrollments returns the cohort's active, group-less
		// enrollments in ascending creation order so runs are reproducible.
		QueryUnassignedEnrollments(ctx context.Context, cohortID string, exec ...core.DBExecutor) ([]Enrollment, error)
		// QueryOpenGroupsForUpdate locks and returns the cohort's active groups
		// with a live count below maxPerGroup, in ascending creation order.
		QueryOpenGroupsForUpdate(ctx context.Context, cohortID string, maxPerGroup int, exec core.DBExecutor) ([]Group, error)
		CountGroups(ctx context.Context, cohortID string, exec ...core.DBExecutor) (int, error)
		CreateGroup(ctx context.Context, grp Group, exec ...core.DBExecutor) (Group, error)
		// AssignEnrollment binds the enrollment to the group and bumps the
		// group's count in the same statement scope.
		AssignEnrollment(ctx context.Context, enrollmentID, groupID string, exec ...core.DBExecutor) error
		// QueryGroupLearnerIDs returns the learner ids of the group's active
		// enrollments (the session roster).
		QueryGroupLearnerIDs(ctx context.Context, groupID string, exec ...core.DBExecutor) ([]string, error)
	}

	Service interface {
		Distribute(ctx context.Context, cohortID string, maxPerGroup int) (DistributionResult, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		mailSvc core.EmailService
		clock   core.Clock
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService, clock core.Clock, conf *core.Config) *service {
	return &service{db: db, repo: repo, mailSvc: mailSvc, clock: clock, conf: conf}
}

// Distribute places every active, group-less learner of the cohort into a
// group holding at most maxPerGroup learners, creating groups when existing
// capacity falls short. Greedy least-loaded-first; the whole run is one
// transaction under the cohort lock, so either every learner in the work set
// ends up assigned or nothing is written.
func (svc *service) Distribute(ctx context.Context, cohortID string, maxPerGroup int) (DistributionResult, error) {
	var res DistributionResult

	if maxPerGroup <= 0 {
		return res, ErrInvalidCapacity
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return res, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err = svc.repo.LockCohort(ctx, cohortID, tx); err != nil {
		return res, err
	}

	workSet, err := svc.repo.QueryUnassignedEnrollments(ctx, cohortID, tx)
	if err != nil {
		return res, errors.Wrap(err, "querying unassigned enrollments")
	}
	if len(workSet) == 0 {
		return res, nil
	}

	candidates, err := svc.repo.QueryOpenGroupsForUpdate(ctx, cohortID, maxPerGroup, tx)
	if err != nil {
		return res, errors.Wrap(err, "querying open groups")
	}

	var totalAvailable int
	for _, grp := range candidates {
		totalAvailable += maxPerGroup - grp.CurrentCount
	}

	if shortfall := len(workSet) - totalAvailable; shortfall > 0 {
		toCreate := (shortfall + maxPerGroup - 1) / maxPerGroup // ceil
		existing, err := svc.repo.CountGroups(ctx, cohortID, tx)
		if err != nil {
			return res, errors.Wrap(err, "counting groups")
		}
		now := svc.clock.Now()
		for i := 0; i < toCreate; i++ {
			grp := Group{
				CohortID:  cohortID,
				Name:      fmt.Sprintf("Group %d", existing+i+1),
				Capacity:  maxPerGroup,
				Status:    GroupStatusActive,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if grp, err = svc.repo.CreateGroup(ctx, grp, tx); err != nil {
				return res, errors.Wrap(err, "creating group")
			}
			candidates = append(candidates, grp)
		}
		res.GroupsCreated = toCreate
	}

	// one uniform greedy pass over the combined candidate set: pre-existing and
	// freshly created groups are not special-cased. Candidates are in creation
	// order, so the first minimum wins ties.
	for _, enr := range workSet {
		best := 0
		for i := 1; i < len(candidates); i++ {
			if candidates[i].CurrentCount < candidates[best].CurrentCount {
				best = i
			}
		}
		if err = svc.repo.AssignEnrollment(ctx, enr.ID, candidates[best].ID, tx); err != nil {
			return DistributionResult{}, errors.Wrap(err, "assigning enrollment")
		}
		candidates[best].CurrentCount++
		res.AssignedCount++
	}

	if err = tx.Commit(); err != nil {
		return DistributionResult{}, errors.Wrap(err, "committing transaction")
	}

	svc.notify(cohortID, res)
	return res, nil
}

// distributionSummary feeds the cohort-distribution email templates.
type distributionSummary struct {
	CohortID string
	Result   DistributionResult
}

func (svc *service) notify(cohortID string, res DistributionResult) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{svc.conf.NotifyEmail},
		Subject:      "Cohort distribution completed",
		TemplateName: "cohort-distribution",
		TemplateData: distributionSummary{CohortID: cohortID, Result: res},
	})
}
