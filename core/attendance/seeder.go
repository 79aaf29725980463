package attendance

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

type (
	Repository interface {
		// UpsertPendingAttendance inserts one Pending row per (sessionID, learnerID)
		// pair, leaving existing rows untouched so recorded statuses survive a
		// retried seeding. Returns the number of rows actually inserted.
		UpsertPendingAttendance(ctx context.Context, sessionID string, learnerIDs []string, exec ...core.DBExecutor) (int, error)
	}

	// Roster lists the active learners a session is taught to.
	Roster interface {
		QueryGroupLearnerIDs(ctx context.Context, groupID string, exec ...core.DBExecutor) ([]string, error)
	}

	Seeder struct {
		repo   Repository
		roster Roster
	}
)

func NewSeeder(repo Repository, roster Roster) *Seeder {
	return &Seeder{repo: repo, roster: roster}
}

// SeedAttendance creates a Pending placeholder for each given learner.
// Idempotent; runs in the caller's transaction when an exec is passed.
func (s *Seeder) SeedAttendance(ctx context.Context, sessionID string, learnerIDs []string, exec ...core.DBExecutor) (int, error) {
	if len(learnerIDs) == 0 {
		return 0, nil
	}
	n, err := s.repo.UpsertPendingAttendance(ctx, sessionID, learnerIDs, exec...)
	if err != nil {
		return 0, errors.Wrap(err, "upserting attendance")
	}
	return n, nil
}

// SeedForSession seeds placeholders for every active learner in the session's group.
func (s *Seeder) SeedForSession(ctx context.Context, sessionID, groupID string, exec ...core.DBExecutor) (int, error) {
	learnerIDs, err := s.roster.QueryGroupLearnerIDs(ctx, groupID, exec...)
	if err != nil {
		return 0, errors.Wrap(err, "querying group roster")
	}
	return s.SeedAttendance(ctx, sessionID, learnerIDs, exec...)
}
