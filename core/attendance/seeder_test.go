package attendance

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

type fakeRepo struct {
	rows map[string]bool // sessionID + "/" + learnerID
	err  error
}

func (repo *fakeRepo) UpsertPendingAttendance(ctx context.Context, sessionID string, learnerIDs []string, exec ...core.DBExecutor) (int, error) {
	if repo.err != nil {
		return 0, repo.err
	}
	if repo.rows == nil {
		repo.rows = make(map[string]bool)
	}
	var inserted int
	for _, learnerID := range learnerIDs {
		key := sessionID + "/" + learnerID
		if !repo.rows[key] {
			repo.rows[key] = true
			inserted++
		}
	}
	return inserted, nil
}

type fakeRoster struct {
	learnerIDs []string
	err        error
}

func (r *fakeRoster) QueryGroupLearnerIDs(ctx context.Context, groupID string, exec ...core.DBExecutor) ([]string, error) {
	return r.learnerIDs, r.err
}

func TestSeederSeedAttendance(t *testing.T) {
	repo := &fakeRepo{}
	seeder := NewSeeder(repo, &fakeRoster{})

	t.Run("empty roster is a no-op", func(t *testing.T) {
		n, err := seeder.SeedAttendance(context.Background(), "s1", nil)
		if err != nil {
			t.Fatalf("SeedAttendance() error = %v", err)
		}
		if n != 0 {
			t.Errorf("SeedAttendance() = %d, want 0", n)
		}
	})

	t.Run("seeds every learner once", func(t *testing.T) {
		n, err := seeder.SeedAttendance(context.Background(), "s1", []string{"l1", "l2", "l3"})
		if err != nil {
			t.Fatalf("SeedAttendance() error = %v", err)
		}
		if n != 3 {
			t.Errorf("SeedAttendance() = %d, want 3", n)
		}
	})

	t.Run("reseeding skips existing records", func(t *testing.T) {
		n, err := seeder.SeedAttendance(context.Background(), "s1", []string{"l1", "l2", "l3", "l4"})
		if err != nil {
			t.Fatalf("SeedAttendance() error = %v", err)
		}
		if n != 1 {
			t.Errorf("SeedAttendance() = %d, want 1 (only the new learner)", n)
		}
	})

	t.Run("same learner in another session", func(t *testing.T) {
		n, err := seeder.SeedAttendance(context.Background(), "s2", []string{"l1"})
		if err != nil {
			t.Fatalf("SeedAttendance() error = %v", err)
		}
		if n != 1 {
			t.Errorf("SeedAttendance() = %d, want 1", n)
		}
	})
}

func TestSeederSeedForSession(t *testing.T) {
	t.Run("seeds the group roster", func(t *testing.T) {
		repo := &fakeRepo{}
		seeder := NewSeeder(repo, &fakeRoster{learnerIDs: []string{"l1", "l2"}})

		n, err := seeder.SeedForSession(context.Background(), "s1", "g1")
		if err != nil {
			t.Fatalf("SeedForSession() error = %v", err)
		}
		if n != 2 {
			t.Errorf("SeedForSession() = %d, want 2", n)
		}
	})

	t.Run("roster error", func(t *testing.T) {
		boom := errors.New("boom")
		seeder := NewSeeder(&fakeRepo{}, &fakeRoster{err: boom})

		if _, err := seeder.SeedForSession(context.Background(), "s1", "g1"); errors.Cause(err) != boom {
			t.Errorf("SeedForSession() error = %v, want wrapped %v", err, boom)
		}
	})

	t.Run("repo error", func(t *testing.T) {
		boom := errors.New("boom")
		seeder := NewSeeder(&fakeRepo{err: boom}, &fakeRoster{learnerIDs: []string{"l1"}})

		if _, err := seeder.SeedForSession(context.Background(), "s1", "g1"); errors.Cause(err) != boom {
			t.Errorf("SeedForSession() error = %v, want wrapped %v", err, boom)
		}
	})
}
