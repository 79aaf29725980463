package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
)

// advisory lock classes; mirror the sqlx repos.
const (
	lockClassOwnerCalendar = 1
	lockClassCohort        = 2
)

type sessionRepository struct {
	db *DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, sess session.Session, exec ...core.DBExecutor) (session.Session, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sess.ID = uuid.New().String()
	repo.db.sessions[sess.ID] = &sess
	return sess, nil
}

func (repo *sessionRepository) GetSession(ctx context.Context, id string, exec ...core.DBExecutor) (session.Session, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sess, ok := repo.db.sessions[id]; ok {
		return *sess, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (repo *sessionRepository) GetSessionForUpdate(ctx context.Context, id string, exec core.DBExecutor) (session.Session, error) {
	return repo.GetSession(ctx, id)
}

func (repo *sessionRepository) FilterSessions(ctx context.Context, filter session.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]session.Session, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	sessions := make([]session.Session, 0, len(repo.db.sessions))
	for _, sess := range repo.db.sessions {
		if filter.OwnerID != "" && sess.OwnerID != filter.OwnerID {
			continue
		}
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, sess.Status) {
			continue
		}
		if !filter.From.IsZero() && sess.ScheduledAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !sess.ScheduledAt.Before(filter.To) {
			continue
		}
		sessions = append(sessions, *sess)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].ScheduledAt.Equal(sessions[j].ScheduledAt) {
			return sessions[i].ScheduledAt.Before(sessions[j].ScheduledAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

func (repo *sessionRepository) UpdateSession(ctx context.Context, sess session.Session, exec ...core.DBExecutor) (session.Session, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.sessions[sess.ID]; !ok {
		return session.Session{}, session.ErrNotFound
	}
	repo.db.sessions[sess.ID] = &sess
	return sess, nil
}

func (repo *sessionRepository) LockOwnerCalendar(ctx context.Context, ownerID string, exec core.DBExecutor) error {
	return repo.db.tryLock(lockClassOwnerCalendar, ownerID, lockTx(exec))
}

func contains(vals []string, val string) bool {
	for _, v := range vals {
		if v == val {
			return true
		}
	}
	return false
}
