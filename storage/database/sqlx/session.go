package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
)

const sessionColumns = `id, owner_id, group_id, topic, scheduled_at, duration_mins, status,
	started_at, ended_at, meeting_ref, meeting_join_url, auto_attendance, record_session,
	created_at, updated_at`

type sessionRow struct {
	ID             string      `db:"id"`
	OwnerID        string      `db:"owner_id"`
	GroupID        string      `db:"group_id"`
	Topic          string      `db:"topic"`
	ScheduledAt    time.Time   `db:"scheduled_at"`
	DurationMins   int         `db:"duration_mins"`
	Status         string      `db:"status"`
	StartedAt      null.Time   `db:"started_at"`
	EndedAt        null.Time   `db:"ended_at"`
	MeetingRef     null.String `db:"meeting_ref"`
	MeetingJoinURL null.String `db:"meeting_join_url"`
	AutoAttendance bool        `db:"auto_attendance"`
	RecordSession  bool        `db:"record_session"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

type sessionRepository struct {
	exec core.DBExecutor
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(exec core.DBExecutor) *sessionRepository {
	return &sessionRepository{exec: exec}
}

func (repo sessionRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo sessionRepository) pack(sess session.Session) sessionRow {
	return sessionRow{
		ID:             sess.ID,
		OwnerID:        sess.OwnerID,
		GroupID:        sess.GroupID,
		Topic:          sess.Topic,
		ScheduledAt:    sess.ScheduledAt.UTC(),
		DurationMins:   sess.DurationMins,
		Status:         sess.Status,
		StartedAt:      null.NewTime(sess.StartedAt.UTC(), !sess.StartedAt.IsZero()),
		EndedAt:        null.NewTime(sess.EndedAt.UTC(), !sess.EndedAt.IsZero()),
		MeetingRef:     null.NewString(sess.MeetingRef, sess.MeetingRef != ""),
		MeetingJoinURL: null.NewString(sess.MeetingJoinURL, sess.MeetingJoinURL != ""),
		AutoAttendance: sess.AutoAttendance,
		RecordSession:  sess.RecordSession,
		CreatedAt:      sess.CreatedAt.UTC(),
		UpdatedAt:      sess.UpdatedAt.UTC(),
	}
}

func (repo sessionRepository) unpack(row sessionRow) session.Session {
	return session.Session{
		ID:             row.ID,
		OwnerID:        row.OwnerID,
		GroupID:        row.GroupID,
		Topic:          row.Topic,
		ScheduledAt:    row.ScheduledAt,
		DurationMins:   row.DurationMins,
		Status:         row.Status,
		StartedAt:      row.StartedAt.Time,
		EndedAt:        row.EndedAt.Time,
		MeetingRef:     row.MeetingRef.String,
		MeetingJoinURL: row.MeetingJoinURL.String,
		AutoAttendance: row.AutoAttendance,
		RecordSession:  row.RecordSession,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func (repo sessionRepository) unpackSlice(rows []sessionRow) []session.Session {
	sessions := make([]session.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, repo.unpack(row))
	}
	return sessions
}

// trapNoRowsErr maps psql "no rows" err to session.ErrNotFound
func (repo sessionRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return session.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo sessionRepository) CreateSession(ctx context.Context, sess session.Session, exec ...core.DBExecutor) (session.Session, error) {
	sess.ID = uuid.New().String()
	row := repo.pack(sess)
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO "session" (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		row.ID, row.OwnerID, row.GroupID, row.Topic, row.ScheduledAt, row.DurationMins, row.Status,
		row.StartedAt, row.EndedAt, row.MeetingRef, row.MeetingJoinURL, row.AutoAttendance, row.RecordSession,
		row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "inserting session")
	}
	return repo.unpack(row), nil
}

func (repo sessionRepository) getSession(ctx context.Context, id string, forUpdate bool, exec core.DBExecutor) (session.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return session.Session{}, session.ErrNotFound
	}

	query := `SELECT ` + sessionColumns + ` FROM "session" WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var row sessionRow
	if err := exec.GetContext(ctx, &row, query, id); err != nil {
		return session.Session{}, repo.trapNoRowsErr(err, "finding session by ID")
	}
	return repo.unpack(row), nil
}

func (repo sessionRepository) GetSession(ctx context.Context, id string, exec ...core.DBExecutor) (session.Session, error) {
	return repo.getSession(ctx, id, false, repo.getExec(exec))
}

func (repo sessionRepository) GetSessionForUpdate(ctx context.Context, id string, exec core.DBExecutor) (session.Session, error) {
	return repo.getSession(ctx, id, true, exec)
}

func (repo sessionRepository) FilterSessions(ctx context.Context, filter session.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]session.Session, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(val interface{}) string {
		args = append(args, val)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.OwnerID != "" {
		where = append(where, "owner_id = "+arg(filter.OwnerID))
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status = ANY("+arg(pq.Array(filter.Statuses))+")")
	}
	if !filter.From.IsZero() {
		where = append(where, "scheduled_at >= "+arg(filter.From.UTC()))
	}
	if !filter.To.IsZero() {
		where = append(where, "scheduled_at < "+arg(filter.To.UTC()))
	}

	query := `SELECT ` + sessionColumns + ` FROM "session"`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	orderBy := "scheduled_at ASC, id ASC"
	if ordering != nil {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		orderBy = strings.Join(orderList, ", ")
	}
	query += " ORDER BY " + orderBy

	var rows []sessionRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	return repo.unpackSlice(rows), nil
}

func (repo sessionRepository) UpdateSession(ctx context.Context, sess session.Session, exec ...core.DBExecutor) (session.Session, error) {
	row := repo.pack(sess)
	res, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE "session" SET
			topic = $2, scheduled_at = $3, duration_mins = $4, status = $5,
			started_at = $6, ended_at = $7, meeting_ref = $8, meeting_join_url = $9,
			auto_attendance = $10, record_session = $11, updated_at = $12
		WHERE id = $1`,
		row.ID, row.Topic, row.ScheduledAt, row.DurationMins, row.Status,
		row.StartedAt, row.EndedAt, row.MeetingRef, row.MeetingJoinURL,
		row.AutoAttendance, row.RecordSession, row.UpdatedAt,
	)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "updating session")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.Session{}, session.ErrNotFound
	}
	return repo.unpack(row), nil
}

func (repo sessionRepository) LockOwnerCalendar(ctx context.Context, ownerID string, exec core.DBExecutor) error {
	return tryAdvisoryXactLock(ctx, exec, lockClassOwnerCalendar, ownerID)
}
