package session

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

type (
	Repository interface {
		CreateSession(ctx context.Context, sess Session, exec ...core.DBExecutor) (Session, error)
		GetSession(ctx context.Context, id string, exec ...core.DBExecutor) (Session, error)
		// GetSessionForUpdate locks the session row for the rest of the transaction.
		GetSessionForUpdate(ctx context.Context, id string, exec core.DBExecutor) (Session, error)
		// FilterSessions applies AND operation on available QueryFilter fields.
		FilterSessions(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Session, error)
		UpdateSession(ctx context.Context, sess Session, exec ...core.DBExecutor) (Session, error)
		// LockOwnerCalendar takes the exclusive per-instructor booking lock for
		// the duration of the transaction; core.ErrOperationInProgress when a
		// concurrent booking holds it.
		LockOwnerCalendar(ctx context.Context, ownerID string, exec core.DBExecutor) error
	}

	// AttendanceSeeder creates the per-learner attendance placeholders when a
	// session goes live; it runs in the caller's transaction.
	AttendanceSeeder interface {
		SeedForSession(ctx context.Context, sessionID, groupID string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Create(ctx context.Context, ns NewSession) (Session, error)
		Reschedule(ctx context.Context, id string, rs RescheduleSession) (Session, error)
		Start(ctx context.Context, id string) (Session, error)
		End(ctx context.Context, id string) (Session, error)
		Cancel(ctx context.Context, id string) (Session, error)
		GetByID(ctx context.Context, id string) (Session, error)
		Filter(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Session, error)
	}

	service struct {
		db         core.DB
		repo       Repository
		seeder     AttendanceSeeder
		meetingSvc core.MeetingService
		recordings core.RecordingScheduler
		mailSvc    core.EmailService
		clock      core.Clock
		conf       *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(
	db core.DB,
	repo Repository,
	seeder AttendanceSeeder,
	meetingSvc core.MeetingService,
	recordings core.RecordingScheduler,
	mailSvc core.EmailService,
	clock core.Clock,
	conf *core.Config,
) *service {
	return &service{
		db:         db,
		repo:       repo,
		seeder:     seeder,
		meetingSvc: meetingSvc,
		recordings: recordings,
		mailSvc:    mailSvc,
		clock:      clock,
		conf:       conf,
	}
}

func (svc *service) Create(ctx context.Context, ns NewSession) (Session, error) {
	now := svc.clock.Now()
	sess := Session{
		OwnerID:        ns.OwnerID,
		GroupID:        ns.GroupID,
		Topic:          ns.Topic,
		ScheduledAt:    ns.ScheduledAt.UTC(),
		DurationMins:   ns.DurationMins,
		Status:         StatusScheduled,
		AutoAttendance: ns.AutoAttendance,
		RecordSession:  ns.RecordSession,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err = svc.repo.LockOwnerCalendar(ctx, sess.OwnerID, tx); err != nil {
		return Session{}, err
	}
	calendar, err := svc.repo.FilterSessions(ctx, QueryFilter{OwnerID: sess.OwnerID, Statuses: activeStatuses}, nil, tx)
	if err != nil {
		return Session{}, errors.Wrap(err, "querying owner calendar")
	}
	if HasConflict(calendar, sess.ScheduledAt, sess.Duration(), "") {
		return Session{}, ErrConflict
	}

	meeting, err := svc.meetingSvc.CreateMeeting(ctx, sess.Topic, sess.ScheduledAt, sess.Duration(), core.MeetingOptions{
		AutoRecord:    sess.RecordSession,
		WaitingRoom:   true,
		MuteUponEntry: true,
	})
	if err != nil {
		return Session{}, errors.Wrap(err, "creating provider meeting")
	}
	sess.MeetingRef = meeting.Ref
	sess.MeetingJoinURL = meeting.JoinURL

	if sess, err = svc.repo.CreateSession(ctx, sess, tx); err != nil {
		svc.dropMeeting(meeting.Ref)
		return Session{}, errors.Wrap(err, "inserting session")
	}
	if err = tx.Commit(); err != nil {
		svc.dropMeeting(meeting.Ref)
		return Session{}, errors.Wrap(err, "committing transaction")
	}

	svc.notify(sess, "Session scheduled", fmt.Sprintf("%q was scheduled.", sess.Topic))
	return sess, nil
}

func (svc *service) Reschedule(ctx context.Context, id string, rs RescheduleSession) (Session, error) {
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	sess, err := svc.repo.GetSessionForUpdate(ctx, id, tx)
	if err != nil {
		return Session{}, err
	}
	switch sess.Status {
	case StatusScheduled: // pass
	case StatusLive:
		return Session{}, ErrInvalidTransition
	default:
		return Session{}, ErrAlreadyTerminal
	}

	if err = svc.repo.LockOwnerCalendar(ctx, sess.OwnerID, tx); err != nil {
		return Session{}, err
	}
	calendar, err := svc.repo.FilterSessions(ctx, QueryFilter{OwnerID: sess.OwnerID, Statuses: activeStatuses}, nil, tx)
	if err != nil {
		return Session{}, errors.Wrap(err, "querying owner calendar")
	}
	newStart := rs.ScheduledAt.UTC()
	newDuration := time.Duration(rs.DurationMins) * time.Minute
	if HasConflict(calendar, newStart, newDuration, sess.ID) {
		return Session{}, ErrConflict
	}

	ref, oldStart, oldDuration := sess.MeetingRef, sess.ScheduledAt, sess.Duration()
	if err = svc.meetingSvc.UpdateMeeting(ctx, ref, newStart, newDuration); err != nil {
		return Session{}, errors.Wrap(err, "updating provider meeting")
	}

	sess.ScheduledAt = newStart
	sess.DurationMins = rs.DurationMins
	sess.UpdatedAt = svc.clock.Now()
	if sess, err = svc.repo.UpdateSession(ctx, sess, tx); err != nil {
		svc.revertMeeting(ref, oldStart, oldDuration)
		return Session{}, errors.Wrap(err, "updating session")
	}
	if err = tx.Commit(); err != nil {
		svc.revertMeeting(ref, oldStart, oldDuration)
		return Session{}, errors.Wrap(err, "committing transaction")
	}

	svc.notify(sess, "Session rescheduled", fmt.Sprintf("%q was moved.", sess.Topic))
	return sess, nil
}

func (svc *service) Start(ctx context.Context, id string) (Session, error) {
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	sess, err := svc.repo.GetSessionForUpdate(ctx, id, tx)
	if err != nil {
		return Session{}, err
	}
	if sess.Status != StatusScheduled {
		return Session{}, ErrInvalidTransition
	}

	now := svc.clock.Now()
	if now.Before(sess.ScheduledAt.Add(-svc.conf.Session.EarlyStartDelta)) {
		return Session{}, ErrTooEarly
	}
	if cutoff := svc.conf.Session.LateStartCutoff; cutoff > 0 && now.After(sess.ScheduledAt.Add(cutoff)) {
		return Session{}, ErrTooLate
	}

	sess.Status = StatusLive
	sess.StartedAt = now
	sess.UpdatedAt = now
	if sess, err = svc.repo.UpdateSession(ctx, sess, tx); err != nil {
		return Session{}, errors.Wrap(err, "updating session")
	}

	if sess.AutoAttendance {
		if _, err = svc.seeder.SeedForSession(ctx, sess.ID, sess.GroupID, tx); err != nil {
			return Session{}, errors.Wrap(err, "seeding attendance")
		}
	}

	if err = tx.Commit(); err != nil {
		return Session{}, errors.Wrap(err, "committing transaction")
	}
	return sess, nil
}

func (svc *service) End(ctx context.Context, id string) (Session, error) {
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	sess, err := svc.repo.GetSessionForUpdate(ctx, id, tx)
	if err != nil {
		return Session{}, err
	}
	switch sess.Status {
	case StatusLive: // pass
	case StatusScheduled:
		return Session{}, ErrInvalidTransition
	default:
		return Session{}, ErrAlreadyTerminal
	}

	now := svc.clock.Now()
	sess.Status = StatusCompleted
	sess.EndedAt = now
	sess.UpdatedAt = now
	if sess, err = svc.repo.UpdateSession(ctx, sess, tx); err != nil {
		return Session{}, errors.Wrap(err, "updating session")
	}
	if err = tx.Commit(); err != nil {
		return Session{}, errors.Wrap(err, "committing transaction")
	}

	if sess.RecordSession && svc.recordings != nil {
		svc.recordings.ScheduleFetch(sess.ID, sess.MeetingRef)
	}
	return sess, nil
}

func (svc *service) Cancel(ctx context.Context, id string) (Session, error) {
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	sess, err := svc.repo.GetSessionForUpdate(ctx, id, tx)
	if err != nil {
		return Session{}, err
	}
	switch sess.Status {
	case StatusScheduled: // pass
	case StatusLive:
		return Session{}, ErrInvalidTransition
	default:
		return Session{}, ErrAlreadyTerminal
	}

	sess.Status = StatusCancelled
	sess.UpdatedAt = svc.clock.Now()
	if sess, err = svc.repo.UpdateSession(ctx, sess, tx); err != nil {
		return Session{}, errors.Wrap(err, "updating session")
	}
	if err = tx.Commit(); err != nil {
		return Session{}, errors.Wrap(err, "committing transaction")
	}

	// only after the cancellation is committed; a provider failure must not
	// leave a cancelled-at-the-provider meeting on a still-Scheduled session.
	svc.dropMeeting(sess.MeetingRef)

	svc.notify(sess, "Session cancelled", fmt.Sprintf("%q was cancelled.", sess.Topic))
	return sess, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Session, error) {
	return svc.repo.GetSession(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Session, error) {
	return svc.repo.FilterSessions(ctx, filter, ordering)
}

// dropMeeting deletes a provider meeting the session no longer needs,
// either orphaned by a failed transaction or left by a committed
// cancellation; best effort.
func (svc *service) dropMeeting(ref string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = svc.meetingSvc.DeleteMeeting(ctx, ref)
	}()
}

// revertMeeting restores the provider meeting's previous timing after the
// enclosing transaction failed; best effort.
func (svc *service) revertMeeting(ref string, start time.Time, duration time.Duration) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = svc.meetingSvc.UpdateMeeting(ctx, ref, start, duration)
	}()
}

// sessionUpdate feeds the session-update email templates.
type sessionUpdate struct {
	Intro   string
	Session Session
}

func (svc *service) notify(sess Session, subject, intro string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{svc.conf.NotifyEmail},
		Subject:      subject,
		TemplateName: "session-update",
		TemplateData: sessionUpdate{Intro: intro, Session: sess},
	})
}
