package session

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Statuses
const (
	StatusScheduled = "scheduled"
	StatusLive      = "live"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var (
	// errors
	ErrNotFound          = errors.New("session not found")
	ErrConflict          = errors.New("the instructor already has a session booked over this time slot")
	ErrInvalidTransition = errors.New("this action is not allowed in the session's current state")
	ErrTooEarly          = errors.New("the session cannot go live this far ahead of its scheduled time")
	ErrTooLate           = errors.New("the session's start window has passed")
	ErrAlreadyTerminal   = errors.New("the session has already completed or been cancelled")

	// statuses a session can hold on an instructor's calendar; cancelled
	// sessions free their slot.
	activeStatuses = []string{StatusScheduled, StatusLive, StatusCompleted}
)

type Session struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"` // the instructor
	GroupID        string    `json:"group_id"`
	Topic          string    `json:"topic"`
	ScheduledAt    time.Time `json:"scheduled_at"` // UTC
	DurationMins   int       `json:"duration_mins"`
	Status         string    `json:"status"`
	StartedAt      time.Time `json:"started_at"` // UTC; zero until live
	EndedAt        time.Time `json:"ended_at"`   // UTC; zero until completed
	MeetingRef     string    `json:"meeting_ref"`
	MeetingJoinURL string    `json:"meeting_join_url"`
	AutoAttendance bool      `json:"auto_attendance"`
	RecordSession  bool      `json:"record_session"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

func (s Session) Duration() time.Duration {
	return time.Duration(s.DurationMins) * time.Minute
}

// Start is the inclusive lower bound of the session's booked interval.
func (s Session) Start() time.Time { return s.ScheduledAt }

// End is the exclusive upper bound of the session's booked interval.
func (s Session) End() time.Time { return s.ScheduledAt.Add(s.Duration()) }

func (s Session) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusCancelled
}

// NewSession contains information needed to book a new Session.
type NewSession struct {
	OwnerID        string    `json:"owner_id" validate:"required"`
	GroupID        string    `json:"group_id" validate:"required"`
	Topic          string    `json:"topic" validate:"required"`
	ScheduledAt    time.Time `json:"scheduled_at" validate:"required"`
	DurationMins   int       `json:"duration_mins" validate:"required,gt=0"`
	AutoAttendance bool      `json:"auto_attendance"`
	RecordSession  bool      `json:"record_session"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.Topic = core.CleanString(ns.Topic)
	return validate.Struct(ns)
}

// RescheduleSession defines the new timing for a scheduled Session.
type RescheduleSession struct {
	ScheduledAt  time.Time `json:"scheduled_at" validate:"required"`
	DurationMins int       `json:"duration_mins" validate:"required,gt=0"`
}

func (rs *RescheduleSession) Validate(validate *validator.Validate) error {
	return validate.Struct(rs)
}

type QueryFilter struct {
	OwnerID  string    `query:"owner"`
	Statuses []string  `query:"status"`
	From     time.Time `query:"from"`
	To       time.Time `query:"to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.OwnerID == "" && qf.Statuses == nil && qf.From.IsZero() && qf.To.IsZero()
}
