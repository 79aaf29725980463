package core

import (
	"context"
	"time"
)

type (
	// Meeting is the opaque handle returned by the video-conferencing provider.
	Meeting struct {
		Ref     string
		JoinURL string
	}

	MeetingOptions struct {
		AutoRecord       bool
		WaitingRoom      bool
		JoinBeforeHost   bool
		MuteUponEntry    bool
		ParticipantVideo bool
	}

	// MeetingService is the consumed contract of the conferencing provider.
	// Failures are infrastructure errors; the enclosing operation rolls back.
	MeetingService interface {
		CreateMeeting(ctx context.Context, topic string, start time.Time, duration time.Duration, opts MeetingOptions) (Meeting, error)
		UpdateMeeting(ctx context.Context, ref string, start time.Time, duration time.Duration) error
		DeleteMeeting(ctx context.Context, ref string) error
	}

	// RecordingScheduler schedules retrieval of a session recording once the
	// session has ended. Fire-and-forget; never awaited.
	RecordingScheduler interface {
		ScheduleFetch(sessionID, meetingRef string)
	}
)
