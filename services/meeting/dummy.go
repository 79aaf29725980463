package meetingsvc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
)

// dummyService fakes the meeting provider; for local dev and tests.
type dummyService struct {
	mu sync.Mutex

	// Err, when set, is returned by every call.
	Err error

	Created []core.Meeting
	Updated []string
	Deleted []string
}

// interface compliance checks
var (
	_ core.MeetingService     = (*dummyService)(nil)
	_ core.RecordingScheduler = (*dummyService)(nil)
)

func NewDummyService() *dummyService {
	return &dummyService{}
}

func (svc *dummyService) CreateMeeting(ctx context.Context, topic string, start time.Time, duration time.Duration, opts core.MeetingOptions) (core.Meeting, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.Err != nil {
		return core.Meeting{}, svc.Err
	}
	ref := uuid.New().String()
	meeting := core.Meeting{
		Ref:     ref,
		JoinURL: "https://meetings.local/j/" + ref,
	}
	svc.Created = append(svc.Created, meeting)
	return meeting, nil
}

func (svc *dummyService) UpdateMeeting(ctx context.Context, ref string, start time.Time, duration time.Duration) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.Err != nil {
		return svc.Err
	}
	svc.Updated = append(svc.Updated, ref)
	return nil
}

func (svc *dummyService) DeleteMeeting(ctx context.Context, ref string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.Err != nil {
		return svc.Err
	}
	svc.Deleted = append(svc.Deleted, ref)
	return nil
}

func (svc *dummyService) ScheduleFetch(sessionID, meetingRef string) {}
