package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/session"
)

func CreateSession(
	t *testing.T,
	repo session.Repository,
	ownerID, groupID, topic string,
	scheduledAt time.Time,
	durationMins int,
	status string,
	createdAt ...time.Time,
) session.Session {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	sess := session.Session{
		OwnerID:      ownerID,
		GroupID:      groupID,
		Topic:        topic,
		ScheduledAt:  scheduledAt.UTC(),
		DurationMins: durationMins,
		Status:       status,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	sess, err := repo.CreateSession(context.Background(), sess)
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return sess
}

func CreateGroup(
	t *testing.T,
	repo enrollment.Repository,
	cohortID, name string,
	capacity, currentCount int,
	createdAt ...time.Time,
) enrollment.Group {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	grp := enrollment.Group{
		CohortID:     cohortID,
		Name:         name,
		Capacity:     capacity,
		CurrentCount: currentCount,
		Status:       enrollment.GroupStatusActive,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	grp, err := repo.CreateGroup(context.Background(), grp)
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return grp
}
