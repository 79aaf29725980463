package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/session"
	testutil "github.com/trezcool/darasa/tests"
)

func createSessionViaAPI(t *testing.T, token string, ns session.NewSession) session.Session {
	t.Helper()

	req, rec := newAuthRequest(http.MethodPost, "/v1/sessions", token, marchallObj(t, ns))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session failed: code = %v; body = %v", rec.Code, rec.Body.String())
	}
	var sess session.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("unmarshalling Session: %v", err)
	}
	return sess
}

func Test_sessionApi_create(t *testing.T) {
	token := getToken(t)
	slot := time.Date(2027, 4, 5, 9, 0, 0, 0, time.UTC)

	requiredFields := map[string]string{
		"owner_id":      "this field is required",
		"group_id":      "this field is required",
		"topic":         "this field is required",
		"scheduled_at":  "this field is required",
		"duration_mins": "this field is required",
	}

	tests := []httpTest{
		{
			name:     "auth required",
			method:   http.MethodPost,
			path:     "/v1/sessions",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "empty payload fails",
			method:   http.MethodPost,
			path:     "/v1/sessions",
			body:     []byte("{}"),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, requiredFields),
		},
		{
			name:     "zero duration fails",
			method:   http.MethodPost,
			path:     "/v1/sessions",
			body:     marchallObj(t, session.NewSession{OwnerID: "t1", GroupID: "g1", Topic: "Algebra", ScheduledAt: slot}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"duration_mins": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("ok", func(t *testing.T) {
		sess := createSessionViaAPI(t, token, session.NewSession{
			OwnerID:      "owner-create",
			GroupID:      "g-create",
			Topic:        "  Algebra I  ",
			ScheduledAt:  slot,
			DurationMins: 60,
		})
		if sess.ID == "" {
			t.Error("create returned an empty ID")
		}
		if sess.Status != session.StatusScheduled {
			t.Errorf("status = %q, want %q", sess.Status, session.StatusScheduled)
		}
		if sess.Topic != "Algebra I" {
			t.Errorf("topic = %q, want cleaned %q", sess.Topic, "Algebra I")
		}
		if sess.MeetingRef == "" || sess.MeetingJoinURL == "" {
			t.Error("create did not book a provider meeting")
		}
	})

	t.Run("slot already booked", func(t *testing.T) {
		body := marchallObj(t, session.NewSession{
			OwnerID:      "owner-create",
			GroupID:      "g-create",
			Topic:        "Algebra II",
			ScheduledAt:  slot.Add(30 * time.Minute),
			DurationMins: 60,
		})
		tt := httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: session.ErrConflict.Error()}),
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/sessions", token, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("back-to-back is free", func(t *testing.T) {
		sess := createSessionViaAPI(t, token, session.NewSession{
			OwnerID:      "owner-create",
			GroupID:      "g-create",
			Topic:        "Algebra II",
			ScheduledAt:  slot.Add(60 * time.Minute),
			DurationMins: 30,
		})
		if sess.Status != session.StatusScheduled {
			t.Errorf("status = %q, want %q", sess.Status, session.StatusScheduled)
		}
	})
}

func Test_sessionApi_retrieve(t *testing.T) {
	token := getToken(t)

	t.Run("not found", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: session.ErrNotFound.Error()}),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/sessions/nope", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("ok", func(t *testing.T) {
		sess := testutil.CreateSession(
			t, sessRepo, "owner-retrieve", "g1", "Chemistry",
			time.Date(2027, 4, 6, 9, 0, 0, 0, time.UTC), 45, session.StatusScheduled,
		)
		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, sess),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/sessions/"+sess.ID, token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_sessionApi_query(t *testing.T) {
	token := getToken(t)
	base := time.Date(2027, 5, 3, 9, 0, 0, 0, time.UTC)

	s1 := testutil.CreateSession(t, sessRepo, "owner-query", "g1", "Lesson 1", base, 60, session.StatusScheduled)
	s2 := testutil.CreateSession(t, sessRepo, "owner-query", "g1", "Lesson 2", base.Add(2*time.Hour), 60, session.StatusScheduled)
	s3 := testutil.CreateSession(t, sessRepo, "owner-query", "g1", "Lesson 3", base.Add(4*time.Hour), 60, session.StatusCancelled)

	queryCalendar := func(t *testing.T, path string) []session.Session {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("query failed: code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var sessions []session.Session
		if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
			t.Fatalf("unmarshalling []Session: %v", err)
		}
		return sessions
	}

	t.Run("by owner, ordered by time", func(t *testing.T) {
		sessions := queryCalendar(t, "/v1/sessions?owner=owner-query")
		if len(sessions) != 3 {
			t.Fatalf("got %d sessions, want 3", len(sessions))
		}
		for i, want := range []string{s1.ID, s2.ID, s3.ID} {
			if sessions[i].ID != want {
				t.Errorf("sessions[%d].ID = %v, want %v", i, sessions[i].ID, want)
			}
		}
	})

	t.Run("by status", func(t *testing.T) {
		sessions := queryCalendar(t, "/v1/sessions?owner=owner-query&status=scheduled")
		if len(sessions) != 2 {
			t.Fatalf("got %d sessions, want 2", len(sessions))
		}
		sessions = queryCalendar(t, "/v1/sessions?owner=owner-query&status=cancelled,completed")
		if len(sessions) != 1 || sessions[0].ID != s3.ID {
			t.Errorf("got %+v, want just the cancelled session", sessions)
		}
	})

	t.Run("by time window", func(t *testing.T) {
		from := base.Add(time.Hour).Format(time.RFC3339)
		sessions := queryCalendar(t, "/v1/sessions?owner=owner-query&from="+from)
		if len(sessions) != 2 {
			t.Errorf("from filter: got %d sessions, want 2", len(sessions))
		}
		to := base.Add(time.Hour).Format(time.RFC3339)
		sessions = queryCalendar(t, "/v1/sessions?owner=owner-query&to="+to)
		if len(sessions) != 1 || sessions[0].ID != s1.ID {
			t.Errorf("to filter: got %+v, want just the first session", sessions)
		}
	})

	t.Run("bad timestamp", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"from": "must be a valid RFC 3339 timestamp"}),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/sessions?owner=owner-query&from=yesterday", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_sessionApi_lifecycle(t *testing.T) {
	token := getToken(t)

	grp := enrRepo.AddGroup(enrollment.Group{CohortID: "c-life", Name: "Group 1", Capacity: 5, Status: enrollment.GroupStatusActive})
	for i := 1; i <= 2; i++ {
		enrRepo.AddEnrollment(enrollment.Enrollment{
			LearnerID: fmt.Sprintf("learner%d", i),
			CohortID:  "c-life",
			GroupID:   grp.ID,
			Status:    enrollment.StatusActive,
		})
	}

	sess := createSessionViaAPI(t, token, session.NewSession{
		OwnerID:        "owner-life",
		GroupID:        grp.ID,
		Topic:          "Biology",
		ScheduledAt:    time.Now().UTC(),
		DurationMins:   60,
		AutoAttendance: true,
	})

	t.Run("start seeds attendance", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/sessions/"+sess.ID+"/start", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("start failed: code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var live session.Session
		if err := json.Unmarshal(rec.Body.Bytes(), &live); err != nil {
			t.Fatalf("unmarshalling Session: %v", err)
		}
		if live.Status != session.StatusLive {
			t.Errorf("status = %q, want %q", live.Status, session.StatusLive)
		}
		if live.StartedAt.IsZero() {
			t.Error("StartedAt not set")
		}
		if atts := attRepo.SessionAttendances(sess.ID); len(atts) != 2 {
			t.Errorf("got %d attendance records, want 2", len(atts))
		}
	})

	t.Run("start twice", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: session.ErrInvalidTransition.Error()}),
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/sessions/"+sess.ID+"/start", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("end", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/sessions/"+sess.ID+"/end", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("end failed: code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var done session.Session
		if err := json.Unmarshal(rec.Body.Bytes(), &done); err != nil {
			t.Fatalf("unmarshalling Session: %v", err)
		}
		if done.Status != session.StatusCompleted {
			t.Errorf("status = %q, want %q", done.Status, session.StatusCompleted)
		}
		if done.EndedAt.IsZero() {
			t.Error("EndedAt not set")
		}
	})

	t.Run("cancel after completion", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: session.ErrAlreadyTerminal.Error()}),
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/sessions/"+sess.ID+"/cancel", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_sessionApi_start_tooEarly(t *testing.T) {
	token := getToken(t)

	sess := createSessionViaAPI(t, token, session.NewSession{
		OwnerID:      "owner-early",
		GroupID:      "g1",
		Topic:        "Physics",
		ScheduledAt:  time.Now().UTC().Add(24 * time.Hour),
		DurationMins: 60,
	})

	tt := httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: session.ErrTooEarly.Error()}),
	}
	req, rec := newAuthRequest(http.MethodPost, "/v1/sessions/"+sess.ID+"/start", token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}

func Test_sessionApi_cancel(t *testing.T) {
	token := getToken(t)

	sess := createSessionViaAPI(t, token, session.NewSession{
		OwnerID:      "owner-cancel",
		GroupID:      "g1",
		Topic:        "History",
		ScheduledAt:  time.Now().UTC().Add(24 * time.Hour),
		DurationMins: 60,
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/sessions/"+sess.ID+"/cancel", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel failed: code = %v; body = %v", rec.Code, rec.Body.String())
	}
	var cancelled session.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &cancelled); err != nil {
		t.Fatalf("unmarshalling Session: %v", err)
	}
	if cancelled.Status != session.StatusCancelled {
		t.Errorf("status = %q, want %q", cancelled.Status, session.StatusCancelled)
	}

	t.Run("slot is freed", func(t *testing.T) {
		sess2 := createSessionViaAPI(t, token, session.NewSession{
			OwnerID:      "owner-cancel",
			GroupID:      "g1",
			Topic:        "History (retake)",
			ScheduledAt:  sess.ScheduledAt,
			DurationMins: 60,
		})
		if sess2.Status != session.StatusScheduled {
			t.Errorf("status = %q, want %q", sess2.Status, session.StatusScheduled)
		}
	})
}

func Test_sessionApi_reschedule(t *testing.T) {
	token := getToken(t)
	base := time.Date(2027, 6, 7, 9, 0, 0, 0, time.UTC)

	sess := createSessionViaAPI(t, token, session.NewSession{
		OwnerID:      "owner-res",
		GroupID:      "g1",
		Topic:        "Geography",
		ScheduledAt:  base,
		DurationMins: 60,
	})
	other := createSessionViaAPI(t, token, session.NewSession{
		OwnerID:      "owner-res",
		GroupID:      "g1",
		Topic:        "Geology",
		ScheduledAt:  base.Add(2 * time.Hour),
		DurationMins: 60,
	})

	t.Run("clashes with another session", func(t *testing.T) {
		body := marchallObj(t, session.RescheduleSession{ScheduledAt: other.ScheduledAt, DurationMins: 60})
		tt := httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: session.ErrConflict.Error()}),
		}
		req, rec := newAuthRequest(http.MethodPut, "/v1/sessions/"+sess.ID, token, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("ok", func(t *testing.T) {
		newStart := base.Add(5 * time.Hour)
		body := marchallObj(t, session.RescheduleSession{ScheduledAt: newStart, DurationMins: 90})
		req, rec := newAuthRequest(http.MethodPut, "/v1/sessions/"+sess.ID, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("reschedule failed: code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var moved session.Session
		if err := json.Unmarshal(rec.Body.Bytes(), &moved); err != nil {
			t.Fatalf("unmarshalling Session: %v", err)
		}
		if !moved.ScheduledAt.Equal(newStart) || moved.DurationMins != 90 {
			t.Errorf("moved to %v (%d min), want %v (90 min)", moved.ScheduledAt, moved.DurationMins, newStart)
		}
	})
}
