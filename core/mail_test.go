package core

import (
	"net/mail"
	"strings"
	"testing"
	"time"
)

func TestEmailMessageRender(t *testing.T) {
	Conf = &Config{
		TestMode:        true,
		WorkDir:         Getwd(),
		FrontendBaseURL: "https://app.darasa.test",
	}

	contains := func(t *testing.T, got string, wanted ...string) {
		t.Helper()
		for _, want := range wanted {
			if !strings.Contains(got, want) {
				t.Errorf("content missing %q:\n%s", want, got)
			}
		}
	}

	t.Run("plain body skips templates", func(t *testing.T) {
		msg := &EmailMessage{
			To:      []mail.Address{{Address: "ops@localhost"}},
			Subject: "ping",
			BodyStr: "plain text only",
		}
		if err := msg.Render(); err != nil {
			t.Fatalf("Render() failed: %v", err)
		}
		if msg.TextContent != "plain text only" {
			t.Errorf("TextContent = %q; want the body string", msg.TextContent)
		}
		if msg.HTMLContent != "" {
			t.Errorf("HTMLContent = %q; want empty", msg.HTMLContent)
		}
	})

	t.Run("session update", func(t *testing.T) {
		msg := &EmailMessage{
			To:           []mail.Address{{Address: "ops@localhost"}},
			Subject:      "Session scheduled",
			TemplateName: "session-update",
			TemplateData: struct {
				Intro   string
				Session struct {
					Topic        string
					ScheduledAt  time.Time
					DurationMins int
					Status       string
				}
			}{
				Intro: `"Algebra I" was scheduled.`,
				Session: struct {
					Topic        string
					ScheduledAt  time.Time
					DurationMins int
					Status       string
				}{
					Topic:        "Algebra I",
					ScheduledAt:  time.Date(2027, 3, 15, 9, 0, 0, 0, time.UTC),
					DurationMins: 60,
					Status:       "Scheduled",
				},
			},
		}
		if err := msg.Render(); err != nil {
			t.Fatalf("Render() failed: %v", err)
		}
		if !msg.HasContent() {
			t.Fatal("HasContent() = false; want rendered content")
		}
		contains(t, msg.TextContent, `"Algebra I" was scheduled.`, "Algebra I", "60 min", "Scheduled", Conf.FrontendBaseURL)
		contains(t, msg.HTMLContent, "<p>", "Algebra I", "60 min", "Scheduled", Conf.FrontendBaseURL)
	})

	t.Run("cohort distribution", func(t *testing.T) {
		msg := &EmailMessage{
			To:           []mail.Address{{Address: "ops@localhost"}},
			Subject:      "Cohort distribution completed",
			TemplateName: "cohort-distribution",
			TemplateData: struct {
				CohortID string
				Result   struct {
					AssignedCount int
					GroupsCreated int
				}
			}{
				CohortID: "c1",
				Result: struct {
					AssignedCount int
					GroupsCreated int
				}{AssignedCount: 10, GroupsCreated: 1},
			},
		}
		if err := msg.Render(); err != nil {
			t.Fatalf("Render() failed: %v", err)
		}
		contains(t, msg.TextContent, "cohort c1", "Learners assigned: 10", "Groups created:    1")
		contains(t, msg.HTMLContent, "<strong>c1</strong>", "Learners assigned: 10", "Groups created: 1")
	})

	t.Run("unknown template renders nothing", func(t *testing.T) {
		msg := &EmailMessage{
			To:           []mail.Address{{Address: "ops@localhost"}},
			Subject:      "void",
			TemplateName: "no-such-template",
		}
		if err := msg.Render(); err != nil {
			t.Fatalf("Render() failed: %v", err)
		}
		if msg.HasContent() {
			t.Errorf("HasContent() = true; want no content for an unknown template")
		}
	})
}
