package snapshot

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"calguard/internal/models"
)

func TestWrite(t *testing.T) {
	events := []*models.Event{
		{
			ID:          "evt-1",
			Title:       "Intro call",
			Description: "Scheduled via calendly.com",
			Location:    "https://calendly.com/acme/intro",
			Organizer:   "notifications@calendly.com",
			StartTime:   time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
			EndTime:     time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC),
			Guests: []models.Guest{
				{Email: "a@x.com", ResponseStatus: "accepted"},
				{Email: "b@x.com", ResponseStatus: "accepted"},
			},
		},
		{
			ID:        "evt-2",
			Title:     "Follow-up",
			StartTime: time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2026, 9, 2, 9, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, events); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	body := buf.String()

	if got := strings.Count(body, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("expected 2 VEVENT components, got %d:\n%s", got, body)
	}
	for _, want := range []string{"UID:evt-1", "UID:evt-2", "SUMMARY:Intro call", "mailto:a@x.com", "mailto:b@x.com"} {
		if !strings.Contains(body, want) {
			t.Errorf("snapshot missing %q:\n%s", want, body)
		}
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("Write failed for empty event list: %v", err)
	}
	if !strings.Contains(buf.String(), "BEGIN:VCALENDAR") {
		t.Errorf("expected a calendar wrapper even with no events:\n%s", buf.String())
	}
}
