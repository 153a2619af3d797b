package classifier

import (
	"testing"

	"calguard/internal/models"
)

func TestMatches(t *testing.T) {
	c := NewCalendly()

	tests := []struct {
		name  string
		event models.Event
		want  bool
	}{
		{
			name:  "domain marker in description, mixed case",
			event: models.Event{Title: "Intro call", Description: "Meeting via CALENDLY.COM link"},
			want:  true,
		},
		{
			name:  "domain marker in location",
			event: models.Event{Title: "Intro call", Location: "https://calendly.com/acme/intro"},
			want:  true,
		},
		{
			name:  "tool name in summary",
			event: models.Event{Title: "Calendly: 30 Minute Meeting"},
			want:  true,
		},
		{
			name:  "tool name in description",
			event: models.Event{Title: "Chat", Description: "Scheduled with Calendly"},
			want:  true,
		},
		{
			name:  "tool name in organizer email",
			event: models.Event{Title: "Chat", Organizer: "notifications@Calendly.com"},
			want:  true,
		},
		{
			name:  "tool name in source title",
			event: models.Event{Title: "Chat", SourceTitle: "Calendly"},
			want:  true,
		},
		{
			name:  "ordinary event",
			event: models.Event{Title: "Team Sync", Organizer: "alice@example.com"},
			want:  false,
		},
		{
			name:  "all text fields empty",
			event: models.Event{},
			want:  false,
		},
		{
			name:  "buffer event excluded despite markers",
			event: models.Event{Title: "Buffer: Calendly hold", Description: "calendly.com"},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Matches(&tt.event); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchesHasNoSideEffects(t *testing.T) {
	c := NewCalendly()
	event := models.Event{
		Title:       "Calendly: Intro",
		Description: "via calendly.com",
		Guests:      []models.Guest{{Email: "a@x.com", ResponseStatus: "accepted"}},
	}
	before := event

	c.Matches(&event)

	if event.Title != before.Title || event.Description != before.Description || len(event.Guests) != 1 {
		t.Errorf("Matches mutated the event: %+v", event)
	}
}
