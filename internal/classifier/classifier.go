package classifier

import (
	"strings"

	"calguard/internal/models"
)

// Classifier decides whether an event was created by the scheduling tool.
// Matching is a substring heuristic over the event's free-text fields, so
// false positives and negatives are an accepted tradeoff.
type Classifier struct {
	DomainMarker string   // matched against description and location
	NameMarker   string   // matched against summary, description, organizer and source
	ExcludeWords []string // summary words that veto a match
}

// NewCalendly returns a classifier for Calendly-created events.
// Buffer events that Calendly places around bookings are excluded.
func NewCalendly() *Classifier {
	return &Classifier{
		DomainMarker: "calendly.com",
		NameMarker:   "calendly",
		ExcludeWords: []string{"buffer"},
	}
}

// Matches reports whether the event looks like it was created by the
// scheduling tool. It is a pure function of the event's text fields.
func (c *Classifier) Matches(event *models.Event) bool {
	summary := strings.ToLower(event.Title)
	description := strings.ToLower(event.Description)
	location := strings.ToLower(event.Location)

	for _, word := range c.ExcludeWords {
		if strings.Contains(summary, word) {
			return false
		}
	}

	return strings.Contains(description, c.DomainMarker) ||
		strings.Contains(location, c.DomainMarker) ||
		strings.Contains(summary, c.NameMarker) ||
		strings.Contains(description, c.NameMarker) ||
		strings.Contains(strings.ToLower(event.Organizer), c.NameMarker) ||
		strings.Contains(strings.ToLower(event.SourceTitle), c.NameMarker)
}
