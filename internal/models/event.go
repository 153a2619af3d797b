package models

import (
	"strings"
	"time"
)

// Guest is a single entry on an event's guest list.
type Guest struct {
	Email          string
	ResponseStatus string
}

// Event represents a standard calendar event.
// This is an internal representation, independent of any specific calendar provider.
type Event struct {
	ID          string    // Unique identifier for the event within its calendar
	Title       string    // Summary or title of the event
	Description string    // Detailed description of the event
	StartTime   time.Time // Start time of the event
	EndTime     time.Time // End time of the event
	Location    string    // Location of the event
	Organizer   string    // Organizer's email, may be empty
	Guests      []Guest   // Guest list in provider order
	SourceTitle string    // Title of the source attached by the provider, if any
}

// HasGuest reports whether email is already on the guest list.
// Addresses compare case-insensitively.
func (e *Event) HasGuest(email string) bool {
	for _, g := range e.Guests {
		if strings.EqualFold(g.Email, email) {
			return true
		}
	}
	return false
}
