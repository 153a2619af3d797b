package snapshot

import (
	"fmt"
	"io"
	"os"
	"time"

	"calguard/internal/models"

	"github.com/emersion/go-ical"
)

// Write encodes the events as a single iCalendar document.
func Write(w io.Writer, events []*models.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//calguard//EN")
	for _, event := range events {
		cal.Children = append(cal.Children, toComponent(event))
	}
	return ical.NewEncoder(w).Encode(cal)
}

// WriteFile writes the snapshot document to path, replacing any previous one.
func WriteFile(path string, events []*models.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create snapshot file: %w", err)
	}
	defer f.Close()

	if err := Write(f, events); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// toComponent converts an internal Event model to an ical.Component (VEVENT).
func toComponent(event *models.Event) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.ID)
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime)

	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}
	if event.Organizer != "" {
		p := ical.NewProp(ical.PropOrganizer)
		p.SetText(fmt.Sprintf("mailto:%s", event.Organizer))
		ve.Props.Add(p)
	}
	for _, g := range event.Guests {
		p := ical.NewProp(ical.PropAttendee)
		p.SetText(fmt.Sprintf("mailto:%s", g.Email))
		ve.Props.Add(p)
	}
	return ve
}
