package models

import "testing"

func TestHasGuest(t *testing.T) {
	event := Event{Guests: []Guest{
		{Email: "A@X.COM", ResponseStatus: "accepted"},
		{Email: "b@x.com", ResponseStatus: "needsAction"},
	}}

	if !event.HasGuest("a@x.com") {
		t.Error("expected case-insensitive match for a@x.com")
	}
	if !event.HasGuest("B@x.Com") {
		t.Error("expected case-insensitive match for b@x.com")
	}
	if event.HasGuest("c@x.com") {
		t.Error("did not expect match for c@x.com")
	}

	empty := Event{}
	if empty.HasGuest("a@x.com") {
		t.Error("empty guest list should never match")
	}
}
