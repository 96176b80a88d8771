// ABOUTME: ICS (RFC 5545) encode/decode built on golang-ical
// ABOUTME: Works on a small projection type so the codec stays store-agnostic

package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Event is the projection the codec reads and writes. Times are naive
// wall-clock values in the calendar's own zone.
type Event struct {
	UID         string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// Export serializes events into an ICS document under the given product
// identifier.
func Export(prodID string, events []Event) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)
	for _, ev := range events {
		ve := cal.AddEvent(ev.UID)
		ve.SetSummary(ev.Title)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
	}
	return cal.Serialize()
}

// Parse decodes an ICS document into event projections. VEVENTs without
// a parsable DTSTART are skipped; a missing DTEND defaults to one hour
// after the start.
func Parse(data string) ([]Event, error) {
	cal, err := ical.ParseCalendar(strings.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing ics: %w", err)
	}
	var events []Event
	for _, ve := range cal.Events() {
		start, err := ve.GetStartAt()
		if err != nil {
			continue
		}
		end, err := ve.GetEndAt()
		if err != nil {
			end = start.Add(time.Hour)
		}
		ev := Event{UID: ve.Id(), Start: start, End: end}
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			ev.Title = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
			ev.Description = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
			ev.Location = p.Value
		}
		events = append(events, ev)
	}
	return events, nil
}
