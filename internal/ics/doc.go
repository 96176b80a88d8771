// ABOUTME: Package doc for the ICS codec
// ABOUTME: Describes the projection boundary between wire format and store

// Package ics converts between the store's event records and the
// iCalendar wire format. It deliberately round-trips only the fields
// both sides understand: summary, description, location, and the
// start/end pair.
package ics
