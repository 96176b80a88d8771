// ABOUTME: Service is the domain API over the document store
// ABOUTME: Shared helpers for time parsing, entity lookup and audit recording

package calendar

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sundial-labs/sundial/internal/availability"
	"github.com/sundial-labs/sundial/internal/store"
)

// ErrInvalidArgument is returned for malformed dates, out-of-range values
// and duplicate sub-entries. It is never retried internally.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNoSlot mirrors the availability engine's exhausted-window outcome so
// callers only need this package to classify errors.
var ErrNoSlot = availability.ErrNoSlot

// Service exposes every calendar operation. All writes funnel through the
// store's transaction primitive and record exactly one audit entry after
// the mutation commits; reads never audit.
type Service struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a service over the given store.
func New(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		logger: logger.With("component", "calendar"),
		now:    time.Now,
	}
}

// Store exposes the underlying store for callers that drive sync directly.
func (s *Service) Store() *store.Store { return s.store }

func (s *Service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// audit records the entry for a committed write. An audit write failure
// is a persistence failure and propagates to the caller.
func (s *Service) audit(action string, metadata map[string]any) error {
	if _, err := s.store.RecordAudit(action, metadata); err != nil {
		return fmt.Errorf("recording audit for %s: %w", action, err)
	}
	return nil
}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

var dateTimeLayouts = []string{
	dateTimeLayout,
	"2006-01-02T15:04",
	time.RFC3339,
}

// parseDateTime accepts ISO-8601 datetime text, with or without seconds
// or a zone suffix.
func parseDateTime(value string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("datetime must be ISO 8601 format, got %q: %w", value, ErrInvalidArgument)
}

// parseDate accepts an ISO date (YYYY-MM-DD).
func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD, got %q: %w", value, ErrInvalidArgument)
	}
	return t, nil
}

func formatDateTime(t time.Time) string { return t.Format(dateTimeLayout) }

func formatDate(t time.Time) string { return t.Format(dateLayout) }

func notFoundCalendar(id string) error {
	return fmt.Errorf("calendar %s: %w", id, store.ErrNotFound)
}

// ensureCalendar returns the non-deleted calendar with the given id.
func ensureCalendar(doc *store.Document, id string) (*store.Calendar, error) {
	if cal := doc.CalendarByID(id); cal != nil && !cal.Deleted {
		return cal, nil
	}
	return nil, fmt.Errorf("calendar %s: %w", id, store.ErrNotFound)
}

// ensureEvent returns the event with the given id. Soft-deleted events
// stay addressable so audit, restore and export keep working.
func ensureEvent(doc *store.Document, id string) (*store.Event, error) {
	if ev := doc.EventByID(id); ev != nil {
		return ev, nil
	}
	return nil, fmt.Errorf("event %s: %w", id, store.ErrNotFound)
}

// eventsForCalendar filters to the calendar's live (non-deleted) events.
func eventsForCalendar(doc *store.Document, calendarID string) []*store.Event {
	var out []*store.Event
	for _, ev := range doc.Events {
		if ev.CalendarID == calendarID && !ev.Deleted {
			out = append(out, ev)
		}
	}
	return out
}

func dayOf(value string) (time.Time, bool) {
	if len(value) < len(dateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, value[:len(dateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// withinDayRange reports whether the event touches the inclusive day
// range [start, end].
func withinDayRange(ev *store.Event, start, end time.Time) bool {
	if ev.AllDay {
		day, ok := dayOf(ev.Date)
		if !ok {
			return false
		}
		return !day.Before(start) && !day.After(end)
	}
	evStart, okS := dayOf(ev.Start)
	evEnd, okE := dayOf(ev.End)
	if !okS || !okE {
		return false
	}
	return !evStart.After(end) && !evEnd.Before(start)
}
