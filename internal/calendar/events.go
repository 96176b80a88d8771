// ABOUTME: Event CRUD and listing: create, patch, move, duplicate, trash, day/week/month queries
// ABOUTME: Soft delete is the default removal path; deleted events stay addressable by id

package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sundial-labs/sundial/internal/store"
)

// EventPatch carries partial event updates; nil fields are untouched.
type EventPatch struct {
	Title        *string
	Description  *string
	Start        *string
	End          *string
	Status       *string
	Transparency *string
	Color        *string
}

// newEvent builds an event with the documented normalization defaults.
func newEvent(doc *store.Document, calendarID, title, now string) *store.Event {
	return &store.Event{
		ID:           store.ConsumeID(doc, "event"),
		CalendarID:   calendarID,
		Title:        title,
		Status:       store.StatusConfirmed,
		Transparency: store.TransparencyBusy,
		Reminders:    []int{},
		Attendees:    []*store.Attendee{},
		Tags:         []string{},
		Attachments:  []*store.Attachment{},
		Notes:        []*store.Note{},
		Checklist:    []*store.ChecklistItem{},
		Instances:    map[string]*store.InstanceOverride{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// EventCreate creates a timed event. End must be strictly after start.
func (s *Service) EventCreate(calendarID, title, start, end string) (*store.Event, error) {
	startAt, err := parseDateTime(start)
	if err != nil {
		return nil, err
	}
	endAt, err := parseDateTime(end)
	if err != nil {
		return nil, err
	}
	if !endAt.After(startAt) {
		return nil, fmt.Errorf("end must be after start: %w", ErrInvalidArgument)
	}

	var created *store.Event
	err = s.store.Mutate(func(doc *store.Document) error {
		if _, err := ensureCalendar(doc, calendarID); err != nil {
			return err
		}
		created = newEvent(doc, calendarID, title, s.store.Now())
		created.Start = formatDateTime(startAt)
		created.End = formatDateTime(endAt)
		doc.Events = append(doc.Events, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, s.audit("event.create", map[string]any{"event_id": created.ID, "calendar_id": calendarID})
}

// EventCreateAllDay creates an event spanning the whole of the given day.
func (s *Service) EventCreateAllDay(calendarID, title, date string) (*store.Event, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	var created *store.Event
	err = s.store.Mutate(func(doc *store.Document) error {
		if _, err := ensureCalendar(doc, calendarID); err != nil {
			return err
		}
		created = newEvent(doc, calendarID, title, s.store.Now())
		created.AllDay = true
		created.Date = formatDate(day)
		created.Start = formatDateTime(day)
		created.End = formatDateTime(day.Add(24*time.Hour - time.Second))
		doc.Events = append(doc.Events, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, s.audit("event.create_all_day", map[string]any{"event_id": created.ID, "calendar_id": calendarID})
}

// EventGet returns an event by id, deleted or not.
func (s *Service) EventGet(id string) (*store.Event, error) {
	var ev *store.Event
	err := s.store.View(func(doc *store.Document) error {
		var err error
		ev, err = ensureEvent(doc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// EventUpdate applies a partial update and refreshes updated_at.
func (s *Service) EventUpdate(id string, patch EventPatch) (*store.Event, error) {
	var updated *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, id)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			ev.Title = *patch.Title
		}
		if patch.Description != nil {
			ev.Description = *patch.Description
		}
		if patch.Start != nil {
			t, err := parseDateTime(*patch.Start)
			if err != nil {
				return err
			}
			ev.Start = formatDateTime(t)
		}
		if patch.End != nil {
			t, err := parseDateTime(*patch.End)
			if err != nil {
				return err
			}
			ev.End = formatDateTime(t)
		}
		if patch.Status != nil {
			ev.Status = *patch.Status
			ev.Cancelled = *patch.Status == store.StatusCancelled
		}
		if patch.Transparency != nil {
			ev.Transparency = *patch.Transparency
		}
		if patch.Color != nil {
			ev.Color = *patch.Color
		}
		ev.UpdatedAt = s.store.Now()
		updated = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, s.audit("event.update", map[string]any{"event_id": id})
}

// EventUpdateTitle changes the title.
func (s *Service) EventUpdateTitle(id, title string) (*store.Event, error) {
	return s.EventUpdate(id, EventPatch{Title: &title})
}

// EventUpdateTime moves the start and end.
func (s *Service) EventUpdateTime(id, start, end string) (*store.Event, error) {
	return s.EventUpdate(id, EventPatch{Start: &start, End: &end})
}

// EventUpdateDescription changes the description.
func (s *Service) EventUpdateDescription(id, description string) (*store.Event, error) {
	return s.EventUpdate(id, EventPatch{Description: &description})
}

// EventSetStatus changes the status.
func (s *Service) EventSetStatus(id, status string) (*store.Event, error) {
	return s.EventUpdate(id, EventPatch{Status: &status})
}

// EventSetTransparency sets busy/free visibility.
func (s *Service) EventSetTransparency(id, transparency string) (*store.Event, error) {
	return s.EventUpdate(id, EventPatch{Transparency: &transparency})
}

// EventSetColor assigns a display color.
func (s *Service) EventSetColor(id, color string) (*store.Event, error) {
	return s.EventUpdate(id, EventPatch{Color: &color})
}

// EventCancel marks the event cancelled without removing it.
func (s *Service) EventCancel(id string) (*store.Event, error) {
	status := store.StatusCancelled
	return s.EventUpdate(id, EventPatch{Status: &status})
}

// EventMove reassigns the event to another calendar.
func (s *Service) EventMove(id, targetCalendarID string) (*store.Event, error) {
	var moved *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, id)
		if err != nil {
			return err
		}
		if _, err := ensureCalendar(doc, targetCalendarID); err != nil {
			return err
		}
		ev.CalendarID = targetCalendarID
		ev.UpdatedAt = s.store.Now()
		moved = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, s.audit("event.move", map[string]any{"event_id": id, "calendar_id": targetCalendarID})
}

// EventDuplicate copies an event into the target calendar with a
// " (Copy)" title suffix.
func (s *Service) EventDuplicate(id, targetCalendarID string) (*store.Event, error) {
	var clone *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		original, err := ensureEvent(doc, id)
		if err != nil {
			return err
		}
		if _, err := ensureCalendar(doc, targetCalendarID); err != nil {
			return err
		}
		now := s.store.Now()
		clone = cloneEvent(original)
		clone.ID = store.ConsumeID(doc, "event")
		clone.CalendarID = targetCalendarID
		clone.Title = strings.TrimSpace(clone.Title + " (Copy)")
		clone.CreatedAt = now
		clone.UpdatedAt = now
		doc.Events = append(doc.Events, clone)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clone, s.audit("event.duplicate", map[string]any{
		"source_event": id, "new_event": clone.ID, "calendar_id": targetCalendarID,
	})
}

// EventDelete soft-deletes an event and files a trash reference.
func (s *Service) EventDelete(id string) (*store.Event, error) {
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if ev, err = ensureEvent(doc, id); err != nil {
			return err
		}
		now := s.store.Now()
		ev.Deleted = true
		ev.TrashedAt = now
		ev.UpdatedAt = now
		doc.Trash = append(doc.Trash, store.TrashRef{Type: "event", ID: id})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("event.delete", map[string]any{"event_id": id})
}

// EventRestore reverses a soft delete (and any cancellation).
func (s *Service) EventRestore(id string) (*store.Event, error) {
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if ev, err = ensureEvent(doc, id); err != nil {
			return err
		}
		ev.Deleted = false
		ev.Cancelled = false
		ev.TrashedAt = ""
		ev.UpdatedAt = s.store.Now()
		kept := doc.Trash[:0]
		for _, ref := range doc.Trash {
			if !(ref.Type == "event" && ref.ID == id) {
				kept = append(kept, ref)
			}
		}
		doc.Trash = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("event.restore", map[string]any{"event_id": id})
}

// EventListBetween returns the calendar's live events touching the
// inclusive day range [start, end].
func (s *Service) EventListBetween(calendarID string, start, end time.Time) ([]*store.Event, error) {
	var out []*store.Event
	err := s.store.View(func(doc *store.Document) error {
		for _, ev := range eventsForCalendar(doc, calendarID) {
			if withinDayRange(ev, start, end) {
				out = append(out, ev)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EventListDay lists events on a single day.
func (s *Service) EventListDay(calendarID string, day time.Time) ([]*store.Event, error) {
	return s.EventListBetween(calendarID, day, day)
}

// EventListWeek lists events in the 7 days starting at weekStart.
func (s *Service) EventListWeek(calendarID string, weekStart time.Time) ([]*store.Event, error) {
	return s.EventListBetween(calendarID, weekStart, weekStart.AddDate(0, 0, 6))
}

// EventListMonth lists events in the given calendar month.
func (s *Service) EventListMonth(calendarID string, year int, month time.Month) ([]*store.Event, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return s.EventListBetween(calendarID, first, last)
}

// EventListToday lists today's events.
func (s *Service) EventListToday(calendarID string) ([]*store.Event, error) {
	return s.EventListDay(calendarID, s.today())
}

// EventListTomorrow lists tomorrow's events.
func (s *Service) EventListTomorrow(calendarID string) ([]*store.Event, error) {
	return s.EventListDay(calendarID, s.today().AddDate(0, 0, 1))
}

// cloneEvent deep-copies an event via a JSON round trip; events are plain
// data so the round trip is lossless.
func cloneEvent(ev *store.Event) *store.Event {
	raw, err := json.Marshal(ev)
	if err != nil {
		// Event trees contain no unmarshalable values.
		panic(fmt.Sprintf("cloning event %s: %v", ev.ID, err))
	}
	var out store.Event
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("cloning event %s: %v", ev.ID, err))
	}
	return &out
}
