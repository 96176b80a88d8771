// ABOUTME: Attendee rosters and reminder offsets on events
// ABOUTME: Attendees are unique by email; reminder offsets are unique and kept sorted

package calendar

import (
	"fmt"
	"sort"

	"github.com/sundial-labs/sundial/internal/store"
)

// AttendeeAdd puts a new attendee on the event. A duplicate email is an
// error; the roster is keyed by address.
func (s *Service) AttendeeAdd(eventID, email string, optional bool) (*store.Attendee, error) {
	if email == "" {
		return nil, fmt.Errorf("attendee email required: %w", ErrInvalidArgument)
	}
	var att *store.Attendee
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, eventID)
		if err != nil {
			return err
		}
		for _, existing := range ev.Attendees {
			if existing.Email == email {
				return fmt.Errorf("attendee %s already on event: %w", email, ErrInvalidArgument)
			}
		}
		att = &store.Attendee{
			Email:    email,
			Optional: optional,
			Response: "needs-action",
			Role:     "attendee",
		}
		ev.Attendees = append(ev.Attendees, att)
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return att, s.audit("event.attendee.add", map[string]any{"event_id": eventID, "email": email})
}

// AttendeeRemove drops an attendee by email.
func (s *Service) AttendeeRemove(eventID, email string) error {
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, eventID)
		if err != nil {
			return err
		}
		for i, att := range ev.Attendees {
			if att.Email == email {
				ev.Attendees = append(ev.Attendees[:i], ev.Attendees[i+1:]...)
				ev.UpdatedAt = s.store.Now()
				return nil
			}
		}
		return fmt.Errorf("attendee %s: %w", email, store.ErrNotFound)
	})
	if err != nil {
		return err
	}
	return s.audit("event.attendee.remove", map[string]any{"event_id": eventID, "email": email})
}

// AttendeeList returns the event's roster.
func (s *Service) AttendeeList(eventID string) ([]*store.Attendee, error) {
	ev, err := s.EventGet(eventID)
	if err != nil {
		return nil, err
	}
	return ev.Attendees, nil
}

func (s *Service) attendeeSet(eventID, email string, apply func(*store.Attendee)) (*store.Attendee, error) {
	var att *store.Attendee
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, eventID)
		if err != nil {
			return err
		}
		for _, existing := range ev.Attendees {
			if existing.Email == email {
				att = existing
				apply(att)
				ev.UpdatedAt = s.store.Now()
				return nil
			}
		}
		return fmt.Errorf("attendee %s: %w", email, store.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return att, s.audit("event.attendee.update", map[string]any{"event_id": eventID, "email": email})
}

// AttendeeSetName records a display name for an attendee.
func (s *Service) AttendeeSetName(eventID, email, name string) (*store.Attendee, error) {
	return s.attendeeSet(eventID, email, func(a *store.Attendee) { a.Name = name })
}

// AttendeeSetResponse records an RSVP such as "accepted" or "declined".
func (s *Service) AttendeeSetResponse(eventID, email, response string) (*store.Attendee, error) {
	return s.attendeeSet(eventID, email, func(a *store.Attendee) { a.Response = response })
}

// AttendeeSetRole marks an attendee as e.g. "chair" or "attendee".
func (s *Service) AttendeeSetRole(eventID, email, role string) (*store.Attendee, error) {
	return s.attendeeSet(eventID, email, func(a *store.Attendee) { a.Role = role })
}

// ReminderAdd registers a minutes-before-start reminder on the event.
// Offsets must be non-negative and unique; the list stays sorted.
func (s *Service) ReminderAdd(eventID string, minutesBefore int) ([]int, error) {
	if minutesBefore < 0 {
		return nil, fmt.Errorf("reminder offset must be non-negative: %w", ErrInvalidArgument)
	}
	var reminders []int
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, eventID)
		if err != nil {
			return err
		}
		for _, existing := range ev.Reminders {
			if existing == minutesBefore {
				return fmt.Errorf("reminder at %d minutes already set: %w", minutesBefore, ErrInvalidArgument)
			}
		}
		ev.Reminders = append(ev.Reminders, minutesBefore)
		sort.Ints(ev.Reminders)
		ev.UpdatedAt = s.store.Now()
		reminders = ev.Reminders
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reminders, s.audit("event.reminder.add", map[string]any{"event_id": eventID, "minutes": minutesBefore})
}

// ReminderRemove drops one reminder offset.
func (s *Service) ReminderRemove(eventID string, minutesBefore int) error {
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, eventID)
		if err != nil {
			return err
		}
		for i, existing := range ev.Reminders {
			if existing == minutesBefore {
				ev.Reminders = append(ev.Reminders[:i], ev.Reminders[i+1:]...)
				ev.UpdatedAt = s.store.Now()
				return nil
			}
		}
		return fmt.Errorf("reminder at %d minutes: %w", minutesBefore, store.ErrNotFound)
	})
	if err != nil {
		return err
	}
	return s.audit("event.reminder.remove", map[string]any{"event_id": eventID, "minutes": minutesBefore})
}

// ReminderList returns the event's reminder offsets in ascending order.
func (s *Service) ReminderList(eventID string) ([]int, error) {
	ev, err := s.EventGet(eventID)
	if err != nil {
		return nil, err
	}
	return ev.Reminders, nil
}

// ReminderClear removes every reminder from the event.
func (s *Service) ReminderClear(eventID string) error {
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, eventID)
		if err != nil {
			return err
		}
		ev.Reminders = nil
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return err
	}
	return s.audit("event.reminder.clear", map[string]any{"event_id": eventID})
}

// ReminderSetDefault records the calendar-wide default reminder offset.
func (s *Service) ReminderSetDefault(calendarID string, minutesBefore int) (*store.Calendar, error) {
	if minutesBefore < 0 {
		return nil, fmt.Errorf("reminder offset must be non-negative: %w", ErrInvalidArgument)
	}
	var cal *store.Calendar
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if cal, err = ensureCalendar(doc, calendarID); err != nil {
			return err
		}
		cal.Settings.DefaultReminder = minutesBefore
		cal.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cal, s.audit("calendar.reminder.default", map[string]any{
		"calendar_id": calendarID, "minutes": minutesBefore,
	})
}

// ReminderSnooze records a snooze for a fired reminder, without touching
// the offset list.
func (s *Service) ReminderSnooze(eventID string, minutes int) (*store.Snooze, error) {
	if minutes < 1 {
		return nil, fmt.Errorf("snooze minutes must be positive: %w", ErrInvalidArgument)
	}
	var snooze *store.Snooze
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, eventID)
		if err != nil {
			return err
		}
		snooze = &store.Snooze{Minutes: minutes, Timestamp: s.store.Now()}
		ev.Snoozed = append(ev.Snoozed, *snooze)
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snooze, s.audit("event.reminder.snooze", map[string]any{
		"event_id": eventID, "minutes": minutes,
	})
}
