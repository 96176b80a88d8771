// ABOUTME: Calendar sharing, publish flags, and user preferences
// ABOUTME: ACL entries are unique by email within a calendar

package calendar

import (
	"fmt"

	"github.com/sundial-labs/sundial/internal/store"
)

// ACLAdd grants a role on the calendar to an email address. Each address
// appears at most once in a calendar's ACL.
func (s *Service) ACLAdd(calendarID, email, role string) (*store.ACLEntry, error) {
	if email == "" {
		return nil, fmt.Errorf("acl email required: %w", ErrInvalidArgument)
	}
	var entry *store.ACLEntry
	err := s.store.Mutate(func(doc *store.Document) error {
		cal, err := ensureCalendar(doc, calendarID)
		if err != nil {
			return err
		}
		for _, existing := range cal.ACL {
			if existing.Email == email {
				return fmt.Errorf("acl entry for %s already exists: %w", email, ErrInvalidArgument)
			}
		}
		entry = &store.ACLEntry{Email: email, Role: role}
		cal.ACL = append(cal.ACL, entry)
		cal.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, s.audit("calendar.acl.add", map[string]any{
		"calendar_id": calendarID, "email": email, "role": role,
	})
}

// ACLRemove revokes an email's access to the calendar.
func (s *Service) ACLRemove(calendarID, email string) error {
	err := s.store.Mutate(func(doc *store.Document) error {
		cal, err := ensureCalendar(doc, calendarID)
		if err != nil {
			return err
		}
		for i, entry := range cal.ACL {
			if entry.Email == email {
				cal.ACL = append(cal.ACL[:i], cal.ACL[i+1:]...)
				cal.UpdatedAt = s.store.Now()
				return nil
			}
		}
		return fmt.Errorf("acl entry for %s: %w", email, store.ErrNotFound)
	})
	if err != nil {
		return err
	}
	return s.audit("calendar.acl.remove", map[string]any{"calendar_id": calendarID, "email": email})
}

// ACLList returns the calendar's access entries.
func (s *Service) ACLList(calendarID string) ([]*store.ACLEntry, error) {
	cal, err := s.CalendarGet(calendarID)
	if err != nil {
		return nil, err
	}
	return cal.ACL, nil
}

// ACLSetRole changes an existing entry's role.
func (s *Service) ACLSetRole(calendarID, email, role string) (*store.ACLEntry, error) {
	var entry *store.ACLEntry
	err := s.store.Mutate(func(doc *store.Document) error {
		cal, err := ensureCalendar(doc, calendarID)
		if err != nil {
			return err
		}
		for _, existing := range cal.ACL {
			if existing.Email == email {
				existing.Role = role
				cal.UpdatedAt = s.store.Now()
				entry = existing
				return nil
			}
		}
		return fmt.Errorf("acl entry for %s: %w", email, store.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return entry, s.audit("calendar.acl.role", map[string]any{
		"calendar_id": calendarID, "email": email, "role": role,
	})
}

// PublishICS toggles the calendar's public ICS feed flag.
func (s *Service) PublishICS(calendarID string, published bool) (*store.Calendar, error) {
	var cal *store.Calendar
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if cal, err = ensureCalendar(doc, calendarID); err != nil {
			return err
		}
		cal.Settings.ICSPublished = published
		cal.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cal, s.audit("calendar.publish", map[string]any{"calendar_id": calendarID, "published": published})
}

// SetPrivacyBusyOnly hides event details from shared views, exposing
// only busy/free blocks.
func (s *Service) SetPrivacyBusyOnly(calendarID string, busyOnly bool) (*store.Calendar, error) {
	var cal *store.Calendar
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if cal, err = ensureCalendar(doc, calendarID); err != nil {
			return err
		}
		cal.Settings.PrivacyBusyOnly = busyOnly
		cal.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cal, s.audit("calendar.privacy", map[string]any{"calendar_id": calendarID, "busy_only": busyOnly})
}

// PreferencesGet returns the user-level defaults.
func (s *Service) PreferencesGet() (*store.Preferences, error) {
	var prefs store.Preferences
	err := s.store.View(func(doc *store.Document) error {
		prefs = doc.Preferences
		return nil
	})
	return &prefs, err
}

// PreferencesSet overwrites the user-level defaults wholesale.
func (s *Service) PreferencesSet(prefs store.Preferences) (*store.Preferences, error) {
	var out store.Preferences
	err := s.store.Mutate(func(doc *store.Document) error {
		doc.Preferences = prefs
		out = doc.Preferences
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, s.audit("prefs.set", nil)
}

func (s *Service) setPref(action string, apply func(p *store.Preferences)) (*store.Preferences, error) {
	var prefs store.Preferences
	err := s.store.Mutate(func(doc *store.Document) error {
		apply(&doc.Preferences)
		prefs = doc.Preferences
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &prefs, s.audit(action, nil)
}

// PreferencesSetTimezone records the user's home timezone name.
func (s *Service) PreferencesSetTimezone(tz string) (*store.Preferences, error) {
	return s.setPref("prefs.timezone", func(p *store.Preferences) { p.Timezone = tz })
}

// PreferencesSetWeekStart records which weekday starts the week.
func (s *Service) PreferencesSetWeekStart(weekday string) (*store.Preferences, error) {
	return s.setPref("prefs.week_start", func(p *store.Preferences) { p.WeekStart = weekday })
}

// PreferencesSetWorkHours bounds the working day.
func (s *Service) PreferencesSetWorkHours(start, end string) (*store.Preferences, error) {
	return s.setPref("prefs.work_hours", func(p *store.Preferences) {
		p.WorkHours = store.WorkHours{Start: start, End: end}
	})
}

// PreferencesSetDefaultCalendar picks the calendar new events land on.
func (s *Service) PreferencesSetDefaultCalendar(calendarID string) (*store.Preferences, error) {
	if _, err := s.CalendarGet(calendarID); err != nil {
		return nil, err
	}
	return s.setPref("prefs.default_calendar", func(p *store.Preferences) {
		p.DefaultCalendarID = calendarID
	})
}

// PreferencesSetDefaultDuration sets the fallback event length in minutes.
func (s *Service) PreferencesSetDefaultDuration(minutes int) (*store.Preferences, error) {
	if minutes < 1 {
		return nil, fmt.Errorf("default duration must be positive: %w", ErrInvalidArgument)
	}
	return s.setPref("prefs.default_duration", func(p *store.Preferences) {
		p.DefaultDuration = minutes
	})
}
