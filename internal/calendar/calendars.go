// ABOUTME: Calendar CRUD: create, list, update, default selection, copy, trash
// ABOUTME: At most one non-deleted calendar is the default at any time

package calendar

import (
	"strings"

	"github.com/sundial-labs/sundial/internal/store"
)

// CalendarPatch carries partial calendar updates; nil fields are untouched.
type CalendarPatch struct {
	Name     *string
	Color    *string
	Timezone *string
	Archived *bool
	Settings *SettingsPatch
}

// SettingsPatch carries partial calendar-settings updates.
type SettingsPatch struct {
	ICSPublished    *bool
	PrivacyBusyOnly *bool
	DefaultReminder *int
}

// CalendarCreate creates a calendar. The first calendar ever created
// becomes the default.
func (s *Service) CalendarCreate(name string) (*store.Calendar, error) {
	var created *store.Calendar
	err := s.store.Mutate(func(doc *store.Document) error {
		now := s.store.Now()
		created = &store.Calendar{
			ID:        store.ConsumeID(doc, "calendar"),
			Name:      name,
			Timezone:  doc.Preferences.Timezone,
			CreatedAt: now,
			UpdatedAt: now,
			ACL:       []*store.ACLEntry{},
		}
		doc.Calendars = append(doc.Calendars, created)
		if doc.Preferences.DefaultCalendarID == "" {
			created.IsDefault = true
			doc.Preferences.DefaultCalendarID = created.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, s.audit("calendar.create", map[string]any{"calendar_id": created.ID})
}

// CalendarGet returns a calendar by id, deleted or not.
func (s *Service) CalendarGet(id string) (*store.Calendar, error) {
	var cal *store.Calendar
	err := s.store.View(func(doc *store.Document) error {
		if cal = doc.CalendarByID(id); cal == nil {
			return notFoundCalendar(id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cal, nil
}

// CalendarList returns all non-deleted calendars.
func (s *Service) CalendarList() ([]*store.Calendar, error) {
	var out []*store.Calendar
	err := s.store.View(func(doc *store.Document) error {
		for _, cal := range doc.Calendars {
			if !cal.Deleted {
				out = append(out, cal)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CalendarUpdate applies a partial update and refreshes updated_at.
func (s *Service) CalendarUpdate(id string, patch CalendarPatch) (*store.Calendar, error) {
	var updated *store.Calendar
	err := s.store.Mutate(func(doc *store.Document) error {
		cal := doc.CalendarByID(id)
		if cal == nil {
			return notFoundCalendar(id)
		}
		if patch.Name != nil {
			cal.Name = *patch.Name
		}
		if patch.Color != nil {
			cal.Color = *patch.Color
		}
		if patch.Timezone != nil {
			cal.Timezone = *patch.Timezone
		}
		if patch.Archived != nil {
			cal.Archived = *patch.Archived
		}
		if patch.Settings != nil {
			if patch.Settings.ICSPublished != nil {
				cal.Settings.ICSPublished = *patch.Settings.ICSPublished
			}
			if patch.Settings.PrivacyBusyOnly != nil {
				cal.Settings.PrivacyBusyOnly = *patch.Settings.PrivacyBusyOnly
			}
			if patch.Settings.DefaultReminder != nil {
				cal.Settings.DefaultReminder = *patch.Settings.DefaultReminder
			}
		}
		cal.UpdatedAt = s.store.Now()
		updated = cal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, s.audit("calendar.update", map[string]any{"calendar_id": id})
}

// CalendarRename changes the display name.
func (s *Service) CalendarRename(id, name string) (*store.Calendar, error) {
	return s.CalendarUpdate(id, CalendarPatch{Name: &name})
}

// CalendarSetColor assigns a display color.
func (s *Service) CalendarSetColor(id, color string) (*store.Calendar, error) {
	return s.CalendarUpdate(id, CalendarPatch{Color: &color})
}

// CalendarSetTimezone sets the calendar timezone.
func (s *Service) CalendarSetTimezone(id, tz string) (*store.Calendar, error) {
	return s.CalendarUpdate(id, CalendarPatch{Timezone: &tz})
}

// CalendarSetDefault makes the given calendar the single default.
func (s *Service) CalendarSetDefault(id string) (*store.Calendar, error) {
	var target *store.Calendar
	err := s.store.Mutate(func(doc *store.Document) error {
		for _, cal := range doc.Calendars {
			cal.IsDefault = cal.ID == id
			if cal.ID == id {
				target = cal
				cal.UpdatedAt = s.store.Now()
			}
		}
		if target == nil {
			return notFoundCalendar(id)
		}
		doc.Preferences.DefaultCalendarID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, s.audit("calendar.set_default", map[string]any{"calendar_id": id})
}

// CalendarCopy clones a calendar and its live events under a new name.
// Copied event titles gain a " (Copy)" suffix.
func (s *Service) CalendarCopy(id, name string) (*store.Calendar, error) {
	var replica *store.Calendar
	err := s.store.Mutate(func(doc *store.Document) error {
		source := doc.CalendarByID(id)
		if source == nil {
			return notFoundCalendar(id)
		}
		now := s.store.Now()
		replica = &store.Calendar{
			ID:        store.ConsumeID(doc, "calendar"),
			Name:      name,
			Color:     source.Color,
			Timezone:  source.Timezone,
			CreatedAt: now,
			UpdatedAt: now,
			Settings:  source.Settings,
			ACL:       cloneACL(source.ACL),
		}
		doc.Calendars = append(doc.Calendars, replica)
		for _, ev := range doc.Events {
			if ev.CalendarID != id || ev.Deleted {
				continue
			}
			clone := cloneEvent(ev)
			clone.ID = store.ConsumeID(doc, "event")
			clone.CalendarID = replica.ID
			clone.Title = strings.TrimSpace(clone.Title + " (Copy)")
			clone.CreatedAt = now
			clone.UpdatedAt = now
			doc.Events = append(doc.Events, clone)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return replica, s.audit("calendar.copy", map[string]any{"calendar_id": id, "new_calendar": replica.ID})
}

// CalendarDelete soft-deletes a calendar and files a trash reference.
func (s *Service) CalendarDelete(id string) (*store.Calendar, error) {
	var cal *store.Calendar
	err := s.store.Mutate(func(doc *store.Document) error {
		if cal = doc.CalendarByID(id); cal == nil {
			return notFoundCalendar(id)
		}
		cal.Deleted = true
		cal.UpdatedAt = s.store.Now()
		doc.Trash = append(doc.Trash, store.TrashRef{Type: "calendar", ID: id})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cal, s.audit("calendar.delete", map[string]any{"calendar_id": id})
}

// CalendarRestore brings a soft-deleted calendar back.
func (s *Service) CalendarRestore(id string) (*store.Calendar, error) {
	var cal *store.Calendar
	err := s.store.Mutate(func(doc *store.Document) error {
		if cal = doc.CalendarByID(id); cal == nil {
			return notFoundCalendar(id)
		}
		cal.Deleted = false
		cal.UpdatedAt = s.store.Now()
		kept := doc.Trash[:0]
		for _, ref := range doc.Trash {
			if !(ref.Type == "calendar" && ref.ID == id) {
				kept = append(kept, ref)
			}
		}
		doc.Trash = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cal, s.audit("calendar.restore", map[string]any{"calendar_id": id})
}

// CalendarArchive marks a calendar as archived without deleting it.
func (s *Service) CalendarArchive(id string) (*store.Calendar, error) {
	archived := true
	cal, err := s.CalendarUpdate(id, CalendarPatch{Archived: &archived})
	if err != nil {
		return nil, err
	}
	return cal, nil
}

func cloneACL(acl []*store.ACLEntry) []*store.ACLEntry {
	out := make([]*store.ACLEntry, 0, len(acl))
	for _, entry := range acl {
		copied := *entry
		out = append(out, &copied)
	}
	return out
}
