// ABOUTME: Reusable event templates
// ABOUTME: A template carries a name and a duration; instantiation stamps an event at 09:00

package calendar

import (
	"fmt"
	"time"

	"github.com/sundial-labs/sundial/internal/store"
)

// TemplateCreate registers a named event blueprint.
func (s *Service) TemplateCreate(name string, minutes int) (*store.Template, error) {
	if name == "" {
		return nil, fmt.Errorf("template name required: %w", ErrInvalidArgument)
	}
	if minutes < 1 {
		return nil, fmt.Errorf("template minutes must be positive: %w", ErrInvalidArgument)
	}
	var tpl *store.Template
	err := s.store.Mutate(func(doc *store.Document) error {
		tpl = &store.Template{ID: store.ConsumeID(doc, "tpl"), Name: name, Minutes: minutes}
		doc.Templates = append(doc.Templates, tpl)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tpl, s.audit("template.create", map[string]any{"template_id": tpl.ID, "name": name})
}

// TemplateGet looks up one template.
func (s *Service) TemplateGet(id string) (*store.Template, error) {
	var tpl *store.Template
	err := s.store.View(func(doc *store.Document) error {
		tpl = doc.TemplateByID(id)
		if tpl == nil {
			return fmt.Errorf("template %s: %w", id, store.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// TemplateList returns every registered template.
func (s *Service) TemplateList() ([]*store.Template, error) {
	var templates []*store.Template
	err := s.store.View(func(doc *store.Document) error {
		templates = doc.Templates
		return nil
	})
	return templates, err
}

// TemplateRename changes a template's name.
func (s *Service) TemplateRename(id, name string) (*store.Template, error) {
	var tpl *store.Template
	err := s.store.Mutate(func(doc *store.Document) error {
		tpl = doc.TemplateByID(id)
		if tpl == nil {
			return fmt.Errorf("template %s: %w", id, store.ErrNotFound)
		}
		tpl.Name = name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tpl, s.audit("template.rename", map[string]any{"template_id": id, "name": name})
}

// TemplateDelete removes a template; events created from it are untouched.
func (s *Service) TemplateDelete(id string) error {
	err := s.store.Mutate(func(doc *store.Document) error {
		for i, tpl := range doc.Templates {
			if tpl.ID == id {
				doc.Templates = append(doc.Templates[:i], doc.Templates[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("template %s: %w", id, store.ErrNotFound)
	})
	if err != nil {
		return err
	}
	return s.audit("template.delete", map[string]any{"template_id": id})
}

// TemplateInstantiate stamps an event from the template on the given day,
// starting at 09:00 and running for the template's duration.
func (s *Service) TemplateInstantiate(templateID, calendarID string, day time.Time) (*store.Event, error) {
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		tpl := doc.TemplateByID(templateID)
		if tpl == nil {
			return fmt.Errorf("template %s: %w", templateID, store.ErrNotFound)
		}
		if _, err := ensureCalendar(doc, calendarID); err != nil {
			return err
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC)
		ev = newEvent(doc, calendarID, tpl.Name, s.store.Now())
		ev.Start = formatDateTime(start)
		ev.End = formatDateTime(start.Add(time.Duration(tpl.Minutes) * time.Minute))
		doc.Events = append(doc.Events, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("template.instantiate", map[string]any{
		"template_id": templateID, "event_id": ev.ID,
	})
}
