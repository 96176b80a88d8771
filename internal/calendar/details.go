// ABOUTME: Event detail records: location, attachments, notes, checklist
// ABOUTME: Location is free text or coordinates, never both at once

package calendar

import (
	"fmt"

	"github.com/sundial-labs/sundial/internal/store"
)

// LocationGet returns the event's location, nil when none is set.
func (s *Service) LocationGet(eventID string) (*store.Location, error) {
	ev, err := s.EventGet(eventID)
	if err != nil {
		return nil, err
	}
	return ev.Location, nil
}

// LocationSetText records a free-text location, replacing any coordinates.
func (s *Service) LocationSetText(eventID, text string) (*store.Event, error) {
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if ev, err = ensureEvent(doc, eventID); err != nil {
			return err
		}
		ev.Location = &store.Location{Text: text}
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("event.location.set", map[string]any{"event_id": eventID})
}

// LocationSetCoords records a coordinate location, replacing any text.
func (s *Service) LocationSetCoords(eventID string, lat, lon float64) (*store.Event, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("coordinates out of range: %w", ErrInvalidArgument)
	}
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if ev, err = ensureEvent(doc, eventID); err != nil {
			return err
		}
		ev.Location = &store.Location{Lat: &lat, Lon: &lon}
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("event.location.set", map[string]any{"event_id": eventID})
}

// LocationClear removes the event's location.
func (s *Service) LocationClear(eventID string) (*store.Event, error) {
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if ev, err = ensureEvent(doc, eventID); err != nil {
			return err
		}
		ev.Location = nil
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("event.location.clear", map[string]any{"event_id": eventID})
}

// AttachmentAddURL links a URL attachment to the event.
func (s *Service) AttachmentAddURL(eventID, url string) (*store.Attachment, error) {
	if url == "" {
		return nil, fmt.Errorf("attachment url required: %w", ErrInvalidArgument)
	}
	return s.attachmentAdd(eventID, &store.Attachment{Type: store.AttachmentURL, URL: url})
}

// AttachmentAddFile links a file reference to the event.
func (s *Service) AttachmentAddFile(eventID, fileID string) (*store.Attachment, error) {
	if fileID == "" {
		return nil, fmt.Errorf("attachment file id required: %w", ErrInvalidArgument)
	}
	return s.attachmentAdd(eventID, &store.Attachment{Type: store.AttachmentFile, FileID: fileID})
}

func (s *Service) attachmentAdd(eventID string, att *store.Attachment) (*store.Attachment, error) {
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, eventID)
		if err != nil {
			return err
		}
		att.ID = store.ConsumeID(doc, "att")
		ev.Attachments = append(ev.Attachments, att)
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return att, s.audit("event.attachment.add", map[string]any{"event_id": eventID, "attachment_id": att.ID})
}

// AttachmentList returns the event's attachments.
func (s *Service) AttachmentList(eventID string) ([]*store.Attachment, error) {
	ev, err := s.EventGet(eventID)
	if err != nil {
		return nil, err
	}
	return ev.Attachments, nil
}

// AttachmentRemove drops one attachment by ID.
func (s *Service) AttachmentRemove(eventID, attachmentID string) error {
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, eventID)
		if err != nil {
			return err
		}
		for i, att := range ev.Attachments {
			if att.ID == attachmentID {
				ev.Attachments = append(ev.Attachments[:i], ev.Attachments[i+1:]...)
				ev.UpdatedAt = s.store.Now()
				return nil
			}
		}
		return fmt.Errorf("attachment %s: %w", attachmentID, store.ErrNotFound)
	})
	if err != nil {
		return err
	}
	return s.audit("event.attachment.remove", map[string]any{"event_id": eventID, "attachment_id": attachmentID})
}

// AttachmentClear removes every attachment from the event.
func (s *Service) AttachmentClear(eventID string) error {
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, eventID)
		if err != nil {
			return err
		}
		ev.Attachments = nil
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return err
	}
	return s.audit("event.attachment.clear", map[string]any{"event_id": eventID})
}

// NoteAdd appends a free-text note to the event.
func (s *Service) NoteAdd(eventID, text string) (*store.Note, error) {
	if text == "" {
		return nil, fmt.Errorf("note text required: %w", ErrInvalidArgument)
	}
	var note *store.Note
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, eventID)
		if err != nil {
			return err
		}
		note = &store.Note{ID: store.ConsumeID(doc, "note"), Text: text}
		ev.Notes = append(ev.Notes, note)
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return note, s.audit("event.note.add", map[string]any{"event_id": eventID, "note_id": note.ID})
}

// NoteList returns the event's notes in insertion order.
func (s *Service) NoteList(eventID string) ([]*store.Note, error) {
	ev, err := s.EventGet(eventID)
	if err != nil {
		return nil, err
	}
	return ev.Notes, nil
}

// NoteUpdate replaces a note's text. Notes are looked up across all
// events since note IDs are globally unique.
func (s *Service) NoteUpdate(noteID, text string) (*store.Note, error) {
	var note *store.Note
	var eventID string
	err := s.store.Mutate(func(doc *store.Document) error {
		for _, ev := range doc.Events {
			for _, n := range ev.Notes {
				if n.ID == noteID {
					n.Text = text
					ev.UpdatedAt = s.store.Now()
					note = n
					eventID = ev.ID
					return nil
				}
			}
		}
		return fmt.Errorf("note %s: %w", noteID, store.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return note, s.audit("event.note.update", map[string]any{"event_id": eventID, "note_id": noteID})
}

// NoteRemove deletes a note by ID, wherever it lives.
func (s *Service) NoteRemove(noteID string) error {
	var eventID string
	err := s.store.Mutate(func(doc *store.Document) error {
		for _, ev := range doc.Events {
			for i, n := range ev.Notes {
				if n.ID == noteID {
					ev.Notes = append(ev.Notes[:i], ev.Notes[i+1:]...)
					ev.UpdatedAt = s.store.Now()
					eventID = ev.ID
					return nil
				}
			}
		}
		return fmt.Errorf("note %s: %w", noteID, store.ErrNotFound)
	})
	if err != nil {
		return err
	}
	return s.audit("event.note.remove", map[string]any{"event_id": eventID, "note_id": noteID})
}

// ChecklistToggle flips one checklist item. Toggling an item that does
// not exist yet creates it in the checked state.
func (s *Service) ChecklistToggle(eventID, itemID string) (*store.ChecklistItem, error) {
	var item *store.ChecklistItem
	err := s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, eventID)
		if err != nil {
			return err
		}
		for _, existing := range ev.Checklist {
			if existing.ID == itemID {
				existing.Checked = !existing.Checked
				ev.UpdatedAt = s.store.Now()
				item = existing
				return nil
			}
		}
		item = &store.ChecklistItem{ID: itemID, Checked: true}
		ev.Checklist = append(ev.Checklist, item)
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, s.audit("event.checklist.toggle", map[string]any{"event_id": eventID, "item_id": itemID})
}

// ChecklistList returns the event's checklist items.
func (s *Service) ChecklistList(eventID string) ([]*store.ChecklistItem, error) {
	ev, err := s.EventGet(eventID)
	if err != nil {
		return nil, err
	}
	return ev.Checklist, nil
}
