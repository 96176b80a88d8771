// ABOUTME: Tag registry and event tagging
// ABOUTME: Tags are referenced by ID from events; deleting a tag detaches it everywhere

package calendar

import (
	"fmt"

	"github.com/sundial-labs/sundial/internal/store"
)

// TagCreate registers a new tag.
func (s *Service) TagCreate(name string) (*store.Tag, error) {
	if name == "" {
		return nil, fmt.Errorf("tag name required: %w", ErrInvalidArgument)
	}
	var tag *store.Tag
	err := s.store.Mutate(func(doc *store.Document) error {
		tag = &store.Tag{ID: store.ConsumeID(doc, "tag"), Name: name}
		doc.Tags = append(doc.Tags, tag)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, s.audit("tag.create", map[string]any{"tag_id": tag.ID, "name": name})
}

// TagList returns every registered tag.
func (s *Service) TagList() ([]*store.Tag, error) {
	var tags []*store.Tag
	err := s.store.View(func(doc *store.Document) error {
		tags = doc.Tags
		return nil
	})
	return tags, err
}

// TagRename changes a tag's display name; events keep their references.
func (s *Service) TagRename(tagID, name string) (*store.Tag, error) {
	var tag *store.Tag
	err := s.store.Mutate(func(doc *store.Document) error {
		tag = doc.TagByID(tagID)
		if tag == nil {
			return fmt.Errorf("tag %s: %w", tagID, store.ErrNotFound)
		}
		tag.Name = name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, s.audit("tag.rename", map[string]any{"tag_id": tagID, "name": name})
}

// TagDelete removes a tag from the registry and detaches it from every
// event that carried it.
func (s *Service) TagDelete(tagID string) error {
	err := s.store.Mutate(func(doc *store.Document) error {
		found := false
		for i, tag := range doc.Tags {
			if tag.ID == tagID {
				doc.Tags = append(doc.Tags[:i], doc.Tags[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("tag %s: %w", tagID, store.ErrNotFound)
		}
		now := s.store.Now()
		for _, ev := range doc.Events {
			for i, id := range ev.Tags {
				if id == tagID {
					ev.Tags = append(ev.Tags[:i], ev.Tags[i+1:]...)
					ev.UpdatedAt = now
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.audit("tag.delete", map[string]any{"tag_id": tagID})
}

// EventTagAttach links an existing tag to an event. The tag must be
// registered; attaching twice is a no-op.
func (s *Service) EventTagAttach(eventID, tagID string) (*store.Event, error) {
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		if doc.TagByID(tagID) == nil {
			return fmt.Errorf("tag %s: %w", tagID, store.ErrNotFound)
		}
		var err error
		if ev, err = ensureEvent(doc, eventID); err != nil {
			return err
		}
		for _, id := range ev.Tags {
			if id == tagID {
				return nil
			}
		}
		ev.Tags = append(ev.Tags, tagID)
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("event.tag.attach", map[string]any{"event_id": eventID, "tag_id": tagID})
}

// EventTagDetach unlinks a tag from an event.
func (s *Service) EventTagDetach(eventID, tagID string) (*store.Event, error) {
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if ev, err = ensureEvent(doc, eventID); err != nil {
			return err
		}
		for i, id := range ev.Tags {
			if id == tagID {
				ev.Tags = append(ev.Tags[:i], ev.Tags[i+1:]...)
				ev.UpdatedAt = s.store.Now()
				return nil
			}
		}
		return fmt.Errorf("tag %s not on event: %w", tagID, store.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("event.tag.detach", map[string]any{"event_id": eventID, "tag_id": tagID})
}

// EventListByTag returns live events carrying the tag.
func (s *Service) EventListByTag(tagID string) ([]*store.Event, error) {
	var out []*store.Event
	err := s.store.View(func(doc *store.Document) error {
		if doc.TagByID(tagID) == nil {
			return fmt.Errorf("tag %s: %w", tagID, store.ErrNotFound)
		}
		for _, ev := range doc.Events {
			if ev.Deleted {
				continue
			}
			for _, id := range ev.Tags {
				if id == tagID {
					out = append(out, ev)
					break
				}
			}
		}
		return nil
	})
	return out, err
}
