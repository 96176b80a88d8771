// ABOUTME: The top-level document tree persisted as a single JSON file
// ABOUTME: Default skeleton, forward-compatible backfill, and deep cloning

package store

import (
	"encoding/json"
	"fmt"
)

// Document is the full in-memory state. Every mutation operates on a copy
// of it and the whole tree is rewritten to disk on commit.
type Document struct {
	Calendars     []*Calendar     `json:"calendars"`
	Events        []*Event        `json:"events"`
	Templates     []*Template     `json:"templates"`
	Tags          []*Tag          `json:"tags"`
	Preferences   Preferences     `json:"preferences"`
	Subscriptions []string        `json:"subscriptions"`
	Webhooks      []*Webhook      `json:"webhooks"`
	Sync          SyncState       `json:"sync"`
	Imports       []*ImportRecord `json:"imports"`
	Exports       []*ExportRecord `json:"exports"`
	Audit         []*AuditEntry   `json:"audit"`
	Trash         []TrashRef      `json:"trash"`
	Counters      map[string]int  `json:"counters"`
}

// NewDocument returns the seed skeleton written when no backing file exists.
func NewDocument() *Document {
	doc := &Document{}
	doc.backfill()
	return doc
}

// backfill fills in zero-valued top-level keys so documents written by
// older schema versions load cleanly.
func (d *Document) backfill() {
	if d.Calendars == nil {
		d.Calendars = []*Calendar{}
	}
	if d.Events == nil {
		d.Events = []*Event{}
	}
	if d.Templates == nil {
		d.Templates = []*Template{}
	}
	if d.Tags == nil {
		d.Tags = []*Tag{}
	}
	if d.Subscriptions == nil {
		d.Subscriptions = []string{}
	}
	if d.Webhooks == nil {
		d.Webhooks = []*Webhook{}
	}
	if d.Imports == nil {
		d.Imports = []*ImportRecord{}
	}
	if d.Exports == nil {
		d.Exports = []*ExportRecord{}
	}
	if d.Audit == nil {
		d.Audit = []*AuditEntry{}
	}
	if d.Trash == nil {
		d.Trash = []TrashRef{}
	}
	if d.Counters == nil {
		d.Counters = map[string]int{}
	}
	if d.Sync.NextToken == 0 {
		d.Sync.NextToken = 1
	}
	if d.Sync.Changes == nil {
		d.Sync.Changes = []*SyncChange{}
	}
	if d.Preferences.Timezone == "" {
		d.Preferences.Timezone = "UTC"
	}
	if d.Preferences.WeekStart == "" {
		d.Preferences.WeekStart = "Monday"
	}
	if d.Preferences.WorkHours.Start == "" {
		d.Preferences.WorkHours = WorkHours{Start: "09:00", End: "17:00"}
	}
	if d.Preferences.DefaultDuration == 0 {
		d.Preferences.DefaultDuration = 60
	}
}

// Clone deep-copies the document via a JSON round trip. The document is
// plain data so the round trip is lossless.
func (d *Document) Clone() (*Document, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("cloning document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("cloning document: %w", err)
	}
	out.backfill()
	return &out, nil
}

// CalendarByID returns the calendar with the given id, deleted or not.
func (d *Document) CalendarByID(id string) *Calendar {
	for _, cal := range d.Calendars {
		if cal.ID == id {
			return cal
		}
	}
	return nil
}

// EventByID returns the event with the given id, deleted or not.
func (d *Document) EventByID(id string) *Event {
	for _, ev := range d.Events {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}

// TagByID returns the tag with the given id.
func (d *Document) TagByID(id string) *Tag {
	for _, tag := range d.Tags {
		if tag.ID == id {
			return tag
		}
	}
	return nil
}

// TemplateByID returns the template with the given id.
func (d *Document) TemplateByID(id string) *Template {
	for _, tpl := range d.Templates {
		if tpl.ID == id {
			return tpl
		}
	}
	return nil
}
