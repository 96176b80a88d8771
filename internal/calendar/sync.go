// ABOUTME: Sync tokens, ICS/CSV import-export, audit queries, trash, notifications
// ABOUTME: Imports stamp uuid-keyed records; exports are logged alongside their payload

package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sundial-labs/sundial/internal/ics"
	"github.com/sundial-labs/sundial/internal/store"
)

// Version is the engine version reported by health checks.
const Version = "1.4.0"

const icsProdID = "-//sundial//calendar//EN"

// SyncNewToken mints a watermark for a client's first delta pull.
func (s *Service) SyncNewToken() (string, error) {
	return s.store.NewToken()
}

// SyncPullChanges returns every change strictly after the given token.
// An empty token pulls the full change log.
func (s *Service) SyncPullChanges(since string) ([]*store.SyncChange, error) {
	return s.store.PullChanges(since)
}

// SyncAck records the client's confirmed watermark. Acking never prunes
// the change log.
func (s *Service) SyncAck(token string) error {
	return s.store.AckToken(token)
}

// SyncClock bumps and returns the logical clock.
func (s *Service) SyncClock() (int, error) {
	return s.store.BumpClock()
}

// FullExport is the complete document snapshot handed to clients doing
// an initial sync.
type FullExport struct {
	Calendars []*store.Calendar `json:"calendars"`
	Events    []*store.Event    `json:"events"`
	Templates []*store.Template `json:"templates"`
	Tags      []*store.Tag      `json:"tags"`
	Token     string            `json:"token"`
}

// SyncFullExport snapshots all live entities plus a fresh watermark, so
// the client can switch to delta pulls afterwards.
func (s *Service) SyncFullExport() (*FullExport, error) {
	token, err := s.store.NewToken()
	if err != nil {
		return nil, err
	}
	out := &FullExport{Token: token}
	err = s.store.View(func(doc *store.Document) error {
		for _, cal := range doc.Calendars {
			if !cal.Deleted {
				out.Calendars = append(out.Calendars, cal)
			}
		}
		for _, ev := range doc.Events {
			if !ev.Deleted {
				out.Events = append(out.Events, ev)
			}
		}
		out.Templates = doc.Templates
		out.Tags = doc.Tags
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ImportICS parses an ICS payload and creates one event per VEVENT on
// the target calendar. The import is recorded with a uuid-keyed record.
func (s *Service) ImportICS(calendarID, data string) (*store.ImportRecord, error) {
	parsed, err := ics.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrInvalidArgument)
	}
	var record *store.ImportRecord
	err = s.store.Mutate(func(doc *store.Document) error {
		if _, err := ensureCalendar(doc, calendarID); err != nil {
			return err
		}
		now := s.store.Now()
		for _, src := range parsed {
			ev := newEvent(doc, calendarID, src.Title, now)
			ev.Description = src.Description
			ev.Start = formatDateTime(src.Start)
			ev.End = formatDateTime(src.End)
			if src.Location != "" {
				ev.Location = &store.Location{Text: src.Location}
			}
			doc.Events = append(doc.Events, ev)
		}
		record = &store.ImportRecord{
			ID:         uuid.NewString(),
			CalendarID: calendarID,
			Source:     "ics",
			Events:     len(parsed),
			Timestamp:  now,
		}
		doc.Imports = append(doc.Imports, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, s.audit("import.ics", map[string]any{
		"calendar_id": calendarID, "import_id": record.ID, "events": record.Events,
	})
}

// ImportFromURL records a requested subscription-style import without
// fetching anything.
func (s *Service) ImportFromURL(calendarID, url string) (*store.ImportRecord, error) {
	if url == "" {
		return nil, fmt.Errorf("import url required: %w", ErrInvalidArgument)
	}
	return s.importRecord(calendarID, &store.ImportRecord{Source: "url", URL: url})
}

// ImportFromFile records a requested file import without reading the file.
func (s *Service) ImportFromFile(calendarID, fileID string) (*store.ImportRecord, error) {
	if fileID == "" {
		return nil, fmt.Errorf("import file id required: %w", ErrInvalidArgument)
	}
	return s.importRecord(calendarID, &store.ImportRecord{Source: "file", FileID: fileID})
}

func (s *Service) importRecord(calendarID string, record *store.ImportRecord) (*store.ImportRecord, error) {
	err := s.store.Mutate(func(doc *store.Document) error {
		if _, err := ensureCalendar(doc, calendarID); err != nil {
			return err
		}
		record.ID = uuid.NewString()
		record.CalendarID = calendarID
		record.Timestamp = s.store.Now()
		doc.Imports = append(doc.Imports, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, s.audit("import.record", map[string]any{
		"calendar_id": calendarID, "import_id": record.ID, "source": record.Source,
	})
}

// ImportList returns every recorded import, newest last.
func (s *Service) ImportList() ([]*store.ImportRecord, error) {
	var records []*store.ImportRecord
	err := s.store.View(func(doc *store.Document) error {
		records = doc.Imports
		return nil
	})
	return records, err
}

// ExportRange logs and returns the calendar's live events in the
// inclusive day range.
func (s *Service) ExportRange(calendarID string, start, end time.Time) ([]*store.Event, error) {
	events, err := s.EventListBetween(calendarID, start, end)
	if err != nil {
		return nil, err
	}
	err = s.recordExport(&store.ExportRecord{
		Type:       "range",
		CalendarID: calendarID,
		Start:      formatDate(start),
		End:        formatDate(end),
		Events:     len(events),
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ExportMonth logs and returns one month of events.
func (s *Service) ExportMonth(calendarID string, year int, month time.Month) ([]*store.Event, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return s.ExportRange(calendarID, first, first.AddDate(0, 1, -1))
}

// ExportEvent logs and returns a single event.
func (s *Service) ExportEvent(eventID string) (*store.Event, error) {
	ev, err := s.EventGet(eventID)
	if err != nil {
		return nil, err
	}
	err = s.recordExport(&store.ExportRecord{Type: "event", EventID: eventID, Events: 1})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// ExportICS serializes the calendar's live events in the range to an
// ICS document.
func (s *Service) ExportICS(calendarID string, start, end time.Time) (string, error) {
	events, err := s.EventListBetween(calendarID, start, end)
	if err != nil {
		return "", err
	}
	out := make([]ics.Event, 0, len(events))
	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		evStart, err := parseDateTime(ev.Start)
		if err != nil {
			continue
		}
		evEnd, err := parseDateTime(ev.End)
		if err != nil {
			continue
		}
		item := ics.Event{
			UID:         ev.ID,
			Title:       ev.Title,
			Description: ev.Description,
			Start:       evStart,
			End:         evEnd,
		}
		if ev.Location != nil {
			item.Location = ev.Location.Text
		}
		out = append(out, item)
	}
	err = s.recordExport(&store.ExportRecord{
		Type:       "ics",
		CalendarID: calendarID,
		Start:      formatDate(start),
		End:        formatDate(end),
		Events:     len(out),
	})
	if err != nil {
		return "", err
	}
	return ics.Export(icsProdID, out), nil
}

func (s *Service) recordExport(record *store.ExportRecord) error {
	err := s.store.Mutate(func(doc *store.Document) error {
		record.ID = uuid.NewString()
		record.Timestamp = s.store.Now()
		doc.Exports = append(doc.Exports, record)
		return nil
	})
	if err != nil {
		return err
	}
	return s.audit("export.record", map[string]any{"export_id": record.ID, "type": record.Type})
}

// ExportList returns every recorded export, newest last.
func (s *Service) ExportList() ([]*store.ExportRecord, error) {
	var records []*store.ExportRecord
	err := s.store.View(func(doc *store.Document) error {
		records = doc.Exports
		return nil
	})
	return records, err
}

// AuditListRecent returns the newest n entries, newest first.
func (s *Service) AuditListRecent(n int) ([]*store.AuditEntry, error) {
	var out []*store.AuditEntry
	err := s.store.View(func(doc *store.Document) error {
		for i := len(doc.Audit) - 1; i >= 0 && len(out) < n; i-- {
			out = append(out, doc.Audit[i])
		}
		return nil
	})
	return out, err
}

// AuditGet looks up one entry by its audit ID.
func (s *Service) AuditGet(id string) (*store.AuditEntry, error) {
	var entry *store.AuditEntry
	err := s.store.View(func(doc *store.Document) error {
		for _, e := range doc.Audit {
			if e.ID == id {
				entry = e
				return nil
			}
		}
		return fmt.Errorf("audit entry %s: %w", id, store.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) auditByMetadata(key, value string) ([]*store.AuditEntry, error) {
	var out []*store.AuditEntry
	err := s.store.View(func(doc *store.Document) error {
		for _, e := range doc.Audit {
			if v, ok := e.Metadata[key].(string); ok && v == value {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

// AuditForEvent returns the entries touching one event, oldest first.
func (s *Service) AuditForEvent(eventID string) ([]*store.AuditEntry, error) {
	return s.auditByMetadata("event_id", eventID)
}

// AuditForCalendar returns the entries touching one calendar, oldest first.
func (s *Service) AuditForCalendar(calendarID string) ([]*store.AuditEntry, error) {
	return s.auditByMetadata("calendar_id", calendarID)
}

// AuditExportRange returns the entries whose timestamps fall in the
// inclusive day range.
func (s *Service) AuditExportRange(start, end time.Time) ([]*store.AuditEntry, error) {
	from := formatDate(start)
	to := formatDate(end) + "T23:59:59Z"
	var out []*store.AuditEntry
	err := s.store.View(func(doc *store.Document) error {
		for _, e := range doc.Audit {
			if e.Timestamp >= from && e.Timestamp <= to {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

// TrashList returns the references to soft-deleted entities.
func (s *Service) TrashList() ([]store.TrashRef, error) {
	var refs []store.TrashRef
	err := s.store.View(func(doc *store.Document) error {
		refs = doc.Trash
		return nil
	})
	return refs, err
}

// TrashRestore brings a trashed entity back by its reference. The
// restore clears the delete flags and drops the trash entry.
func (s *Service) TrashRestore(id string) error {
	var refType string
	err := s.store.View(func(doc *store.Document) error {
		for _, ref := range doc.Trash {
			if ref.ID == id {
				refType = ref.Type
				return nil
			}
		}
		return fmt.Errorf("trash entry %s: %w", id, store.ErrNotFound)
	})
	if err != nil {
		return err
	}
	switch refType {
	case "calendar":
		_, err = s.CalendarRestore(id)
	case "event":
		_, err = s.EventRestore(id)
	default:
		err = fmt.Errorf("trash entry %s has unknown type %q: %w", id, refType, ErrInvalidArgument)
	}
	return err
}

// TrashEmpty physically removes every trashed entity and clears the
// trash list. This is the only operation that deletes records for good.
func (s *Service) TrashEmpty() (int, error) {
	var purged int
	err := s.store.Mutate(func(doc *store.Document) error {
		trashedCal := map[string]bool{}
		trashedEv := map[string]bool{}
		for _, ref := range doc.Trash {
			switch ref.Type {
			case "calendar":
				trashedCal[ref.ID] = true
			case "event":
				trashedEv[ref.ID] = true
			}
		}
		var calendars []*store.Calendar
		for _, cal := range doc.Calendars {
			if trashedCal[cal.ID] {
				purged++
				continue
			}
			calendars = append(calendars, cal)
		}
		var events []*store.Event
		for _, ev := range doc.Events {
			if trashedEv[ev.ID] || trashedCal[ev.CalendarID] {
				purged++
				continue
			}
			events = append(events, ev)
		}
		doc.Calendars = calendars
		doc.Events = events
		doc.Trash = []store.TrashRef{}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return purged, s.audit("trash.empty", map[string]any{"purged": purged})
}

// NotifySubscribe adds an email address to the notification list.
// Subscribing twice is a no-op.
func (s *Service) NotifySubscribe(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("valid email required: %w", ErrInvalidArgument)
	}
	err := s.store.Mutate(func(doc *store.Document) error {
		for _, existing := range doc.Subscriptions {
			if existing == email {
				return nil
			}
		}
		doc.Subscriptions = append(doc.Subscriptions, email)
		sort.Strings(doc.Subscriptions)
		return nil
	})
	if err != nil {
		return err
	}
	return s.audit("notify.subscribe", map[string]any{"email": email})
}

// NotifyUnsubscribe removes an email address from the notification list.
func (s *Service) NotifyUnsubscribe(email string) error {
	err := s.store.Mutate(func(doc *store.Document) error {
		for i, existing := range doc.Subscriptions {
			if existing == email {
				doc.Subscriptions = append(doc.Subscriptions[:i], doc.Subscriptions[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("subscription %s: %w", email, store.ErrNotFound)
	})
	if err != nil {
		return err
	}
	return s.audit("notify.unsubscribe", map[string]any{"email": email})
}

// NotifyList returns the subscribed addresses in sorted order.
func (s *Service) NotifyList() ([]string, error) {
	var out []string
	err := s.store.View(func(doc *store.Document) error {
		out = doc.Subscriptions
		return nil
	})
	return out, err
}

// WebhookCreate registers a notification target URL.
func (s *Service) WebhookCreate(url string) (*store.Webhook, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("webhook url must be http(s): %w", ErrInvalidArgument)
	}
	var hook *store.Webhook
	err := s.store.Mutate(func(doc *store.Document) error {
		hook = &store.Webhook{ID: store.ConsumeID(doc, "hook"), URL: url, Active: true}
		doc.Webhooks = append(doc.Webhooks, hook)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hook, s.audit("webhook.create", map[string]any{"webhook_id": hook.ID})
}

// WebhookList returns the registered webhooks.
func (s *Service) WebhookList() ([]*store.Webhook, error) {
	var hooks []*store.Webhook
	err := s.store.View(func(doc *store.Document) error {
		hooks = doc.Webhooks
		return nil
	})
	return hooks, err
}

// WebhookTest records a synthetic delivery for the webhook. No request
// leaves the process; delivery is out of scope for the engine.
func (s *Service) WebhookTest(webhookID string) error {
	err := s.store.View(func(doc *store.Document) error {
		for _, hook := range doc.Webhooks {
			if hook.ID == webhookID {
				return nil
			}
		}
		return fmt.Errorf("webhook %s: %w", webhookID, store.ErrNotFound)
	})
	if err != nil {
		return err
	}
	return s.audit("webhook.test", map[string]any{"webhook_id": webhookID})
}

// Health is the engine's self-report.
type Health struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Calendars int    `json:"calendars"`
	Events    int    `json:"events"`
}

// HealthCheck reports engine liveness and entity counts.
func (s *Service) HealthCheck() (*Health, error) {
	h := &Health{Status: "ok", Version: Version}
	err := s.store.View(func(doc *store.Document) error {
		h.Calendars = len(doc.Calendars)
		h.Events = len(doc.Events)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Usage aggregates today's activity for dashboards.
type Usage struct {
	Date        string `json:"date"`
	Writes      int    `json:"writes"`
	BusyMinutes int    `json:"busy_minutes"`
}

// UsageToday counts today's audit entries and, when a default calendar
// is set, its committed minutes today.
func (s *Service) UsageToday() (*Usage, error) {
	today := s.today()
	prefix := formatDate(today)
	usage := &Usage{Date: prefix}
	err := s.store.View(func(doc *store.Document) error {
		for _, e := range doc.Audit {
			if strings.HasPrefix(e.Timestamp, prefix) {
				usage.Writes++
			}
		}
		if id := doc.Preferences.DefaultCalendarID; id != "" && doc.CalendarByID(id) != nil {
			busy := busyIntervals(doc, id, today, today)
			for _, iv := range busy {
				usage.BusyMinutes += int(iv.End.Sub(iv.Start) / time.Minute)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}
