// ABOUTME: Tests for sync tokens, import/export, audit queries and trash
// ABOUTME: Exercises the token watermark flow and the ICS round trip

package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundial-labs/sundial/internal/store"
)

func TestSyncTokenFlow(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.SyncNewToken()
	require.NoError(t, err)
	assert.Equal(t, "tok_000001", token)

	newTestCalendar(t, svc, "Personal")

	changes, err := svc.SyncPullChanges(token)
	require.NoError(t, err)
	require.NotEmpty(t, changes)
	assert.Equal(t, "calendar.create", changes[0].Action)
	for _, change := range changes {
		assert.Greater(t, change.Token, token)
	}

	last := changes[len(changes)-1].Token
	require.NoError(t, svc.SyncAck(last))

	// Acking does not prune; pulling from the same watermark is empty.
	changes, err = svc.SyncPullChanges(last)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestSyncFullExport_ExcludesDeleted(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	kept := newTestEvent(t, svc, cal, "Keep", testToday, 9)
	trashed := newTestEvent(t, svc, cal, "Drop", testToday, 11)
	_, err := svc.EventDelete(trashed.ID)
	require.NoError(t, err)

	export, err := svc.SyncFullExport()
	require.NoError(t, err)
	require.Len(t, export.Calendars, 1)
	require.Len(t, export.Events, 1)
	assert.Equal(t, kept.ID, export.Events[0].ID)
	assert.NotEmpty(t, export.Token)
}

func TestSyncClock_Increments(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.SyncClock()
	require.NoError(t, err)
	second, err := svc.SyncClock()
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}

func TestICSExportImport_RoundTrip(t *testing.T) {
	svc := newTestService(t)
	source := newTestCalendar(t, svc, "Personal")
	ev := newTestEvent(t, svc, source, "Planning", testToday, 9)
	_, err := svc.EventUpdateDescription(ev.ID, "quarterly planning")
	require.NoError(t, err)
	_, err = svc.LocationSetText(ev.ID, "Room 4B")
	require.NoError(t, err)

	payload, err := svc.ExportICS(source, testToday, testToday)
	require.NoError(t, err)
	assert.Contains(t, payload, "BEGIN:VCALENDAR")
	assert.Contains(t, payload, "SUMMARY:Planning")

	target := newTestCalendar(t, svc, "Imported")
	record, err := svc.ImportICS(target, payload)
	require.NoError(t, err)
	assert.Equal(t, 1, record.Events)
	assert.Equal(t, "ics", record.Source)

	imported, err := svc.EventListDay(target, testToday)
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, "Planning", imported[0].Title)
	assert.Equal(t, "quarterly planning", imported[0].Description)
	require.NotNil(t, imported[0].Location)
	assert.Equal(t, "Room 4B", imported[0].Location.Text)

	_, err = svc.ImportICS(target, "not an ics payload")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestImportRecords_URLAndFile(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")

	fromURL, err := svc.ImportFromURL(cal, "https://example.com/feed.ics")
	require.NoError(t, err)
	assert.Equal(t, "url", fromURL.Source)
	assert.NotEmpty(t, fromURL.ID)

	fromFile, err := svc.ImportFromFile(cal, "file_abc")
	require.NoError(t, err)
	assert.Equal(t, "file", fromFile.Source)
	assert.NotEqual(t, fromURL.ID, fromFile.ID)

	_, err = svc.ImportFromURL(cal, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	records, err := svc.ImportList()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestExportRange_LogsRecord(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	newTestEvent(t, svc, cal, "Meeting", testToday, 9)

	events, err := svc.ExportRange(cal, testToday, testToday)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	records, err := svc.ExportList()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "range", records[0].Type)
	assert.Equal(t, 1, records[0].Events)
}

func TestAuditQueries(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	ev := newTestEvent(t, svc, cal, "Meeting", testToday, 9)
	_, err := svc.EventUpdateTitle(ev.ID, "Renamed")
	require.NoError(t, err)

	recent, err := svc.AuditListRecent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// Newest first.
	assert.Equal(t, "event.update", recent[0].Action)

	entry, err := svc.AuditGet(recent[0].ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(entry.ID, "audit_"))

	forEvent, err := svc.AuditForEvent(ev.ID)
	require.NoError(t, err)
	assert.Len(t, forEvent, 2)

	forCalendar, err := svc.AuditForCalendar(cal)
	require.NoError(t, err)
	require.NotEmpty(t, forCalendar)
	assert.Equal(t, "calendar.create", forCalendar[0].Action)

	_, err = svc.AuditGet("audit_999999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTrashEmpty_PurgesForGood(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	ev := newTestEvent(t, svc, cal, "Meeting", testToday, 9)
	_, err := svc.EventDelete(ev.ID)
	require.NoError(t, err)

	purged, err := svc.TrashEmpty()
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = svc.EventGet(ev.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	refs, err := svc.TrashList()
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestTrashRestore(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	ev := newTestEvent(t, svc, cal, "Meeting", testToday, 9)
	_, err := svc.EventDelete(ev.ID)
	require.NoError(t, err)

	require.NoError(t, svc.TrashRestore(ev.ID))

	restored, err := svc.EventGet(ev.ID)
	require.NoError(t, err)
	assert.False(t, restored.Deleted)

	refs, err := svc.TrashList()
	require.NoError(t, err)
	assert.Empty(t, refs)

	err = svc.TrashRestore("ev_9999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTrashEmpty_PurgesCalendarWithEvents(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	ev := newTestEvent(t, svc, cal, "Meeting", testToday, 9)
	_, err := svc.CalendarDelete(cal)
	require.NoError(t, err)

	purged, err := svc.TrashEmpty()
	require.NoError(t, err)
	// The calendar and its event both go.
	assert.Equal(t, 2, purged)

	_, err = svc.EventGet(ev.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNotifySubscriptions(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.NotifySubscribe("bob@example.com"))
	require.NoError(t, svc.NotifySubscribe("ana@example.com"))
	// Subscribing twice is a no-op.
	require.NoError(t, svc.NotifySubscribe("ana@example.com"))

	subs, err := svc.NotifyList()
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com", "bob@example.com"}, subs)

	require.NoError(t, svc.NotifyUnsubscribe("bob@example.com"))
	err = svc.NotifyUnsubscribe("bob@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = svc.NotifySubscribe("not-an-email")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWebhooks(t *testing.T) {
	svc := newTestService(t)

	hook, err := svc.WebhookCreate("https://example.com/hook")
	require.NoError(t, err)
	assert.True(t, hook.Active)

	_, err = svc.WebhookCreate("ftp://example.com")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, svc.WebhookTest(hook.ID))
	err = svc.WebhookTest("hook_9999")
	assert.ErrorIs(t, err, store.ErrNotFound)

	hooks, err := svc.WebhookList()
	require.NoError(t, err)
	assert.Len(t, hooks, 1)
}

func TestHealthCheck(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	newTestEvent(t, svc, cal, "Meeting", testToday, 9)

	health, err := svc.HealthCheck()
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, Version, health.Version)
	assert.Equal(t, 1, health.Calendars)
	assert.Equal(t, 1, health.Events)
}

func TestUsageToday_SumsDefaultCalendarMinutes(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	newTestEvent(t, svc, cal, "Meeting", testToday, 9)
	_, err := svc.EventCreate(cal, "Short", "2024-03-01T14:00:00", "2024-03-01T14:30:00")
	require.NoError(t, err)

	usage, err := svc.UsageToday()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", usage.Date)
	assert.Equal(t, 90, usage.BusyMinutes)
}

func TestExportICS_SkipsAllDayEvents(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	newTestEvent(t, svc, cal, "Timed", testToday, 9)
	_, err := svc.EventCreateAllDay(cal, "Offsite", "2024-03-01")
	require.NoError(t, err)

	payload, err := svc.ExportICS(cal, testToday, testToday)
	require.NoError(t, err)
	assert.Contains(t, payload, "SUMMARY:Timed")
	assert.NotContains(t, payload, "SUMMARY:Offsite")
}

func TestExportMonthAndEvent(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	ev := newTestEvent(t, svc, cal, "Meeting", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), 9)

	events, err := svc.ExportMonth(cal, 2024, time.March)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	exported, err := svc.ExportEvent(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, exported.ID)

	records, err := svc.ExportList()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
