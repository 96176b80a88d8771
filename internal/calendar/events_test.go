// ABOUTME: Tests for event CRUD, normalization defaults and day-range listing
// ABOUTME: Exercises soft delete, restore, duplication and status flags

package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundial-labs/sundial/internal/store"
)

func TestEventCreate_RejectsEmptyInterval(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")

	_, err := svc.EventCreate(cal, "Zero", "2024-03-01T09:00:00", "2024-03-01T09:00:00")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.EventCreate(cal, "Backwards", "2024-03-01T10:00:00", "2024-03-01T09:00:00")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEventCreate_NormalizesDefaults(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")

	ev, err := svc.EventCreate(cal, "Meeting", "2024-03-01T09:00", "2024-03-01T10:00")
	require.NoError(t, err)

	assert.Equal(t, store.StatusConfirmed, ev.Status)
	assert.Equal(t, store.TransparencyBusy, ev.Transparency)
	assert.Equal(t, "2024-03-01T09:00:00", ev.Start)
	assert.Equal(t, "2024-03-01T10:00:00", ev.End)
	assert.NotNil(t, ev.Reminders)
	assert.NotNil(t, ev.Attendees)
	assert.NotNil(t, ev.Instances)
	assert.False(t, ev.AllDay)
}

func TestEventCreateAllDay_SpansWholeDay(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")

	ev, err := svc.EventCreateAllDay(cal, "Conference", "2024-03-05")
	require.NoError(t, err)
	assert.True(t, ev.AllDay)
	assert.Equal(t, "2024-03-05", ev.Date)
	assert.Equal(t, "2024-03-05T00:00:00", ev.Start)
	assert.Equal(t, "2024-03-05T23:59:59", ev.End)
}

func TestEventSetStatus_CancelledSetsFlag(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	ev := newTestEvent(t, svc, cal, "Meeting", testToday, 9)

	cancelled, err := svc.EventCancel(ev.ID)
	require.NoError(t, err)
	assert.True(t, cancelled.Cancelled)
	assert.Equal(t, store.StatusCancelled, cancelled.Status)

	confirmed, err := svc.EventSetStatus(ev.ID, store.StatusConfirmed)
	require.NoError(t, err)
	assert.False(t, confirmed.Cancelled)
}

func TestEventDeleteRestore_RoundTrip(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	ev := newTestEvent(t, svc, cal, "Meeting", testToday, 9)

	deleted, err := svc.EventDelete(ev.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	assert.NotEmpty(t, deleted.TrashedAt)

	// Deleted events vanish from listings but stay addressable.
	events, err := svc.EventListDay(cal, testToday)
	require.NoError(t, err)
	assert.Empty(t, events)
	fetched, err := svc.EventGet(ev.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Deleted)

	restored, err := svc.EventRestore(ev.ID)
	require.NoError(t, err)
	assert.False(t, restored.Deleted)
	assert.Empty(t, restored.TrashedAt)

	events, err = svc.EventListDay(cal, testToday)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	refs, err := svc.TrashList()
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestEventMove_RequiresLiveTarget(t *testing.T) {
	svc := newTestService(t)
	source := newTestCalendar(t, svc, "Personal")
	target := newTestCalendar(t, svc, "Work")
	ev := newTestEvent(t, svc, source, "Meeting", testToday, 9)

	moved, err := svc.EventMove(ev.ID, target)
	require.NoError(t, err)
	assert.Equal(t, target, moved.CalendarID)

	_, err = svc.EventMove(ev.ID, "calendar_9999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEventDuplicate_SuffixesTitle(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	ev := newTestEvent(t, svc, cal, "Meeting", testToday, 9)

	clone, err := svc.EventDuplicate(ev.ID, cal)
	require.NoError(t, err)
	assert.Equal(t, "Meeting (Copy)", clone.Title)
	assert.NotEqual(t, ev.ID, clone.ID)
	assert.Equal(t, ev.Start, clone.Start)
}

func TestEventListBetween_InclusiveBounds(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	newTestEvent(t, svc, cal, "Before", day.AddDate(0, 0, -1), 9)
	inside := newTestEvent(t, svc, cal, "Inside", day, 9)
	newTestEvent(t, svc, cal, "After", day.AddDate(0, 0, 3), 9)

	events, err := svc.EventListBetween(cal, day, day.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, inside.ID, events[0].ID)

	// The range is inclusive on both edges.
	events, err = svc.EventListBetween(cal, day.AddDate(0, 0, -1), day.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestEventListToday_UsesServiceClock(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	newTestEvent(t, svc, cal, "Today", testToday, 9)
	newTestEvent(t, svc, cal, "Tomorrow", testToday.AddDate(0, 0, 1), 9)

	today, err := svc.EventListToday(cal)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "Today", today[0].Title)

	tomorrow, err := svc.EventListTomorrow(cal)
	require.NoError(t, err)
	require.Len(t, tomorrow, 1)
	assert.Equal(t, "Tomorrow", tomorrow[0].Title)
}
