// ABOUTME: Tests for free/busy projection, slot search, conflicts and focus blocks
// ABOUTME: Verifies boundary behavior: a meeting ending at 10:00 frees 10:00 exactly

package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundial-labs/sundial/internal/store"
)

func TestFindSlotOnDay_StartsWhereMeetingEnds(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	newTestEvent(t, svc, cal, "Morning sync", testToday, 9)

	slot, err := svc.FindSlotOnDay(cal, testToday, 60)
	require.NoError(t, err)
	// The day sweep starts at midnight, which is free.
	assert.Equal(t, 0, slot.Start.Hour())

	next, err := svc.NextFreeBlock(cal, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), 60)
	require.NoError(t, err)
	assert.Equal(t, 10, next.Start.Hour())
	assert.Equal(t, 60, next.Minutes)
}

func TestFindSlotOnDay_FullDayHasNoSlot(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	_, err := svc.EventCreateAllDay(cal, "Offsite", "2024-03-01")
	require.NoError(t, err)

	_, err = svc.FindSlotOnDay(cal, testToday, 30)
	assert.ErrorIs(t, err, ErrNoSlot)
}

func TestFindSlotInWeek_FallsToNextDay(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	_, err := svc.EventCreateAllDay(cal, "Offsite", "2024-03-01")
	require.NoError(t, err)

	slot, err := svc.FindSlotInWeek(cal, testToday, 60)
	require.NoError(t, err)
	assert.Equal(t, 2, slot.Start.Day())
}

func TestFreeBusy_SkipsOnlyCancelledEvents(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	busy := newTestEvent(t, svc, cal, "Busy", testToday, 9)
	transparent := newTestEvent(t, svc, cal, "OOO marker", testToday, 11)
	_, err := svc.EventSetTransparency(transparent.ID, store.TransparencyFree)
	require.NoError(t, err)
	cancelled := newTestEvent(t, svc, cal, "Cancelled", testToday, 13)
	_, err = svc.EventCancel(cancelled.ID)
	require.NoError(t, err)

	// Free transparency hides an event from slot search, not from the
	// free/busy report.
	intervals, err := svc.FreeBusy(cal, testToday, testToday)
	require.NoError(t, err)
	require.Len(t, intervals, 2)
	assert.Equal(t, busy.ID, intervals[0].EventID)
	assert.Equal(t, transparent.ID, intervals[1].EventID)

	nine := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	slot, err := svc.NextFreeBlock(cal, nine, 60)
	require.NoError(t, err)
	assert.Equal(t, 10, slot.Start.Hour())
}

func TestConflictList_ReportsEachPairOnce(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	first := newTestEvent(t, svc, cal, "A", testToday, 9)
	overlapping, err := svc.EventCreate(cal, "B", "2024-03-01T09:30:00", "2024-03-01T10:30:00")
	require.NoError(t, err)
	// Touching endpoints do not conflict.
	newTestEvent(t, svc, cal, "C", testToday, 11)
	newTestEvent(t, svc, cal, "D", testToday, 12)

	pairs, err := svc.ConflictList(cal, testToday, testToday)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, first.ID, pairs[0].EventID)
	assert.Equal(t, overlapping.ID, pairs[0].OtherEventID)
}

func TestConflictList_IgnoresStatusAndTransparency(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	first := newTestEvent(t, svc, cal, "A", testToday, 9)
	overlapping, err := svc.EventCreate(cal, "B", "2024-03-01T09:30:00", "2024-03-01T10:30:00")
	require.NoError(t, err)
	_, err = svc.EventCancel(overlapping.ID)
	require.NoError(t, err)
	_, err = svc.EventSetTransparency(first.ID, store.TransparencyFree)
	require.NoError(t, err)

	pairs, err := svc.ConflictList(cal, testToday, testToday)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, first.ID, pairs[0].EventID)
	assert.Equal(t, overlapping.ID, pairs[0].OtherEventID)
}

func TestConflictResolveKeepFirst_CancelsLaterEvent(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	kept := newTestEvent(t, svc, cal, "A", testToday, 9)
	_, err := svc.EventCreate(cal, "B", "2024-03-01T09:30:00", "2024-03-01T10:30:00")
	require.NoError(t, err)

	cancelled, err := svc.ConflictResolveKeepFirst(cal, testToday, testToday)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)

	loser, err := svc.EventGet(cancelled[0])
	require.NoError(t, err)
	assert.True(t, loser.Cancelled)

	winner, err := svc.EventGet(kept.ID)
	require.NoError(t, err)
	assert.False(t, winner.Cancelled)

	// A second pass finds nothing left to cancel.
	cancelled, err = svc.ConflictResolveKeepFirst(cal, testToday, testToday)
	require.NoError(t, err)
	assert.Empty(t, cancelled)
}

func TestDuplicateScanMonth_ReferencesFirstSeen(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	first := newTestEvent(t, svc, cal, "Standup", testToday, 9)
	second := newTestEvent(t, svc, cal, "Standup", testToday, 9)
	third := newTestEvent(t, svc, cal, "Standup", testToday, 9)
	// Same title at a different time is not a duplicate.
	newTestEvent(t, svc, cal, "Standup", testToday, 14)

	dups, err := svc.DuplicateScanMonth(cal, 2024, time.March)
	require.NoError(t, err)
	require.Len(t, dups, 2)
	assert.Equal(t, second.ID, dups[0].EventID)
	assert.Equal(t, first.ID, dups[0].Matches)
	assert.Equal(t, third.ID, dups[1].EventID)
	assert.Equal(t, first.ID, dups[1].Matches)
}

func TestMeetingSuggest_MergesCalendars(t *testing.T) {
	svc := newTestService(t)
	ana := newTestCalendar(t, svc, "Ana")
	bob := newTestCalendar(t, svc, "Bob")
	newTestEvent(t, svc, ana, "Ana busy", testToday, 0)
	newTestEvent(t, svc, bob, "Bob busy", testToday, 1)

	slot, err := svc.MeetingSuggest([]string{ana, bob}, testToday, 60)
	require.NoError(t, err)
	assert.Equal(t, 2, slot.Start.Hour())

	_, err = svc.MeetingSuggest(nil, testToday, 60)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBusySummary_FloorsMinutes(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	_, err := svc.EventCreate(cal, "Odd length", "2024-03-01T09:00:00", "2024-03-01T09:45:30")
	require.NoError(t, err)

	minutes, err := svc.BusySummary(cal, testToday)
	require.NoError(t, err)
	assert.Equal(t, 45, minutes)
}

func TestBusySummary_CountsEveryStatus(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	meeting := newTestEvent(t, svc, cal, "Meeting", testToday, 9)
	_, err := svc.EventCancel(meeting.ID)
	require.NoError(t, err)
	marker := newTestEvent(t, svc, cal, "OOO marker", testToday, 11)
	_, err = svc.EventSetTransparency(marker.ID, store.TransparencyFree)
	require.NoError(t, err)

	// The summary is a ledger of scheduled time; cancelling or marking
	// an event free does not remove it from the day's total.
	minutes, err := svc.BusySummary(cal, testToday)
	require.NoError(t, err)
	assert.Equal(t, 120, minutes)
}

func TestFocusBlockCreate_LandsAtNineOrLater(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")

	block, err := svc.FocusBlockCreate(cal, testToday, 90)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T09:00:00", block.Start)
	assert.Equal(t, 90, block.Focus.Minutes)

	// An occupied 09:00 pushes the next block after the meeting.
	second, err := svc.FocusBlockCreate(cal, testToday, 0)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T10:30:00", second.Start)
	assert.Equal(t, focusBlockMinutes, second.Focus.Minutes)
}

func TestFocusAutoPlanWeek_CoversMondayToFriday(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	blocks, err := svc.FocusAutoPlanWeek(cal, monday)
	require.NoError(t, err)
	require.Len(t, blocks, 5)
	for i, block := range blocks {
		day, ok := dayOf(block.Start)
		require.True(t, ok)
		assert.Equal(t, monday.AddDate(0, 0, i).Day(), day.Day())
	}
}

func TestFocusAutoPlanUntil_SkipsWeekends(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")

	// testToday is Friday 2024-03-01; planning through Tuesday covers
	// Saturday through Tuesday, of which only Monday and Tuesday count.
	blocks, err := svc.FocusAutoPlanUntil(cal, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	for _, block := range blocks {
		assert.Equal(t, focusFillerMinutes, block.Focus.Minutes)
	}
}

func TestFocusLockBlocksDefer(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	block, err := svc.FocusBlockCreate(cal, testToday, 60)
	require.NoError(t, err)

	_, err = svc.FocusLock(block.ID)
	require.NoError(t, err)
	_, err = svc.FocusDefer(block.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.FocusUnlock(block.ID)
	require.NoError(t, err)
	deferred, err := svc.FocusDefer(block.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02T09:00:00", deferred.Start)

	// Plain events cannot be focus-locked.
	ev := newTestEvent(t, svc, cal, "Meeting", testToday, 13)
	_, err = svc.FocusLock(ev.ID)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFocusDefer_MovesByDays(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	block, err := svc.FocusBlockCreate(cal, testToday, 60)
	require.NoError(t, err)

	deferred, err := svc.FocusDefer(block.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04T09:00:00", deferred.Start)
	assert.Equal(t, "2024-03-04T10:00:00", deferred.End)

	_, err = svc.FocusDefer(block.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFocusBump_ExtendsEnd(t *testing.T) {
	svc := newTestService(t)
	cal := newTestCalendar(t, svc, "Personal")
	block, err := svc.FocusBlockCreate(cal, testToday, 60)
	require.NoError(t, err)

	bumped, err := svc.FocusBump(block.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T10:30:00", bumped.End)
	assert.Equal(t, 90, bumped.Focus.Minutes)
}
