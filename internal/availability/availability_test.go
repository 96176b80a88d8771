// ABOUTME: Tests for the pure interval algorithms
// ABOUTME: Slot sweeps, overlap conventions, duplicate grouping, minute aggregation

package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day int, hour, min int) time.Time {
	return time.Date(2024, 1, day, hour, min, 0, 0, time.UTC)
}

func TestNextFree_SkipsBusyRuns(t *testing.T) {
	busy := []Interval{
		{Start: at(1, 9, 0), End: at(1, 10, 0), EventID: "event_0001"},
		{Start: at(1, 10, 0), End: at(1, 11, 0), EventID: "event_0002"},
	}

	slot := NextFree(busy, at(1, 9, 30), 30*time.Minute)
	assert.Equal(t, at(1, 11, 0), slot.Start)
	assert.Equal(t, at(1, 11, 30), slot.End)
	assert.Equal(t, 30, slot.Minutes)
}

func TestNextFree_UsesGapBetweenIntervals(t *testing.T) {
	busy := []Interval{
		{Start: at(1, 9, 0), End: at(1, 10, 0)},
		{Start: at(1, 12, 0), End: at(1, 13, 0)},
	}

	slot := NextFree(busy, at(1, 8, 0), 60*time.Minute)
	// The 08:00-09:00 gap is exactly an hour of clearance.
	assert.Equal(t, at(1, 8, 0), slot.Start)

	slot = NextFree(busy, at(1, 8, 30), 60*time.Minute)
	assert.Equal(t, at(1, 10, 0), slot.Start)
}

func TestNextFree_IgnoresIntervalsBehindCursor(t *testing.T) {
	busy := []Interval{{Start: at(1, 6, 0), End: at(1, 7, 0)}}

	slot := NextFree(busy, at(1, 9, 0), 45*time.Minute)
	assert.Equal(t, at(1, 9, 0), slot.Start)
}

func TestSlotOnDay_AfterSingleMeeting(t *testing.T) {
	busy := []Interval{{Start: at(1, 9, 0), End: at(1, 10, 0), EventID: "event_0001"}}

	slot, err := SlotOnDay(busy, at(1, 0, 0), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, at(1, 10, 0), slot.Start)
	assert.Equal(t, at(1, 10, 30), slot.End)
}

func TestSlotOnDay_EmptyDayStartsAtMidnight(t *testing.T) {
	slot, err := SlotOnDay(nil, at(1, 0, 0), 60*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, at(1, 0, 0), slot.Start)
}

func TestSlotOnDay_NoRoomLeft(t *testing.T) {
	busy := []Interval{{Start: at(1, 0, 0), End: at(1, 23, 45)}}

	_, err := SlotOnDay(busy, at(1, 0, 0), 30*time.Minute)
	assert.ErrorIs(t, err, ErrNoSlot)
}

func TestSlotOnDay_IgnoresOtherDays(t *testing.T) {
	busy := []Interval{{Start: at(2, 0, 0), End: at(2, 23, 0)}}

	slot, err := SlotOnDay(busy, at(1, 0, 0), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, at(1, 0, 0), slot.Start)
}

func TestSlotInWeek_FirstOpenDayWins(t *testing.T) {
	var busy []Interval
	for day := 1; day <= 3; day++ {
		busy = append(busy, Interval{Start: at(day, 0, 0), End: at(day, 23, 59)})
	}

	slot, err := SlotInWeek(busy, at(1, 0, 0), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, at(4, 0, 0), slot.Start)
}

func TestSlotInWeek_AllSevenDaysFull(t *testing.T) {
	var busy []Interval
	for day := 1; day <= 7; day++ {
		busy = append(busy, Interval{Start: at(day, 0, 0), End: at(day, 23, 59)})
	}

	_, err := SlotInWeek(busy, at(1, 0, 0), 30*time.Minute)
	assert.ErrorIs(t, err, ErrNoSlot)
}

func TestOverlaps_StrictAtBoundaries(t *testing.T) {
	a := Interval{Start: at(1, 9, 0), End: at(1, 10, 0)}
	b := Interval{Start: at(1, 10, 0), End: at(1, 11, 0)}
	c := Interval{Start: at(1, 9, 30), End: at(1, 9, 45)}

	assert.False(t, Overlaps(a, b), "touching endpoints do not overlap")
	assert.True(t, Overlaps(a, c))
	assert.True(t, Overlaps(c, a))
}

func TestConflictPairs_EachPairOnce(t *testing.T) {
	intervals := []Interval{
		{Start: at(1, 9, 0), End: at(1, 10, 0), EventID: "event_0001"},
		{Start: at(1, 9, 30), End: at(1, 9, 45), EventID: "event_0002"},
		{Start: at(1, 11, 0), End: at(1, 12, 0), EventID: "event_0003"},
	}

	pairs := ConflictPairs(intervals)
	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{EventID: "event_0001", OtherEventID: "event_0002"}, pairs[0])
}

func TestDuplicates_ReferenceFirstSeen(t *testing.T) {
	dups := Duplicates([]Candidate{
		{ID: "event_0001", Title: "Standup", Start: "2024-01-01T09:00:00"},
		{ID: "event_0002", Title: "Standup", Start: "2024-01-01T09:00:00"},
		{ID: "event_0003", Title: "Standup", Start: "2024-01-02T09:00:00"},
		{ID: "event_0004", Title: "Standup", Start: "2024-01-01T09:00:00"},
	})

	require.Len(t, dups, 2)
	assert.Equal(t, Duplicate{EventID: "event_0002", Matches: "event_0001"}, dups[0])
	assert.Equal(t, Duplicate{EventID: "event_0004", Matches: "event_0001"}, dups[1])
}

func TestBusyMinutes_FloorsPartialMinutes(t *testing.T) {
	intervals := []Interval{
		{Start: at(1, 9, 0), End: at(1, 10, 0)},
		{Start: at(1, 10, 0), End: at(1, 10, 0).Add(90*time.Second + 30*time.Second)},
	}

	assert.Equal(t, 62, BusyMinutes(intervals))
}
