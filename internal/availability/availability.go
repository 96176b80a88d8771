// ABOUTME: Pure interval arithmetic for scheduling: slot search, conflicts, duplicates
// ABOUTME: Operates on plain interval slices; never touches the store

package availability

import (
	"errors"
	"sort"
	"time"
)

// ErrNoSlot reports that a bounded search window has no gap of the
// requested length. It is an expected outcome, not a failure.
var ErrNoSlot = errors.New("no slot available")

// Interval is one busy span attributed to an event.
type Interval struct {
	Start   time.Time
	End     time.Time
	EventID string
}

// Slot is a proposed free block.
type Slot struct {
	Start   time.Time
	End     time.Time
	Minutes int
}

// SortByStart orders intervals ascending by start time, in place.
func SortByStart(busy []Interval) {
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
}

// Overlaps reports strict interval intersection: touching endpoints do
// not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// NextFree sweeps the busy intervals from the given cursor and returns
// the first position with at least d of clearance. The search is
// unbounded, so it always succeeds: after the last blocking interval the
// rest of time is free.
func NextFree(busy []Interval, from time.Time, d time.Duration) Slot {
	sorted := append([]Interval(nil), busy...)
	SortByStart(sorted)
	cursor := from
	for _, iv := range sorted {
		if !iv.End.After(cursor) {
			continue
		}
		if iv.Start.Sub(cursor) >= d {
			break
		}
		if iv.End.After(cursor) {
			cursor = iv.End
		}
	}
	return Slot{Start: cursor, End: cursor.Add(d), Minutes: int(d / time.Minute)}
}

// SlotOnDay searches [00:00, 23:59:59] of day for a gap of at least d.
// Only intervals starting within the day bound the sweep. Returns
// ErrNoSlot when the residual window after the last blocking interval is
// shorter than d.
func SlotOnDay(busy []Interval, day time.Time, d time.Duration) (Slot, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24*time.Hour - time.Second)

	var inDay []Interval
	for _, iv := range busy {
		if !iv.Start.Before(dayStart) && !iv.Start.After(dayEnd) {
			inDay = append(inDay, iv)
		}
	}
	SortByStart(inDay)

	cursor := dayStart
	for _, iv := range inDay {
		if iv.Start.Sub(cursor) >= d {
			break
		}
		if iv.End.After(cursor) {
			cursor = iv.End
		}
	}
	if dayEnd.Sub(cursor) < d {
		return Slot{}, ErrNoSlot
	}
	return Slot{Start: cursor, End: cursor.Add(d), Minutes: int(d / time.Minute)}, nil
}

// SlotInWeek tries SlotOnDay for each of the 7 days starting at weekStart
// and returns the first success. ErrNoSlot only when all seven days fail.
func SlotInWeek(busy []Interval, weekStart time.Time, d time.Duration) (Slot, error) {
	for i := 0; i < 7; i++ {
		slot, err := SlotOnDay(busy, weekStart.AddDate(0, 0, i), d)
		if err == nil {
			return slot, nil
		}
		if !errors.Is(err, ErrNoSlot) {
			return Slot{}, err
		}
	}
	return Slot{}, ErrNoSlot
}

// Pair is one conflicting pair of events, unordered, reported once.
type Pair struct {
	EventID      string
	OtherEventID string
}

// ConflictPairs runs the pairwise strict-overlap test over the intervals.
// The i < j iteration reports each unordered pair exactly once and never
// pairs an interval with itself.
func ConflictPairs(intervals []Interval) []Pair {
	var pairs []Pair
	for i, a := range intervals {
		for _, b := range intervals[i+1:] {
			if Overlaps(a, b) {
				pairs = append(pairs, Pair{EventID: a.EventID, OtherEventID: b.EventID})
			}
		}
	}
	return pairs
}

// Candidate is the projection duplicate scanning needs from an event.
type Candidate struct {
	ID    string
	Title string
	Start string
}

// Duplicate reports an event whose (title, start) key was already seen,
// referencing the first event with that key.
type Duplicate struct {
	EventID string
	Matches string
}

// Duplicates groups candidates by the (title, start) composite key.
func Duplicates(events []Candidate) []Duplicate {
	type key struct{ title, start string }
	seen := map[key]string{}
	var dups []Duplicate
	for _, ev := range events {
		k := key{ev.Title, ev.Start}
		if first, ok := seen[k]; ok {
			dups = append(dups, Duplicate{EventID: ev.ID, Matches: first})
			continue
		}
		seen[k] = ev.ID
	}
	return dups
}

// BusyMinutes sums interval lengths in whole minutes, flooring each span.
func BusyMinutes(intervals []Interval) int {
	total := 0
	for _, iv := range intervals {
		total += int(iv.End.Sub(iv.Start) / time.Minute)
	}
	return total
}
