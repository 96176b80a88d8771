// ABOUTME: Scheduling operations: free/busy, slot search, conflicts, focus blocks
// ABOUTME: Translates stored events into intervals and delegates math to availability

package calendar

import (
	"fmt"
	"time"

	"github.com/sundial-labs/sundial/internal/availability"
	"github.com/sundial-labs/sundial/internal/store"
)

// intervalFilter picks which events count toward a projection. Slot
// search treats cancelled and free-transparency events as open time,
// free/busy drops only cancelled ones, and summaries and conflict
// listings count every event in the range.
type intervalFilter int

const (
	countAll intervalFilter = iota
	skipCancelled
	skipTransparent
)

// eventIntervals projects a calendar's events into time spans within
// [start, end]. Events whose times fail to parse contribute nothing.
// All-day events block their whole day.
func eventIntervals(doc *store.Document, calendarID string, start, end time.Time, filter intervalFilter) []availability.Interval {
	var busy []availability.Interval
	for _, ev := range eventsForCalendar(doc, calendarID) {
		if filter >= skipCancelled && ev.Cancelled {
			continue
		}
		if filter >= skipTransparent && ev.Transparency == store.TransparencyFree {
			continue
		}
		if !withinDayRange(ev, start, end) {
			continue
		}
		if ev.AllDay {
			day, err := parseDate(ev.Date)
			if err != nil {
				continue
			}
			busy = append(busy, availability.Interval{
				Start:   day,
				End:     day.Add(24*time.Hour - time.Second),
				EventID: ev.ID,
			})
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
		busy = append(busy, availability.Interval{Start: evStart, End: evEnd, EventID: ev.ID})
	}
	availability.SortByStart(busy)
	return busy
}

// busyIntervals is the slot-search projection: cancelled and
// free-transparency events leave their time open.
func busyIntervals(doc *store.Document, calendarID string, start, end time.Time) []availability.Interval {
	return eventIntervals(doc, calendarID, start, end, skipTransparent)
}

func (s *Service) intervalsBetween(calendarID string, start, end time.Time, filter intervalFilter) ([]availability.Interval, error) {
	var busy []availability.Interval
	err := s.store.View(func(doc *store.Document) error {
		if _, err := ensureCalendar(doc, calendarID); err != nil {
			return err
		}
		busy = eventIntervals(doc, calendarID, start, end, filter)
		return nil
	})
	return busy, err
}

func (s *Service) busyBetween(calendarID string, start, end time.Time) ([]availability.Interval, error) {
	return s.intervalsBetween(calendarID, start, end, skipTransparent)
}

// FreeBusy returns the calendar's non-cancelled spans in the inclusive
// day range. Transparency does not hide an event here; only slot search
// treats free events as open time.
func (s *Service) FreeBusy(calendarID string, start, end time.Time) ([]availability.Interval, error) {
	return s.intervalsBetween(calendarID, start, end, skipCancelled)
}

// NextFreeBlock finds the first gap of the given length at or after from.
// The search is unbounded forward, so it always yields a slot.
func (s *Service) NextFreeBlock(calendarID string, from time.Time, minutes int) (availability.Slot, error) {
	if minutes < 1 {
		return availability.Slot{}, fmt.Errorf("slot minutes must be positive: %w", ErrInvalidArgument)
	}
	busy, err := s.busyBetween(calendarID, from, from.AddDate(0, 1, 0))
	if err != nil {
		return availability.Slot{}, err
	}
	return availability.NextFree(busy, from, time.Duration(minutes)*time.Minute), nil
}

// FindSlotOnDay searches one day for a gap of the given length.
func (s *Service) FindSlotOnDay(calendarID string, day time.Time, minutes int) (availability.Slot, error) {
	if minutes < 1 {
		return availability.Slot{}, fmt.Errorf("slot minutes must be positive: %w", ErrInvalidArgument)
	}
	busy, err := s.busyBetween(calendarID, day, day)
	if err != nil {
		return availability.Slot{}, err
	}
	return availability.SlotOnDay(busy, day, time.Duration(minutes)*time.Minute)
}

// FindSlotInWeek searches the 7 days from weekStart for the first day
// with a gap of the given length.
func (s *Service) FindSlotInWeek(calendarID string, weekStart time.Time, minutes int) (availability.Slot, error) {
	if minutes < 1 {
		return availability.Slot{}, fmt.Errorf("slot minutes must be positive: %w", ErrInvalidArgument)
	}
	busy, err := s.busyBetween(calendarID, weekStart, weekStart.AddDate(0, 0, 6))
	if err != nil {
		return availability.Slot{}, err
	}
	return availability.SlotInWeek(busy, weekStart, time.Duration(minutes)*time.Minute)
}

// MeetingSuggest merges the busy spans of several calendars and finds a
// common gap on the given day.
func (s *Service) MeetingSuggest(calendarIDs []string, day time.Time, minutes int) (availability.Slot, error) {
	if len(calendarIDs) == 0 {
		return availability.Slot{}, fmt.Errorf("at least one calendar required: %w", ErrInvalidArgument)
	}
	if minutes < 1 {
		return availability.Slot{}, fmt.Errorf("slot minutes must be positive: %w", ErrInvalidArgument)
	}
	var combined []availability.Interval
	err := s.store.View(func(doc *store.Document) error {
		for _, id := range calendarIDs {
			if _, err := ensureCalendar(doc, id); err != nil {
				return err
			}
			combined = append(combined, busyIntervals(doc, id, day, day)...)
		}
		return nil
	})
	if err != nil {
		return availability.Slot{}, err
	}
	availability.SortByStart(combined)
	return availability.SlotOnDay(combined, day, time.Duration(minutes)*time.Minute)
}

// BusySummary totals the scheduled minutes on one day across every
// event in it, whatever its status or transparency.
func (s *Service) BusySummary(calendarID string, day time.Time) (int, error) {
	busy, err := s.intervalsBetween(calendarID, day, day, countAll)
	if err != nil {
		return 0, err
	}
	return availability.BusyMinutes(busy), nil
}

// ConflictList reports every overlapping pair of events in the range,
// with no status or transparency filtering.
func (s *Service) ConflictList(calendarID string, start, end time.Time) ([]availability.Pair, error) {
	busy, err := s.intervalsBetween(calendarID, start, end, countAll)
	if err != nil {
		return nil, err
	}
	return availability.ConflictPairs(busy), nil
}

// ConflictResolveKeepFirst cancels the later event of every conflicting
// pair in the range, keeping the earlier one untouched.
func (s *Service) ConflictResolveKeepFirst(calendarID string, start, end time.Time) ([]string, error) {
	var cancelled []string
	err := s.store.Mutate(func(doc *store.Document) error {
		if _, err := ensureCalendar(doc, calendarID); err != nil {
			return err
		}
		busy := eventIntervals(doc, calendarID, start, end, skipCancelled)
		now := s.store.Now()
		for _, pair := range availability.ConflictPairs(busy) {
			ev := doc.EventByID(pair.OtherEventID)
			if ev == nil || ev.Cancelled {
				continue
			}
			ev.Status = store.StatusCancelled
			ev.Cancelled = true
			ev.UpdatedAt = now
			cancelled = append(cancelled, ev.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, s.audit("schedule.conflicts.resolve", map[string]any{
		"calendar_id": calendarID, "cancelled": len(cancelled),
	})
}

// DuplicateScanMonth finds events in the month sharing a title and start,
// each duplicate referencing the first event seen with that key.
func (s *Service) DuplicateScanMonth(calendarID string, year int, month time.Month) ([]availability.Duplicate, error) {
	events, err := s.EventListMonth(calendarID, year, month)
	if err != nil {
		return nil, err
	}
	candidates := make([]availability.Candidate, 0, len(events))
	for _, ev := range events {
		candidates = append(candidates, availability.Candidate{
			ID: ev.ID, Title: ev.Title, Start: ev.Start,
		})
	}
	return availability.Duplicates(candidates), nil
}

const (
	focusDefaultStart  = 9 * time.Hour
	focusBlockMinutes  = 60
	focusFillerMinutes = 45
)

// FocusBlockCreate places a protected focus event on the given day,
// starting at 09:00 or the first free position after it.
func (s *Service) FocusBlockCreate(calendarID string, day time.Time, minutes int) (*store.Event, error) {
	if minutes < 1 {
		minutes = focusBlockMinutes
	}
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		if _, err := ensureCalendar(doc, calendarID); err != nil {
			return err
		}
		busy := busyIntervals(doc, calendarID, day, day)
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		slot := availability.NextFree(busy, dayStart.Add(focusDefaultStart), time.Duration(minutes)*time.Minute)
		now := s.store.Now()
		ev = newEvent(doc, calendarID, "Focus time", now)
		ev.Start = formatDateTime(slot.Start)
		ev.End = formatDateTime(slot.End)
		ev.Focus = &store.FocusBlock{Minutes: minutes}
		doc.Events = append(doc.Events, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("focus.create", map[string]any{"event_id": ev.ID, "date": formatDate(day)})
}

// FocusAutoPlanWeek creates one focus block per weekday, Monday through
// Friday of the week containing weekStart.
func (s *Service) FocusAutoPlanWeek(calendarID string, weekStart time.Time) ([]*store.Event, error) {
	var blocks []*store.Event
	for i := 0; i < 5; i++ {
		ev, err := s.FocusBlockCreate(calendarID, weekStart.AddDate(0, 0, i), focusBlockMinutes)
		if err != nil {
			return blocks, err
		}
		blocks = append(blocks, ev)
	}
	return blocks, nil
}

// FocusAutoPlanUntil fills every weekday from tomorrow through the given
// date with a short focus block.
func (s *Service) FocusAutoPlanUntil(calendarID string, until time.Time) ([]*store.Event, error) {
	var blocks []*store.Event
	for day := s.today().AddDate(0, 0, 1); !day.After(until); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		ev, err := s.FocusBlockCreate(calendarID, day, focusFillerMinutes)
		if err != nil {
			return blocks, err
		}
		blocks = append(blocks, ev)
	}
	return blocks, nil
}

func (s *Service) setFocusLock(eventID string, locked bool) (*store.Event, error) {
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if ev, err = ensureEvent(doc, eventID); err != nil {
			return err
		}
		if ev.Focus == nil {
			return fmt.Errorf("event %s is not a focus block: %w", eventID, ErrInvalidArgument)
		}
		ev.Focus.Locked = locked
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("focus.lock", map[string]any{"event_id": eventID, "locked": locked})
}

// FocusLock protects a focus block from deferral.
func (s *Service) FocusLock(eventID string) (*store.Event, error) {
	return s.setFocusLock(eventID, true)
}

// FocusUnlock releases a locked focus block.
func (s *Service) FocusUnlock(eventID string) (*store.Event, error) {
	return s.setFocusLock(eventID, false)
}

// FocusDefer pushes an unlocked focus block the given number of days
// later. A locked block refuses to move.
func (s *Service) FocusDefer(eventID string, days int) (*store.Event, error) {
	if days < 1 {
		return nil, fmt.Errorf("defer days must be positive: %w", ErrInvalidArgument)
	}
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if ev, err = ensureEvent(doc, eventID); err != nil {
			return err
		}
		if ev.Focus == nil {
			return fmt.Errorf("event %s is not a focus block: %w", eventID, ErrInvalidArgument)
		}
		if ev.Focus.Locked {
			return fmt.Errorf("focus block %s is locked: %w", eventID, ErrInvalidArgument)
		}
		start, err := parseDateTime(ev.Start)
		if err != nil {
			return err
		}
		end, err := parseDateTime(ev.End)
		if err != nil {
			return err
		}
		ev.Start = formatDateTime(start.AddDate(0, 0, days))
		ev.End = formatDateTime(end.AddDate(0, 0, days))
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("focus.defer", map[string]any{"event_id": eventID, "days": days})
}

// FocusBump extends a focus block by the given number of minutes.
func (s *Service) FocusBump(eventID string, minutes int) (*store.Event, error) {
	if minutes < 1 {
		return nil, fmt.Errorf("bump minutes must be positive: %w", ErrInvalidArgument)
	}
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if ev, err = ensureEvent(doc, eventID); err != nil {
			return err
		}
		if ev.Focus == nil {
			return fmt.Errorf("event %s is not a focus block: %w", eventID, ErrInvalidArgument)
		}
		end, err := parseDateTime(ev.End)
		if err != nil {
			return err
		}
		ev.End = formatDateTime(end.Add(time.Duration(minutes) * time.Minute))
		ev.Focus.Minutes += minutes
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("focus.bump", map[string]any{"event_id": eventID, "minutes": minutes})
}
