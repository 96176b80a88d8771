// ABOUTME: Calendar-arithmetic query helpers: week-of-month, weekend/weekday filters
// ABOUTME: Weeks run Monday through Sunday; week 1 starts on the month's first Monday

package calendar

import (
	"fmt"
	"time"

	"github.com/sundial-labs/sundial/internal/availability"
	"github.com/sundial-labs/sundial/internal/store"
)

// WeekStart returns the Monday of the week containing day.
func WeekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, day.Location())
}

// WeekOfMonth returns the Monday starting week n of the month, where
// week 1 begins on the month's first Monday.
func WeekOfMonth(year int, month time.Month, n int) (time.Time, error) {
	if n < 1 || n > 5 {
		return time.Time{}, fmt.Errorf("week index must be 1-5: %w", ErrInvalidArgument)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	firstMonday := first
	for firstMonday.Weekday() != time.Monday {
		firstMonday = firstMonday.AddDate(0, 0, 1)
	}
	monday := firstMonday.AddDate(0, 0, 7*(n-1))
	if monday.Month() != month {
		return time.Time{}, fmt.Errorf("month has no week %d: %w", n, ErrInvalidArgument)
	}
	return monday, nil
}

// EventListWeekOfMonth lists events in week n of the given month.
func (s *Service) EventListWeekOfMonth(calendarID string, year int, month time.Month, n int) ([]*store.Event, error) {
	monday, err := WeekOfMonth(year, month, n)
	if err != nil {
		return nil, err
	}
	return s.EventListWeek(calendarID, monday)
}

// EventListFirstWeekThisMonth lists events in the current month's first
// full week.
func (s *Service) EventListFirstWeekThisMonth(calendarID string) ([]*store.Event, error) {
	today := s.today()
	return s.EventListWeekOfMonth(calendarID, today.Year(), today.Month(), 1)
}

// EventListSecondWeekThisMonth lists events in the current month's
// second full week.
func (s *Service) EventListSecondWeekThisMonth(calendarID string) ([]*store.Event, error) {
	today := s.today()
	return s.EventListWeekOfMonth(calendarID, today.Year(), today.Month(), 2)
}

// EventListFirstWeekNextMonth lists events in next month's first full week.
func (s *Service) EventListFirstWeekNextMonth(calendarID string) ([]*store.Event, error) {
	next := s.today().AddDate(0, 1, 0)
	return s.EventListWeekOfMonth(calendarID, next.Year(), next.Month(), 1)
}

func (s *Service) listMonthFiltered(calendarID string, year int, month time.Month, keep func(time.Weekday) bool) ([]*store.Event, error) {
	events, err := s.EventListMonth(calendarID, year, month)
	if err != nil {
		return nil, err
	}
	var out []*store.Event
	for _, ev := range events {
		ref := ev.Start
		if ev.AllDay {
			ref = ev.Date
		}
		day, ok := dayOf(ref)
		if !ok {
			continue
		}
		if keep(day.Weekday()) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// EventListWeekendsMonth lists the month's Saturday and Sunday events.
func (s *Service) EventListWeekendsMonth(calendarID string, year int, month time.Month) ([]*store.Event, error) {
	return s.listMonthFiltered(calendarID, year, month, func(wd time.Weekday) bool {
		return wd == time.Saturday || wd == time.Sunday
	})
}

// EventListWeekdaysMonth lists the month's Monday-through-Friday events.
func (s *Service) EventListWeekdaysMonth(calendarID string, year int, month time.Month) ([]*store.Event, error) {
	return s.listMonthFiltered(calendarID, year, month, func(wd time.Weekday) bool {
		return wd != time.Saturday && wd != time.Sunday
	})
}

// CountBusyInWeek totals the scheduled minutes across the 7 days from
// weekStart, counting every event regardless of status or transparency.
func (s *Service) CountBusyInWeek(calendarID string, weekStart time.Time) (int, error) {
	busy, err := s.intervalsBetween(calendarID, weekStart, weekStart.AddDate(0, 0, 6), countAll)
	if err != nil {
		return 0, err
	}
	return availability.BusyMinutes(busy), nil
}
