// ABOUTME: Recurrence rules and per-occurrence instance overrides
// ABOUTME: Rules are stored, never expanded; exceptions live in the instances map

package calendar

import (
	"fmt"
	"time"

	"github.com/sundial-labs/sundial/internal/store"
)

func (s *Service) setRecurrence(eventID string, apply func(rule *store.Recurrence)) (*store.Event, error) {
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if ev, err = ensureEvent(doc, eventID); err != nil {
			return err
		}
		if ev.Recurrence == nil {
			ev.Recurrence = &store.Recurrence{}
		}
		apply(ev.Recurrence)
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("event.recurrence.update", map[string]any{"event_id": eventID})
}

// RecurrenceSetDaily makes the event repeat every day.
func (s *Service) RecurrenceSetDaily(eventID string) (*store.Event, error) {
	return s.setRecurrence(eventID, func(r *store.Recurrence) {
		r.Frequency = store.FreqDaily
	})
}

// RecurrenceSetWeekly makes the event repeat weekly on the given weekday.
func (s *Service) RecurrenceSetWeekly(eventID, weekday string) (*store.Event, error) {
	return s.setRecurrence(eventID, func(r *store.Recurrence) {
		r.Frequency = store.FreqWeekly
		r.Weekday = weekday
	})
}

// RecurrenceSetMonthlyByDate repeats monthly on a fixed day of month.
func (s *Service) RecurrenceSetMonthlyByDate(eventID string, day int) (*store.Event, error) {
	if day < 1 || day > 31 {
		return nil, fmt.Errorf("day of month must be 1-31: %w", ErrInvalidArgument)
	}
	return s.setRecurrence(eventID, func(r *store.Recurrence) {
		r.Frequency = store.FreqMonthly
		r.Day = day
		r.Ordinal = 0
		r.Weekday = ""
	})
}

// RecurrenceSetMonthlyByWeekday repeats monthly on e.g. the 2nd Tuesday.
func (s *Service) RecurrenceSetMonthlyByWeekday(eventID string, ordinal int, weekday string) (*store.Event, error) {
	return s.setRecurrence(eventID, func(r *store.Recurrence) {
		r.Frequency = store.FreqMonthly
		r.Ordinal = ordinal
		r.Weekday = weekday
		r.Day = 0
	})
}

// RecurrenceSetYearly repeats yearly on a fixed month and day.
func (s *Service) RecurrenceSetYearly(eventID string, month time.Month, day int) (*store.Event, error) {
	return s.setRecurrence(eventID, func(r *store.Recurrence) {
		r.Frequency = store.FreqYearly
		r.Month = int(month)
		r.Day = day
	})
}

// RecurrenceSetEndsOn bounds the series by date.
func (s *Service) RecurrenceSetEndsOn(eventID, date string) (*store.Event, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	return s.setRecurrence(eventID, func(r *store.Recurrence) {
		r.EndsOn = formatDate(day)
		r.EndsAfter = 0
	})
}

// RecurrenceSetEndsAfter bounds the series by occurrence count.
func (s *Service) RecurrenceSetEndsAfter(eventID string, count int) (*store.Event, error) {
	if count < 1 {
		return nil, fmt.Errorf("occurrence count must be positive: %w", ErrInvalidArgument)
	}
	return s.setRecurrence(eventID, func(r *store.Recurrence) {
		r.EndsAfter = count
		r.EndsOn = ""
	})
}

// RecurrencePause suspends the series without clearing the rule.
func (s *Service) RecurrencePause(eventID string, paused bool) (*store.Event, error) {
	return s.setRecurrence(eventID, func(r *store.Recurrence) {
		r.Paused = paused
	})
}

// RecurrenceClear removes the rule entirely.
func (s *Service) RecurrenceClear(eventID string) (*store.Event, error) {
	var ev *store.Event
	err := s.store.Mutate(func(doc *store.Document) error {
		var err error
		if ev, err = ensureEvent(doc, eventID); err != nil {
			return err
		}
		ev.Recurrence = nil
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, s.audit("event.recurrence.clear", map[string]any{"event_id": eventID})
}

// InstancePatch carries a partial per-occurrence override; nil fields are
// untouched in the existing override.
type InstancePatch struct {
	Title  *string
	Start  *string
	End    *string
	Status *string
	Skip   *bool
}

// InstanceUpdate merges a partial update into the occurrence's override,
// creating the override if it does not exist yet.
func (s *Service) InstanceUpdate(seriesID, occurrenceDate string, patch InstancePatch) (*store.InstanceOverride, error) {
	day, err := parseDate(occurrenceDate)
	if err != nil {
		return nil, err
	}
	key := formatDate(day)

	var override *store.InstanceOverride
	err = s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, seriesID)
		if err != nil {
			return err
		}
		if ev.Instances == nil {
			ev.Instances = map[string]*store.InstanceOverride{}
		}
		override = ev.Instances[key]
		if override == nil {
			override = &store.InstanceOverride{Date: key}
			ev.Instances[key] = override
		}
		if patch.Title != nil {
			override.Title = patch.Title
		}
		if patch.Start != nil {
			override.Start = patch.Start
		}
		if patch.End != nil {
			override.End = patch.End
		}
		if patch.Status != nil {
			override.Status = patch.Status
		}
		if patch.Skip != nil {
			override.Skip = patch.Skip
		}
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return override, s.audit("event.instance.update", map[string]any{"event_id": seriesID, "date": key})
}

// InstanceGet returns the override for an occurrence, or nil when the
// occurrence has no exception.
func (s *Service) InstanceGet(seriesID, occurrenceDate string) (*store.InstanceOverride, error) {
	day, err := parseDate(occurrenceDate)
	if err != nil {
		return nil, err
	}
	ev, err := s.EventGet(seriesID)
	if err != nil {
		return nil, err
	}
	return ev.Instances[formatDate(day)], nil
}

// InstanceList returns the overrides within the inclusive date range, in
// date order.
func (s *Service) InstanceList(seriesID, start, end string) ([]*store.InstanceOverride, error) {
	startDay, err := parseDate(start)
	if err != nil {
		return nil, err
	}
	endDay, err := parseDate(end)
	if err != nil {
		return nil, err
	}
	ev, err := s.EventGet(seriesID)
	if err != nil {
		return nil, err
	}
	var out []*store.InstanceOverride
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		if override, ok := ev.Instances[formatDate(day)]; ok {
			out = append(out, override)
		}
	}
	return out, nil
}

// InstanceCancel marks one occurrence cancelled.
func (s *Service) InstanceCancel(seriesID, occurrenceDate string) (*store.InstanceOverride, error) {
	status := store.StatusCancelled
	return s.InstanceUpdate(seriesID, occurrenceDate, InstancePatch{Status: &status})
}

// InstanceSkip marks one occurrence skipped.
func (s *Service) InstanceSkip(seriesID, occurrenceDate string) (*store.InstanceOverride, error) {
	skip := true
	return s.InstanceUpdate(seriesID, occurrenceDate, InstancePatch{Skip: &skip})
}

// InstanceDetach promotes an occurrence's override into a freestanding
// event: the new event inherits all base fields except recurrence and
// instances, the override is applied on top, and the series loses the
// override. Both sides of the move commit in one transaction.
func (s *Service) InstanceDetach(seriesID, occurrenceDate string) (string, error) {
	day, err := parseDate(occurrenceDate)
	if err != nil {
		return "", err
	}
	key := formatDate(day)

	var newID string
	err = s.store.Mutate(func(doc *store.Document) error {
		series, err := ensureEvent(doc, seriesID)
		if err != nil {
			return err
		}
		override := series.Instances[key]
		if override == nil {
			return fmt.Errorf("no override to detach for %s: %w", key, store.ErrNotFound)
		}
		now := s.store.Now()
		detached := cloneEvent(series)
		detached.ID = store.ConsumeID(doc, "event")
		detached.Recurrence = nil
		detached.Instances = map[string]*store.InstanceOverride{}
		detached.CreatedAt = now
		detached.UpdatedAt = now
		if override.Title != nil {
			detached.Title = *override.Title
		}
		if override.Start != nil {
			detached.Start = *override.Start
		}
		if override.End != nil {
			detached.End = *override.End
		}
		if override.Status != nil {
			detached.Status = *override.Status
		}
		delete(series.Instances, key)
		series.UpdatedAt = now
		doc.Events = append(doc.Events, detached)
		newID = detached.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return newID, s.audit("event.instance.detach", map[string]any{
		"event_id": seriesID, "date": key, "new_event": newID,
	})
}

// InstanceRestore drops the occurrence's override so it follows the
// series again.
func (s *Service) InstanceRestore(seriesID, occurrenceDate string) error {
	day, err := parseDate(occurrenceDate)
	if err != nil {
		return err
	}
	key := formatDate(day)
	err = s.store.Mutate(func(doc *store.Document) error {
		ev, err := ensureEvent(doc, seriesID)
		if err != nil {
			return err
		}
		delete(ev.Instances, key)
		ev.UpdatedAt = s.store.Now()
		return nil
	})
	if err != nil {
		return err
	}
	return s.audit("event.instance.restore", map[string]any{"event_id": seriesID, "date": key})
}
