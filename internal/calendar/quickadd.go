// ABOUTME: Quick-add: fuzzy date/time text to a concrete event in one call
// ABOUTME: Falls back to the default calendar and reports every assumption it makes

package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sundial-labs/sundial/internal/store"
)

// QuickAddRequest is the loosely specified input for EventQuickAdd.
type QuickAddRequest struct {
	Title           string
	DateText        string
	TimeText        string
	CalendarID      string
	DurationMinutes int
	Notes           string
	Attendees       []string
}

// QuickAddResult reports the created event plus every assumption that was
// made while interpreting the request.
type QuickAddResult struct {
	Event       *store.Event
	CalendarID  string
	Assumptions []string
}

var monthLookup = map[string]time.Month{}

func init() {
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		monthLookup[name] = m
		monthLookup[name[:3]] = m
	}
}

var ordinalSuffix = regexp.MustCompile(`(\d+)(st|nd|rd|th)`)

// parseQuickDate interprets loose date text ("March 3rd", "12 June 2025",
// "2024-05-01") relative to a reference day. A bare day-of-month that has
// already passed rolls forward to the next month.
func parseQuickDate(text string, reference time.Time) (time.Time, error) {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	cleaned = ordinalSuffix.ReplaceAllString(cleaned, "$1")
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("date text is required: %w", ErrInvalidArgument)
	}
	if t, err := time.Parse(dateLayout, cleaned); err == nil {
		return t, nil
	}

	cleaned = strings.ReplaceAll(cleaned, ",", " ")
	var (
		day, year int
		month     time.Month
	)
	for _, token := range strings.Fields(cleaned) {
		if n, err := strconv.Atoi(token); err == nil {
			if day == 0 {
				day = n
			} else if year == 0 {
				year = n
			}
			continue
		}
		if m, ok := monthLookup[token]; ok {
			month = m
		}
	}
	if day == 0 {
		return time.Time{}, fmt.Errorf("could not determine day from date text %q: %w", text, ErrInvalidArgument)
	}
	if month == 0 {
		month = reference.Month()
	}
	if year == 0 {
		year = reference.Year()
	}
	candidate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if candidate.Day() != day {
		return time.Time{}, fmt.Errorf("could not parse date text %q: %w", text, ErrInvalidArgument)
	}
	if candidate.Before(reference) {
		// Roll forward when the ambiguous date already passed.
		candidate = candidate.AddDate(0, 1, 0)
	}
	return candidate, nil
}

var quickTimePattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

// parseQuickTime interprets loose time text ("3pm", "15:30", "morning").
// Empty text defaults to 09:00.
func parseQuickTime(text string) (hour, minute int, err error) {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	switch cleaned {
	case "":
		return 9, 0, nil
	case "morning", "am":
		return 9, 0, nil
	case "afternoon", "pm":
		return 15, 0, nil
	}
	m := quickTimePattern.FindStringSubmatch(cleaned)
	if m == nil {
		return 0, 0, fmt.Errorf("could not understand time text %q: %w", text, ErrInvalidArgument)
	}
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if m[3] == "pm" && hour < 12 {
		hour += 12
	}
	if m[3] == "am" && hour == 12 {
		hour = 0
	}
	if hour >= 24 || minute >= 60 {
		return 0, 0, fmt.Errorf("hour must be between 0 and 23: %w", ErrInvalidArgument)
	}
	return hour, minute, nil
}

// EventQuickAdd creates an event from loose natural text, choosing a
// calendar when none is given (the default, then the first calendar, then
// a freshly created "General" one).
func (s *Service) EventQuickAdd(req QuickAddRequest) (*QuickAddResult, error) {
	var assumptions []string

	calendarID := req.CalendarID
	if calendarID == "" {
		err := s.store.View(func(doc *store.Document) error {
			if doc.Preferences.DefaultCalendarID != "" {
				calendarID = doc.Preferences.DefaultCalendarID
			} else if len(doc.Calendars) > 0 {
				calendarID = doc.Calendars[0].ID
				assumptions = append(assumptions, fmt.Sprintf("Used calendar %q", doc.Calendars[0].Name))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if calendarID == "" {
			created, err := s.CalendarCreate("General")
			if err != nil {
				return nil, err
			}
			calendarID = created.ID
			assumptions = append(assumptions, `Created default calendar "General"`)
		}
	}

	day, err := parseQuickDate(req.DateText, s.today())
	if err != nil {
		return nil, err
	}
	hour, minute, err := parseQuickTime(req.TimeText)
	if err != nil {
		return nil, err
	}
	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 60
		assumptions = append(assumptions, "Defaulted duration to 60 minutes")
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
	end := start.Add(time.Duration(duration) * time.Minute)

	event, err := s.EventCreate(calendarID, req.Title, formatDateTime(start), formatDateTime(end))
	if err != nil {
		return nil, err
	}
	for _, email := range req.Attendees {
		// Duplicate attendee emails in the request are skipped, not fatal.
		if _, err := s.AttendeeAdd(event.ID, email, false); err != nil {
			continue
		}
	}
	if req.Notes != "" {
		if _, err := s.NoteAdd(event.ID, req.Notes); err != nil {
			return nil, err
		}
	}
	if req.TimeText == "" {
		assumptions = append(assumptions, "Defaulted start time to 09:00")
	}

	result := &QuickAddResult{Event: event, CalendarID: calendarID, Assumptions: assumptions}
	return result, s.audit("event.quick_add", map[string]any{
		"event_id": event.ID, "calendar_id": calendarID, "duration_minutes": duration,
	})
}
