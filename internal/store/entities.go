// ABOUTME: Entity types held in the calendar document
// ABOUTME: Calendars, events and their nested records, all JSON-tagged for the backing file

package store

// Calendar groups events and carries sharing and display settings.
type Calendar struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Color     string           `json:"color,omitempty"`
	Timezone  string           `json:"timezone"`
	IsDefault bool             `json:"is_default"`
	Deleted   bool             `json:"deleted"`
	Archived  bool             `json:"archived"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
	Settings  CalendarSettings `json:"settings"`
	ACL       []*ACLEntry      `json:"acl"`
}

// CalendarSettings holds per-calendar toggles and defaults.
type CalendarSettings struct {
	ICSPublished    bool `json:"ics_published"`
	PrivacyBusyOnly bool `json:"privacy_busy_only"`
	DefaultReminder int  `json:"default_reminder,omitempty"`
}

// ACLEntry grants a role on a calendar to one email address.
// Emails are unique within a calendar's ACL.
type ACLEntry struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Event statuses and transparency values.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"

	TransparencyBusy = "busy"
	TransparencyFree = "free"
)

// Event is a single calendar entry. Timed events carry Start/End; all-day
// events additionally carry Date and span the whole day.
type Event struct {
	ID           string                       `json:"id"`
	CalendarID   string                       `json:"calendar_id"`
	Title        string                       `json:"title"`
	Description  string                       `json:"description"`
	Start        string                       `json:"start"`
	End          string                       `json:"end"`
	AllDay       bool                         `json:"all_day"`
	Date         string                       `json:"date,omitempty"`
	Status       string                       `json:"status"`
	Transparency string                       `json:"transparency"`
	Reminders    []int                        `json:"reminders"`
	Attendees    []*Attendee                  `json:"attendees"`
	Tags         []string                     `json:"tags"`
	Location     *Location                    `json:"location,omitempty"`
	Attachments  []*Attachment                `json:"attachments"`
	Notes        []*Note                      `json:"notes"`
	Checklist    []*ChecklistItem             `json:"checklist"`
	Recurrence   *Recurrence                  `json:"recurrence,omitempty"`
	Instances    map[string]*InstanceOverride `json:"instances"`
	Focus        *FocusBlock                  `json:"focus,omitempty"`
	Snoozed      []Snooze                     `json:"snoozed,omitempty"`
	Deleted      bool                         `json:"deleted"`
	Cancelled    bool                         `json:"cancelled"`
	TrashedAt    string                       `json:"trashed_at,omitempty"`
	Color        string                       `json:"color,omitempty"`
	CreatedAt    string                       `json:"created_at"`
	UpdatedAt    string                       `json:"updated_at"`
}

// Attendee is one invited participant, keyed by email within the event.
type Attendee struct {
	Email    string `json:"email"`
	Optional bool   `json:"optional"`
	Response string `json:"response"`
	Role     string `json:"role"`
	Name     string `json:"name,omitempty"`
}

// Location is either free text or a coordinate pair, never both.
type Location struct {
	Text string   `json:"text,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

// Attachment types.
const (
	AttachmentURL  = "url"
	AttachmentFile = "file"
)

// Attachment references external material linked to an event.
type Attachment struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	URL    string `json:"url,omitempty"`
	FileID string `json:"file_id,omitempty"`
}

// Note is a free-text annotation on an event.
type Note struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ChecklistItem is one checkbox on an event.
type ChecklistItem struct {
	ID      string `json:"id"`
	Checked bool   `json:"checked"`
}

// Recurrence frequencies.
const (
	FreqDaily   = "daily"
	FreqWeekly  = "weekly"
	FreqMonthly = "monthly"
	FreqYearly  = "yearly"
)

// Recurrence is the stored repetition rule for a series. The engine never
// expands it into occurrences; exceptions live in Event.Instances.
// Which fields are meaningful depends on Frequency: Weekday for weekly,
// Day or Ordinal+Weekday for monthly, Month+Day for yearly.
type Recurrence struct {
	Frequency string `json:"frequency"`
	Weekday   string `json:"weekday,omitempty"`
	Ordinal   int    `json:"ordinal,omitempty"`
	Day       int    `json:"day,omitempty"`
	Month     int    `json:"month,omitempty"`
	EndsOn    string `json:"ends_on,omitempty"`
	EndsAfter int    `json:"ends_after,omitempty"`
	Paused    bool   `json:"paused,omitempty"`
}

// InstanceOverride is a per-occurrence exception, keyed by ISO date in
// Event.Instances. Nil fields inherit from the base event.
type InstanceOverride struct {
	Date   string  `json:"date"`
	Title  *string `json:"title,omitempty"`
	Start  *string `json:"start,omitempty"`
	End    *string `json:"end,omitempty"`
	Status *string `json:"status,omitempty"`
	Skip   *bool   `json:"skip,omitempty"`
}

// FocusBlock marks an event as a protected focus session.
type FocusBlock struct {
	Minutes int  `json:"minutes"`
	Locked  bool `json:"locked"`
}

// Snooze records one postponed reminder.
type Snooze struct {
	Minutes   int    `json:"minutes"`
	Timestamp string `json:"timestamp"`
}

// Template is a reusable event blueprint.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Minutes int    `json:"minutes"`
}

// Tag is a label events can reference by ID.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Preferences are user-level defaults shared across calendars.
type Preferences struct {
	Timezone          string    `json:"timezone"`
	WeekStart         string    `json:"week_start"`
	DefaultCalendarID string    `json:"default_calendar_id,omitempty"`
	WorkHours         WorkHours `json:"work_hours"`
	DefaultDuration   int       `json:"default_duration"`
}

// WorkHours bound the working day as HH:MM strings.
type WorkHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AuditEntry records one completed write operation.
type AuditEntry struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata"`
}

// SyncChange is the incremental-sync projection of an audit entry.
// Tokens are fixed-width zero-padded so lexicographic and numeric order
// coincide.
type SyncChange struct {
	Token     string         `json:"token"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp string         `json:"timestamp"`
}

// SyncState tracks token allocation and the change log.
type SyncState struct {
	NextToken int           `json:"next_token"`
	Changes   []*SyncChange `json:"changes"`
	LastAck   string        `json:"last_ack,omitempty"`
	Clock     int           `json:"clock"`
}

// TrashRef marks a soft-deleted entity awaiting restore or purge.
type TrashRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ImportRecord logs one requested import.
type ImportRecord struct {
	ID         string `json:"id"`
	CalendarID string `json:"calendar_id"`
	Source     string `json:"source"`
	URL        string `json:"url,omitempty"`
	FileID     string `json:"file_id,omitempty"`
	Events     int    `json:"events,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// ExportRecord logs one produced export.
type ExportRecord struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	CalendarID string `json:"calendar_id,omitempty"`
	EventID    string `json:"event_id,omitempty"`
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	Events     int    `json:"events"`
	Timestamp  string `json:"timestamp"`
}

// Webhook is a registered notification target.
type Webhook struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}
