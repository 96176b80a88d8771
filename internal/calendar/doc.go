// Package calendar is the domain service over the document store:
// calendar and event CRUD, recurrence rules and per-occurrence overrides,
// attendees, reminders, tags, attachments, notes, ACLs, preferences,
// import/export, trash, sync and the availability queries.
//
// Write operations run inside a single store transaction and record
// exactly one audit entry after the transaction commits. Read operations
// observe the committed document and never audit.
//
// Errors are classified by three sentinels: store.ErrNotFound for unknown
// ids, ErrInvalidArgument for malformed input and duplicates, and
// ErrNoSlot for exhausted availability searches. All are synchronous,
// local outcomes; nothing is retried.
package calendar
