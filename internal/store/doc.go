// Package store persists the calendar document as a single JSON file.
//
// # Architecture
//
// One Store instance owns one Document: the full graph of calendars,
// events, templates, tags, preferences and the audit/sync log. The
// document is lazily loaded on first access and seeded from a default
// skeleton when the backing file does not exist. Missing top-level keys
// are backfilled at load time so older files keep working.
//
// Every write funnels through Mutate, which runs the transaction function
// against a deep copy and swaps the copy in only when both the function
// and the file write succeed. A domain error therefore never leaves a
// partially mutated document observable. Persisting rewrites the whole
// file via temp-file-and-rename, two-space indented, trailing newline.
//
// # Identifiers
//
// ConsumeID issues prefix-scoped counter IDs (calendar_0001, event_0002).
// Audit entries use a six-digit counter (audit_000001) and sync tokens a
// six-digit counter of their own (tok_000001). Counters only advance
// inside a transaction and IDs are never reused, so IDs are unique and
// strictly increasing in allocation order. Tokens are fixed-width, so
// lexicographic order is allocation order.
//
// # Concurrency
//
// A single mutex serializes all access. The model is single logical
// writer; there is no context or cancellation inside the store.
//
// Multiple Store instances are fully independent: counters and logs are
// fields of the instance, never process-wide state.
package store
