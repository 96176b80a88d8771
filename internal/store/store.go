// ABOUTME: Document store backing the calendar service with a single JSON file
// ABOUTME: Copy-on-write transactions, prefix-scoped ID counters, audit and sync-token log

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Store owns the calendar document. All access is serialized by a single
// mutex: the load-mutate-persist sequence is not otherwise atomic across
// concurrent callers.
type Store struct {
	mu     sync.Mutex
	path   string
	doc    *Document
	logger *slog.Logger
	now    func() time.Time
}

// New creates a store backed by the JSON file at path. The file is not
// touched until the first access; a missing file is seeded with the
// default skeleton at that point.
func New(path string) *Store {
	return &Store{
		path:   path,
		logger: slog.Default().With("component", "store"),
		now:    time.Now,
	}
}

// Now returns the current UTC time at second precision, formatted with a
// trailing Z. Every stored timestamp uses this format.
func (s *Store) Now() string {
	return s.now().UTC().Truncate(time.Second).Format(time.RFC3339)
}

func (s *Store) loadLocked() error {
	if s.doc != nil {
		return nil
	}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.doc = NewDocument()
		if err := s.persistLocked(s.doc); err != nil {
			s.doc = nil
			return err
		}
		s.logger.Info("seeded new document", "path", s.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}
	doc := &Document{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, doc); err != nil {
			return fmt.Errorf("parsing document: %w", err)
		}
	}
	doc.backfill()
	s.doc = doc
	return nil
}

// persistLocked rewrites the whole document: two-space indentation, UTF-8,
// trailing newline. It writes to a temp file in the same directory and
// renames it into place so a crash never leaves a partial file behind.
func (s *Store) persistLocked(doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	raw = append(raw, '\n')
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".sundial-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("writing document: %w", err)
	}
	if err := os.Rename(name, s.path); err != nil {
		os.Remove(name)
		return fmt.Errorf("replacing document: %w", err)
	}
	return nil
}

// Mutate runs fn against a deep copy of the document, persists the copy,
// and swaps it in only when both succeed. A failing fn leaves the
// committed document untouched in memory and on disk.
func (s *Store) Mutate(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	working, err := s.doc.Clone()
	if err != nil {
		return err
	}
	if err := fn(working); err != nil {
		return err
	}
	if err := s.persistLocked(working); err != nil {
		return err
	}
	s.doc = working
	return nil
}

// View gives fn read access to the committed document. Nothing is
// persisted; fn must not retain or modify what it is handed.
func (s *Store) View(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	return fn(s.doc)
}

// ConsumeID allocates the next identifier for prefix, formatted as
// {prefix}_{n:04d}. Counters only advance inside a transaction, so no two
// calls can observe the same value. Freed IDs are never reused.
func ConsumeID(doc *Document, prefix string) string {
	doc.Counters[prefix]++
	return fmt.Sprintf("%s_%04d", prefix, doc.Counters[prefix])
}

// consumeAuditID allocates audit_{n:06d} under the audit counter.
func consumeAuditID(doc *Document) string {
	doc.Counters["audit"]++
	return fmt.Sprintf("audit_%06d", doc.Counters["audit"])
}

// nextToken mints tok_{n:06d} from the sync counter. This and RecordAudit
// are the only paths that advance it, so tokens are never gapped or reused.
func nextToken(doc *Document) string {
	token := fmt.Sprintf("tok_%06d", doc.Sync.NextToken)
	doc.Sync.NextToken++
	return token
}

// RecordAudit appends an audit entry for a committed write and the
// parallel sync change carrying a freshly minted token.
func (s *Store) RecordAudit(action string, metadata map[string]any) (*AuditEntry, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	var entry *AuditEntry
	err := s.Mutate(func(doc *Document) error {
		entry = &AuditEntry{
			ID:        consumeAuditID(doc),
			Timestamp: s.Now(),
			Action:    action,
			Metadata:  metadata,
		}
		doc.Audit = append(doc.Audit, entry)
		doc.Sync.Changes = append(doc.Sync.Changes, &SyncChange{
			Token:     nextToken(doc),
			Action:    action,
			Metadata:  metadata,
			Timestamp: entry.Timestamp,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("recorded audit entry", "id", entry.ID, "action", action)
	return entry, nil
}

// PullChanges returns all sync changes with a token strictly greater than
// since. The fixed-width token format makes the lexicographic compare
// equivalent to numeric order.
func (s *Store) PullChanges(since string) ([]*SyncChange, error) {
	var out []*SyncChange
	err := s.View(func(doc *Document) error {
		for _, change := range doc.Sync.Changes {
			if change.Token > since {
				out = append(out, change)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AckToken records the last token a sync client acknowledged. The change
// log is never pruned; this is bookkeeping only.
func (s *Store) AckToken(token string) error {
	return s.Mutate(func(doc *Document) error {
		doc.Sync.LastAck = token
		return nil
	})
}

// NewToken mints a delta token outside the audit path, for clients that
// want a watermark before their first pull.
func (s *Store) NewToken() (string, error) {
	var token string
	err := s.Mutate(func(doc *Document) error {
		token = nextToken(doc)
		return nil
	})
	return token, err
}

// BumpClock advances the logical sync clock and returns the new value.
func (s *Store) BumpClock() (int, error) {
	var clock int
	err := s.Mutate(func(doc *Document) error {
		doc.Sync.Clock++
		clock = doc.Sync.Clock
		return nil
	})
	return clock, err
}
