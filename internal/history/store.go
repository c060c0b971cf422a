// Package history keeps a durable, size-bounded, append-ordered record of
// completed analysis jobs in a single JSON file. Writes are atomic
// (temp-file-and-rename) so external readers of the same file never observe
// a partially written collection.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/policyready/policyctl/internal/models"
)

// DefaultLimit caps the collection; inserting beyond it evicts the oldest
// entries. DegradedLimit is the reduced cap the store retries with when the
// storage medium rejects a full-size write.
const (
	DefaultLimit  = 50
	DegradedLimit = 10
)

// ErrEntryNotFound is returned by Get when no entry matches the id.
var ErrEntryNotFound = errors.New("history entry not found")

// Store persists a HistoryCollection, most-recent-first. Storage-layer
// failures never reach callers as faults: unreadable data reads as empty,
// and a rejected write degrades to a smaller retained set before falling
// back to keeping the collection in memory for the session.
type Store struct {
	path  string
	limit int

	mu         sync.Mutex
	memory     []models.HistoryEntry
	memoryOnly bool

	// writeFile is swappable so tests can simulate storage exhaustion.
	writeFile func(name string, data []byte, perm os.FileMode) error
}

// New creates a Store over the file at path. A limit of zero or less means
// DefaultLimit.
func New(path string, limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		path:      path,
		limit:     limit,
		writeFile: os.WriteFile,
	}
}

// Append assigns the entry a fresh id and timestamp, inserts it at the head
// of the collection, evicts beyond the cap, and persists. The returned entry
// carries the assigned fields. Append never fails the caller for storage
// reasons; at worst the entry survives only in memory for this session.
func (s *Store) Append(entry models.HistoryEntry) models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()

	entries := append([]models.HistoryEntry{entry}, s.load()...)

	if s.memoryOnly {
		s.memory = trim(entries, s.limit)
		return entry
	}

	// Degrade chain: full cap, then reduced cap, then in-memory only.
	for _, limit := range []int{s.limit, DegradedLimit} {
		if err := s.save(trim(entries, limit)); err == nil {
			return entry
		} else {
			slog.Warn("history write rejected, degrading", "limit", limit, "error", err)
		}
	}

	s.memoryOnly = true
	s.memory = trim(entries, s.limit)
	slog.Warn("history persistence unavailable, keeping entries in memory for this session")
	return entry
}

// List returns the collection, most-recent-first. Unparseable stored data
// yields an empty collection, never a fault.
func (s *Store) List() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.load() {
		if e.ID == id {
			return e, nil
		}
	}
	return models.HistoryEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
}

// Remove deletes the entry with the given id. Removing an absent id is a
// no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return
	}
	s.persist(kept)
}

// Clear empties the collection.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist([]models.HistoryEntry{})
}

// Export writes the full collection to w as a gzipped JSON archive.
func (s *Store) Export(w io.Writer) error {
	s.mu.Lock()
	entries := s.load()
	s.mu.Unlock()

	zw := gzip.NewWriter(w)
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		zw.Close() //nolint:errcheck
		return fmt.Errorf("encoding history archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flushing history archive: %w", err)
	}
	return nil
}

// load reads and validates the persisted collection. Callers must hold mu.
func (s *Store) load() []models.HistoryEntry {
	if s.memoryOnly {
		return append([]models.HistoryEntry(nil), s.memory...)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("history unreadable, treating as empty", "path", s.path, "error", err)
		}
		return nil
	}

	if err := validateCollection(data); err != nil {
		slog.Warn("history corrupt, treating as empty", "path", s.path, "error", err)
		return nil
	}

	var entries []models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("history corrupt, treating as empty", "path", s.path, "error", err)
		return nil
	}
	return entries
}

// persist writes entries, degrading silently on failure the same way Append
// does. Callers must hold mu.
func (s *Store) persist(entries []models.HistoryEntry) {
	if s.memoryOnly {
		s.memory = entries
		return
	}
	if err := s.save(entries); err != nil {
		slog.Warn("history write rejected, keeping collection in memory", "error", err)
		s.memoryOnly = true
		s.memory = entries
	}
}

// save writes the collection atomically: the file either holds the previous
// durable state or the complete new one, never a partial write.
func (s *Store) save(entries []models.HistoryEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := s.writeFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("replacing history: %w", err)
	}
	return nil
}

func trim(entries []models.HistoryEntry, limit int) []models.HistoryEntry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
