// Package notes persists sticky notes in an append-only log.
//
// Two backends implement Store: FileStore writes one JSON object per line
// and SQLiteStore keeps the same records in an append-only table. Notes
// are never updated or deleted once written.
package notes

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// BackendJSONL selects FileStore.
	BackendJSONL = "jsonl"
	// BackendSQLite selects SQLiteStore.
	BackendSQLite = "sqlite"

	// JSONLFile is the file name FileStore uses inside the notes directory.
	JSONLFile = "sticky_notes.jsonl"
	// SQLiteFile is the database file name SQLiteStore uses.
	SQLiteFile = "sticky_notes.db"

	// timeLayout is UTC with millisecond precision and a literal Z.
	timeLayout = "2006-01-02T15:04:05.000Z"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("notes: unknown backend")

// timeNow is a package-level variable so tests can pin creation times.
var timeNow = time.Now

// Note is a message for future sessions together with the trigger pattern
// that decides when it is shown.
type Note struct {
	ID              string
	Message         string
	ContextRegex    string
	CreatedAt       time.Time
	Creator         string
	TriggerSnippets []string
}

// Store is an append-only collection of notes.
type Store interface {
	// Append adds a note to the end of the log.
	Append(n Note) error
	// All returns every readable note, oldest first.
	All() ([]Note, error)
	// Path returns the file backing the store.
	Path() string
	Close() error
}

// Backends returns the supported backend names.
func Backends() []string {
	return []string{BackendJSONL, BackendSQLite}
}

// Open creates the store for backend inside dir.
func Open(backend, dir string, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendJSONL:
		return NewFileStore(filepath.Join(dir, JSONLFile), logger)
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, SQLiteFile))
	default:
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownBackend, backend, strings.Join(Backends(), ", "))
	}
}

// NewID generates a note id: a random UUID as 32 hex characters.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Now returns the current time in UTC, truncated to the precision the
// log keeps.
func Now() time.Time {
	return timeNow().UTC().Truncate(time.Millisecond)
}

// FormatTime renders t in the note log's timestamp format, UTC with
// millisecond precision and a literal Z.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored timestamp and normalizes it to UTC.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
