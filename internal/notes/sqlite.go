package notes

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteStore keeps notes in an append-only SQLite table. Rows are only
// ever inserted; insertion order is the read order.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the database at path and runs
// migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("notes: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("notes: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("notes: pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("notes: migration: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sticky_notes (
			seq              INTEGER PRIMARY KEY AUTOINCREMENT,
			id               TEXT NOT NULL,
			message          TEXT NOT NULL,
			context_regex    TEXT NOT NULL,
			created_at       TEXT NOT NULL,
			creator          TEXT,
			trigger_snippets TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_sticky_notes_id ON sticky_notes(id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append inserts n as a new row.
func (s *SQLiteStore) Append(n Note) error {
	var creator, snippets sql.NullString
	if n.Creator != "" {
		creator = sql.NullString{String: n.Creator, Valid: true}
	}
	if len(n.TriggerSnippets) > 0 {
		b, err := json.Marshal(n.TriggerSnippets)
		if err != nil {
			return fmt.Errorf("notes: encoding snippets: %w", err)
		}
		snippets = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO sticky_notes (id, message, context_regex, created_at, creator, trigger_snippets)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.Message, n.ContextRegex, FormatTime(n.CreatedAt), creator, snippets,
	)
	if err != nil {
		return fmt.Errorf("notes: inserting note %s: %w", n.ID, err)
	}
	return nil
}

// All returns every note in insertion order. Rows whose timestamp or
// snippet list cannot be decoded are skipped.
func (s *SQLiteStore) All() ([]Note, error) {
	rows, err := s.db.Query(
		`SELECT id, message, context_regex, created_at, creator, trigger_snippets
		 FROM sticky_notes ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("notes: querying notes: %w", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		var createdAt string
		var creator, snippets sql.NullString
		if err := rows.Scan(&n.ID, &n.Message, &n.ContextRegex, &createdAt, &creator, &snippets); err != nil {
			return nil, fmt.Errorf("notes: scanning note: %w", err)
		}
		t, err := parseTime(createdAt)
		if err != nil {
			continue
		}
		n.CreatedAt = t
		n.Creator = creator.String
		if snippets.Valid {
			if err := json.Unmarshal([]byte(snippets.String), &n.TriggerSnippets); err != nil {
				continue
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
