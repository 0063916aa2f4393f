package notes

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func sampleNote() Note {
	return Note{
		ID:              "note-1",
		Message:         "Remember to update docs",
		ContextRegex:    "docs",
		CreatedAt:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		TriggerSnippets: []string{"Docs mention"},
	}
}

// openBoth returns a fresh store of each backend.
func openBoth(t *testing.T) map[string]Store {
	t.Helper()
	stores := make(map[string]Store)
	for _, backend := range Backends() {
		s, err := Open(backend, filepath.Join(t.TempDir(), "notes"), nil)
		if err != nil {
			t.Fatalf("Open(%q) error: %v", backend, err)
		}
		t.Cleanup(func() { _ = s.Close() })
		stores[backend] = s
	}
	return stores
}

func TestStore_Roundtrip(t *testing.T) {
	for backend, s := range openBoth(t) {
		t.Run(backend, func(t *testing.T) {
			note := sampleNote()
			if err := s.Append(note); err != nil {
				t.Fatalf("Append() error: %v", err)
			}

			stored, err := s.All()
			if err != nil {
				t.Fatalf("All() error: %v", err)
			}
			if len(stored) != 1 {
				t.Fatalf("got %d notes, want 1", len(stored))
			}
			got := stored[0]
			if got.ID != note.ID || got.Message != note.Message || got.ContextRegex != note.ContextRegex {
				t.Errorf("note = %+v, want %+v", got, note)
			}
			if !slices.Equal(got.TriggerSnippets, note.TriggerSnippets) {
				t.Errorf("snippets = %v, want %v", got.TriggerSnippets, note.TriggerSnippets)
			}
			if !got.CreatedAt.Equal(note.CreatedAt) || got.CreatedAt.Location() != time.UTC {
				t.Errorf("created_at = %v, want %v in UTC", got.CreatedAt, note.CreatedAt)
			}
		})
	}
}

func TestStore_PreservesAppendOrder(t *testing.T) {
	for backend, s := range openBoth(t) {
		t.Run(backend, func(t *testing.T) {
			for _, id := range []string{"c", "a", "b"} {
				n := sampleNote()
				n.ID = id
				if err := s.Append(n); err != nil {
					t.Fatalf("Append(%s) error: %v", id, err)
				}
			}
			stored, err := s.All()
			if err != nil {
				t.Fatalf("All() error: %v", err)
			}
			var ids []string
			for _, n := range stored {
				ids = append(ids, n.ID)
			}
			if !slices.Equal(ids, []string{"c", "a", "b"}) {
				t.Errorf("order = %v, want [c a b]", ids)
			}
		})
	}
}

func TestStore_OptionalFields(t *testing.T) {
	for backend, s := range openBoth(t) {
		t.Run(backend, func(t *testing.T) {
			n := sampleNote()
			n.TriggerSnippets = nil
			n.Creator = "agent-7"
			if err := s.Append(n); err != nil {
				t.Fatalf("Append() error: %v", err)
			}
			stored, err := s.All()
			if err != nil || len(stored) != 1 {
				t.Fatalf("All() = %v, %v", stored, err)
			}
			if stored[0].TriggerSnippets != nil {
				t.Errorf("snippets = %#v, want nil", stored[0].TriggerSnippets)
			}
			if stored[0].Creator != "agent-7" {
				t.Errorf("creator = %q", stored[0].Creator)
			}
		})
	}
}

func TestStore_EmptyLogReadsNothing(t *testing.T) {
	for backend, s := range openBoth(t) {
		t.Run(backend, func(t *testing.T) {
			stored, err := s.All()
			if err != nil {
				t.Fatalf("All() error: %v", err)
			}
			if len(stored) != 0 {
				t.Errorf("got %d notes from an empty store", len(stored))
			}
			if _, err := os.Stat(s.Path()); err != nil {
				t.Errorf("backing file should exist after open: %v", err)
			}
		})
	}
}

func TestFileStore_OmitsEmptyOptionalFields(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), JSONLFile), nil)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	n := sampleNote()
	n.TriggerSnippets = nil
	if err := s.Append(n); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	want := `{"id":"note-1","message":"Remember to update docs","context_regex":"docs","created_at":"2025-01-01T00:00:00.000Z"}` + "\n"
	if line != want {
		t.Errorf("line = %q, want %q", line, want)
	}
	if strings.Contains(line, "null") {
		t.Error("optional fields must be omitted, not null")
	}
}

func TestFileStore_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), JSONLFile)
	content := strings.Join([]string{
		`{"id":"ok-1","message":"m","context_regex":"x","created_at":"2025-01-01T00:00:00.000Z"}`,
		`not json`,
		``,
		`{"id":"missing-regex","message":"m","created_at":"2025-01-01T00:00:00.000Z"}`,
		`{"id":"bad-time","message":"m","context_regex":"x","created_at":"yesterday"}`,
		`{"id":"ok-2","message":"m","context_regex":"x","created_at":"2025-01-01T02:00:00+02:00"}`,
		`{"id":"trunc`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	stored, err := s.All()
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	if len(stored) != 2 || stored[0].ID != "ok-1" || stored[1].ID != "ok-2" {
		t.Fatalf("notes = %+v, want ok-1 and ok-2", stored)
	}
	if want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC); !stored[1].CreatedAt.Equal(want) {
		t.Errorf("offset timestamp = %v, want %v", stored[1].CreatedAt, want)
	}
}

func TestFileStore_EmptyStringsRoundtrip(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), JSONLFile), nil)
	if err != nil {
		t.Fatal(err)
	}
	n := sampleNote()
	n.ContextRegex = ""
	if err := s.Append(n); err != nil {
		t.Fatal(err)
	}
	stored, err := s.All()
	if err != nil || len(stored) != 1 {
		t.Fatalf("an empty context_regex is still present and must load: %v, %v", stored, err)
	}
}

func TestSQLiteStore_OpenFailure(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	wantErr := errors.New("boom")
	openDB = func(string, string) (*sql.DB, error) { return nil, wantErr }

	if _, err := NewSQLiteStore(filepath.Join(t.TempDir(), SQLiteFile)); !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("postgres", t.TempDir(), nil)
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("error = %v, want ErrUnknownBackend", err)
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if len(a) != 32 || strings.Contains(a, "-") {
		t.Errorf("NewID() = %q, want 32 hex characters", a)
	}
	if a == b {
		t.Error("NewID() returned the same id twice")
	}
}

func TestNow_IsUTCMilliseconds(t *testing.T) {
	orig := timeNow
	t.Cleanup(func() { timeNow = orig })
	timeNow = func() time.Time {
		return time.Date(2025, 3, 1, 10, 0, 0, 123_456_789, time.FixedZone("CET", 3600))
	}

	got := Now()
	want := time.Date(2025, 3, 1, 9, 0, 0, 123_000_000, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("Now() = %v, want %v", got, want)
	}
	if s := FormatTime(got); s != "2025-03-01T09:00:00.123Z" {
		t.Errorf("FormatTime() = %q", s)
	}
}
