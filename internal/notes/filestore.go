package notes

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// record is the on-disk shape of a note. Optional fields are omitted when
// empty and never written as null.
type record struct {
	ID              *string  `json:"id"`
	Message         *string  `json:"message"`
	ContextRegex    *string  `json:"context_regex"`
	CreatedAt       *string  `json:"created_at"`
	Creator         string   `json:"creator,omitempty"`
	TriggerSnippets []string `json:"trigger_snippets,omitempty"`
}

// FileStore keeps notes in a JSONL file, one note per line.
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileStore creates the parent directory and the log file if needed.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("notes: creating directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("notes: creating %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("notes: creating %s: %w", path, err)
	}
	return &FileStore{path: path, logger: logger.With("component", "notes.jsonl")}, nil
}

// Path returns the JSONL file path.
func (s *FileStore) Path() string { return s.path }

// Close is a no-op; the file is opened per operation.
func (s *FileStore) Close() error { return nil }

// Append writes n as a single line at the end of the log.
func (s *FileStore) Append(n Note) error {
	line, err := encodeNote(n)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("notes: opening %s: %w", s.path, err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("notes: appending note %s: %w", n.ID, err)
	}
	return f.Close()
}

// All reads the log from the start. Blank, malformed and incomplete lines
// are skipped.
func (s *FileStore) All() ([]Note, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("notes: opening %s: %w", s.path, err)
	}
	defer f.Close()

	var out []Note
	r := bufio.NewReader(f)
	lineNum := 0
	for {
		line, readErr := r.ReadBytes('\n')
		lineNum++
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			n, err := decodeNote(line)
			if err != nil {
				s.logger.Debug("skipping malformed note line", "path", s.path, "line", lineNum, "err", err)
			} else {
				out = append(out, n)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return out, fmt.Errorf("notes: reading %s: %w", s.path, readErr)
		}
	}
	return out, nil
}

// encodeNote renders n as one JSON line terminated by a newline.
func encodeNote(n Note) ([]byte, error) {
	createdAt := FormatTime(n.CreatedAt)
	rec := record{
		ID:              &n.ID,
		Message:         &n.Message,
		ContextRegex:    &n.ContextRegex,
		CreatedAt:       &createdAt,
		Creator:         n.Creator,
		TriggerSnippets: n.TriggerSnippets,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("notes: encoding note %s: %w", n.ID, err)
	}
	return buf.Bytes(), nil
}

// decodeNote parses one log line. Every identity field must be present.
func decodeNote(line []byte) (Note, error) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return Note{}, err
	}
	if rec.ID == nil || rec.Message == nil || rec.ContextRegex == nil || rec.CreatedAt == nil {
		return Note{}, errors.New("missing required field")
	}
	createdAt, err := parseTime(*rec.CreatedAt)
	if err != nil {
		return Note{}, fmt.Errorf("created_at: %w", err)
	}
	return Note{
		ID:              *rec.ID,
		Message:         *rec.Message,
		ContextRegex:    *rec.ContextRegex,
		CreatedAt:       createdAt,
		Creator:         rec.Creator,
		TriggerSnippets: rec.TriggerSnippets,
	}, nil
}
