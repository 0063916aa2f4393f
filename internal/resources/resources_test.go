package resources

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/stickynote/internal/notes"
)

// brokenStore fails every read.
type brokenStore struct{ notes.Store }

func (brokenStore) All() ([]notes.Note, error) { return nil, errors.New("disk on fire") }

func readNotes(t *testing.T, h *Handler) mcp.TextResourceContents {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = NotesURI
	contents, err := h.HandleNotes(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleNotes() error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content type = %T", contents[0])
	}
	return tc
}

func TestNotesResource_Definition(t *testing.T) {
	res := NewHandler(nil).NotesResource()
	if res.URI != NotesURI || res.MIMEType != "application/json" {
		t.Errorf("resource = %+v", res)
	}
}

func TestHandleNotes(t *testing.T) {
	store, err := notes.NewFileStore(filepath.Join(t.TempDir(), notes.JSONLFile), nil)
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(store)

	if got := readNotes(t, h).Text; got != "[]" {
		t.Errorf("empty store = %q, want []", got)
	}

	if err := store.Append(notes.Note{
		ID:           "n1",
		Message:      "Use <b>make</b> & friends",
		ContextRegex: "build",
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}

	tc := readNotes(t, h)
	if tc.URI != NotesURI || tc.MIMEType != "application/json" {
		t.Errorf("contents = %+v", tc)
	}
	var views []noteView
	if err := json.Unmarshal([]byte(tc.Text), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 || views[0].ID != "n1" || views[0].CreatedAt != "2025-01-01T00:00:00.000Z" {
		t.Errorf("views = %+v", views)
	}
	if views[0].Message != "Use <b>make</b> & friends" {
		t.Errorf("message = %q", views[0].Message)
	}
}

func TestHandleNotes_StoreError(t *testing.T) {
	tc := readNotes(t, NewHandler(brokenStore{}))
	if tc.MIMEType != "text/plain" || !strings.Contains(tc.Text, "disk on fire") {
		t.Errorf("contents = %+v", tc)
	}
}
