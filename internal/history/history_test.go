package history

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dlclark/regexp2"
)

// stubProvider serves a fixed context, or a fixed error.
type stubProvider struct {
	sc  *SessionContext
	err error
}

func (s stubProvider) LoadContext(string) (*SessionContext, error) { return s.sc, s.err }
func (s stubProvider) Root() string                                { return "" }

// failingPattern errors on every evaluation, like a timed-out regexp.
type failingPattern struct{}

func (failingPattern) MatchString(string) (bool, error) { return false, errors.New("timeout") }

func TestFullText_SkipsEmptyEntries(t *testing.T) {
	sc := &SessionContext{Entries: []Entry{
		{Text: "first"},
		{Text: ""},
		{Text: "second"},
	}}
	if got, want := sc.FullText(), "first\nsecond"; got != want {
		t.Errorf("FullText() = %q, want %q", got, want)
	}
}

func TestSearch_ReturnsMatchingEntriesInOrder(t *testing.T) {
	p := stubProvider{sc: &SessionContext{Entries: []Entry{
		{Kind: "message", Text: "run go test"},
		{Kind: "message", Text: "unrelated"},
		{Kind: "function_call", Text: "call:shell go vet"},
		{Kind: "message", Text: ""},
	}}}

	got, err := Search(p, "s", regexp2.MustCompile(`\bgo\b`, regexp2.None))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(got) != 2 || got[0].Text != "run go test" || got[1].Kind != "function_call" {
		t.Errorf("Search() = %+v", got)
	}
}

func TestSearch_PropagatesErrors(t *testing.T) {
	_, err := Search(stubProvider{err: notFoundf("nothing")}, "s", regexp2.MustCompile("x", regexp2.None))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	p := stubProvider{sc: &SessionContext{Entries: []Entry{{Text: "x"}}}}
	if _, err := Search(p, "s", failingPattern{}); err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Errorf("error = %v, want the pattern failure", err)
	}
}

func TestSearch_WorksWithRealProvider(t *testing.T) {
	dir := t.TempDir()
	writeJSONL(t, filepath.Join(dir, "s.jsonl"),
		sessionMeta("s", "Always run the linter"),
		userMessage("2025-05-07T17:25:00Z", "please fix the linter errors"),
		userMessage("2025-05-07T17:26:00Z", "thanks"),
	)

	got, err := Search(NewCodexProvider(dir, nil), "s", regexp2.MustCompile("linter", regexp2.None))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d entries, want 2", len(got))
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"codex", "*history.CodexProvider", false},
		{"  Copilot ", "*history.CopilotProvider", false},
		{"CODEX", "*history.CodexProvider", false},
		{"claude", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.name, "/tmp/history", nil)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewProvider(%q) expected error", tt.name)
				}
				if !strings.Contains(err.Error(), "codex") || !strings.Contains(err.Error(), "copilot") {
					t.Errorf("error should list known frameworks: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider(%q) error: %v", tt.name, err)
			}
			if got := typeName(p); got != tt.want {
				t.Errorf("type = %s, want %s", got, tt.want)
			}
			if p.Root() != "/tmp/history" {
				t.Errorf("Root() = %q", p.Root())
			}
		})
	}
}

func typeName(p Provider) string {
	switch p.(type) {
	case *CodexProvider:
		return "*history.CodexProvider"
	case *CopilotProvider:
		return "*history.CopilotProvider"
	}
	return "unknown"
}

func TestNames(t *testing.T) {
	got := Names()
	if len(got) != 2 || got[0] != "codex" || got[1] != "copilot" {
		t.Errorf("Names() = %v", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 5, 7, 17, 24, 21, 0, time.UTC)
	midnight := time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in   any
		want *time.Time
	}{
		{"2025-05-07T17:24:21Z", &want},
		{"2025-05-07T19:24:21+02:00", &want},
		{"2025-05-07T17:24:21", &want},
		{"2025-05-07T19:24:21+0200", &want},
		{"2025-05-07 17:24:21.000+0000", &want},
		{"2025-05-07", &midnight},
		{"yesterday", nil},
		{42.0, nil},
		{nil, nil},
	}
	for _, tt := range tests {
		got := parseTimestamp(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseTimestamp(%v) = %v, want nil", tt.in, got)
		case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
			t.Errorf("parseTimestamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(nil); got != "" {
		t.Errorf("FormatTimestamp(nil) = %q", got)
	}
	ts := time.Date(2025, 1, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	if got, want := FormatTimestamp(&ts), "2025-01-01T11:00:00Z"; got != want {
		t.Errorf("FormatTimestamp() = %q, want %q", got, want)
	}
}
