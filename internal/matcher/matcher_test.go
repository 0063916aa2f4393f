package matcher

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"pgregory.net/rapid"

	"github.com/HendryAvila/stickynote/internal/history"
)

func contextOf(texts ...string) *history.SessionContext {
	sc := &history.SessionContext{SessionID: "s"}
	for _, t := range texts {
		sc.Entries = append(sc.Entries, history.Entry{Kind: "message", Text: t, Role: "user"})
	}
	return sc
}

func collect(t *testing.T, pattern string, sc *history.SessionContext) []Snippet {
	t.Helper()
	e := New(0)
	re, err := e.Compile(pattern)
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", pattern, err)
	}
	snippets, err := e.Collect(re, sc)
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	return snippets
}

func TestCollect_WindowClippedAtStart(t *testing.T) {
	text := strings.Repeat("a", 150) + "NEEDL" + strings.Repeat("b", 45)
	snippets := collect(t, "NEEDL", contextOf(text))
	if len(snippets) != 1 {
		t.Fatalf("got %d snippets, want 1", len(snippets))
	}

	got := snippets[0].Text
	want := "…" + text[70:]
	if got != want {
		t.Errorf("snippet = %q, want %q", got, want)
	}
	if strings.HasSuffix(got, "b…") {
		t.Error("snippet reaching the end of the text must not get a suffix ellipsis")
	}
}

func TestCollect_ShortTextHasNoEllipsis(t *testing.T) {
	snippets := collect(t, "docs", contextOf("update the docs please"))
	if len(snippets) != 1 || snippets[0].Text != "update the docs please" {
		t.Errorf("snippets = %+v", snippets)
	}
}

func TestCollect_MultipleMatchesAcrossEntries(t *testing.T) {
	sc := contextOf("go test ./... then go vet", "", "no match here", "go build")
	sc.Entries[3].Kind = "function_call"
	sc.Entries[3].Role = ""
	ts := time.Date(2025, 5, 7, 17, 25, 0, 0, time.UTC)
	sc.Entries[0].Timestamp = &ts

	snippets := collect(t, `\bgo\b`, sc)
	if len(snippets) != 3 {
		t.Fatalf("got %d snippets, want 3", len(snippets))
	}

	first := snippets[0].Metadata
	if first.Timestamp == nil || *first.Timestamp != "2025-05-07T17:25:00Z" {
		t.Errorf("timestamp = %v", first.Timestamp)
	}
	if first.Role == nil || *first.Role != "user" {
		t.Errorf("role = %v", first.Role)
	}

	last := snippets[2].Metadata
	if last.Kind != "function_call" || last.Role != nil || last.Timestamp != nil {
		t.Errorf("last metadata = %+v", last)
	}
}

func TestCollect_EmptyMatchesAdvance(t *testing.T) {
	snippets := collect(t, "x*", contextOf("ab"))
	// Empty matches at 0, 1 and 2.
	if len(snippets) != 3 {
		t.Errorf("got %d snippets, want 3", len(snippets))
	}
}

func TestCollect_MultilineAnchors(t *testing.T) {
	snippets := collect(t, "^ERROR", contextOf("ok\nERROR: disk full\nok"))
	if len(snippets) != 1 {
		t.Errorf("^ should match after a newline; got %d snippets", len(snippets))
	}
}

func TestCollect_NoMatch(t *testing.T) {
	if got := collect(t, "absent", contextOf("present")); len(got) != 0 {
		t.Errorf("got %d snippets, want 0", len(got))
	}
	if got := Texts(nil); got == nil || len(got) != 0 {
		t.Errorf("Texts(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestCompile_InvalidPattern(t *testing.T) {
	_, err := New(0).Compile("(unclosed")
	if !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("error = %v, want ErrInvalidPattern", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	e := New(0)
	if e.Padding != DefaultPadding || e.Timeout != DefaultTimeout {
		t.Errorf("New(0) = %+v", e)
	}
	if got := New(time.Second).Timeout; got != time.Second {
		t.Errorf("timeout = %v, want 1s", got)
	}
}

func TestWindow_CountsRunes(t *testing.T) {
	runes := []rune("ééééé" + "X" + "ééééé")
	if got, want := Window(runes, 5, 6, 2), "…ééXéé…"; got != want {
		t.Errorf("Window() = %q, want %q", got, want)
	}
}

func TestWindow_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// The alphabet excludes the ellipsis so it can only come from Window.
		text := rapid.StringOfN(rapid.RuneFrom([]rune("ab é\n")), 0, 400, -1).Draw(t, "text")
		runes := []rune(text)
		start := rapid.IntRange(0, len(runes)).Draw(t, "start")
		end := rapid.IntRange(start, len(runes)).Draw(t, "end")
		padding := rapid.IntRange(0, 120).Draw(t, "padding")

		got := Window(runes, start, end, padding)

		wantPrefix := start-padding > 0
		wantSuffix := end+padding < len(runes)
		if strings.HasPrefix(got, "…") != wantPrefix {
			t.Fatalf("prefix ellipsis = %v, want %v (got %q)", !wantPrefix, wantPrefix, got)
		}
		if strings.HasSuffix(got, "…") != wantSuffix {
			t.Fatalf("suffix ellipsis = %v, want %v (got %q)", !wantSuffix, wantSuffix, got)
		}

		body := strings.TrimSuffix(strings.TrimPrefix(got, "…"), "…")
		if !strings.Contains(body, string(runes[start:end])) {
			t.Fatalf("window %q does not contain the match", got)
		}
		if n := utf8.RuneCountInString(body); n > end-start+2*padding {
			t.Fatalf("window body has %d runes, more than match plus padding", n)
		}
	})
}
