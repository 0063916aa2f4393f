// Package matcher finds trigger-pattern matches in a session context and
// cuts a bounded text window around each one.
package matcher

import (
	"errors"
	"fmt"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/HendryAvila/stickynote/internal/history"
)

const (
	// DefaultPadding is the number of characters kept on each side of a match.
	DefaultPadding = 80

	// DefaultTimeout bounds a single pattern evaluation.
	DefaultTimeout = 2 * time.Second

	ellipsis = "…"
)

// ErrInvalidPattern is returned when a trigger pattern does not compile.
var ErrInvalidPattern = errors.New("matcher: invalid regular expression")

// Snippet is the text window around one match plus where it came from.
type Snippet struct {
	Text     string    `json:"text"`
	Metadata EntryMeta `json:"metadata"`
}

// EntryMeta identifies the entry a snippet was cut from.
type EntryMeta struct {
	Timestamp *string `json:"timestamp"`
	Kind      string  `json:"kind"`
	Role      *string `json:"role"`
}

// Engine compiles trigger patterns and collects snippets.
type Engine struct {
	Padding int
	Timeout time.Duration
}

// New creates an Engine with the default padding. A non-positive timeout
// selects DefaultTimeout.
func New(timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{Padding: DefaultPadding, Timeout: timeout}
}

// Compile compiles pattern in multiline mode, so ^ and $ match at line
// boundaries inside an entry.
func (e *Engine) Compile(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.Multiline)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	re.MatchTimeout = e.Timeout
	return re, nil
}

// Collect scans each entry's text separately and returns one snippet per
// non-overlapping match, in entry order and then match order.
func (e *Engine) Collect(re *regexp2.Regexp, sc *history.SessionContext) ([]Snippet, error) {
	var snippets []Snippet
	for _, entry := range sc.Entries {
		if entry.Text == "" {
			continue
		}
		runes := []rune(entry.Text)
		m, err := re.FindStringMatch(entry.Text)
		for m != nil && err == nil {
			snippets = append(snippets, Snippet{
				Text:     Window(runes, m.Index, m.Index+m.Length, e.Padding),
				Metadata: metaOf(entry),
			})
			m, err = re.FindNextMatch(m)
		}
		if err != nil {
			return nil, fmt.Errorf("matcher: evaluating pattern: %w", err)
		}
	}
	return snippets, nil
}

// Texts returns just the window texts of snippets. The result is never nil.
func Texts(snippets []Snippet) []string {
	out := make([]string, 0, len(snippets))
	for _, s := range snippets {
		out = append(out, s.Text)
	}
	return out
}

// Window returns runes[start-padding : end+padding], clipped to the text,
// with an ellipsis on each side that was cut.
func Window(runes []rune, start, end, padding int) string {
	from := max(0, start-padding)
	to := min(len(runes), end+padding)

	var prefix, suffix string
	if from > 0 {
		prefix = ellipsis
	}
	if to < len(runes) {
		suffix = ellipsis
	}
	return prefix + string(runes[from:to]) + suffix
}

func metaOf(entry history.Entry) EntryMeta {
	meta := EntryMeta{Kind: entry.Kind}
	if entry.Timestamp != nil {
		ts := history.FormatTimestamp(entry.Timestamp)
		meta.Timestamp = &ts
	}
	if entry.Role != "" {
		role := entry.Role
		meta.Role = &role
	}
	return meta
}
