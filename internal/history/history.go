// Package history normalizes agent session logs into a single entry stream.
//
// Each host tool stores its sessions differently. A Provider knows one
// on-disk format, resolves which artifact belongs to a session id, and
// converts it into an ordered list of Entry values wrapped in a
// SessionContext. Contexts are rebuilt on every load because the logs
// keep growing while a session runs.
package history

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when no usable history exists for a session.
var ErrNotFound = errors.New("history: session history not found")

// ErrEmptySessionID is returned when a provider is asked for an empty id.
var ErrEmptySessionID = errors.New("history: session id is required")

// Entry is one normalized unit of session content: a message, a tool
// call, a reasoning step or a system event.
type Entry struct {
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Kind      string         `json:"kind"`
	Text      string         `json:"text"`
	Role      string         `json:"role,omitempty"`
	Metadata  map[string]any `json:"-"`
}

// SessionContext holds the entries of one session in source order.
type SessionContext struct {
	SessionID string
	Entries   []Entry
}

// FullText joins every non-empty entry text with a newline.
func (c *SessionContext) FullText() string {
	parts := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		if e.Text == "" {
			continue
		}
		parts = append(parts, e.Text)
	}
	return strings.Join(parts, "\n")
}

// Provider loads the session context for one log format.
//
// LoadContext returns a context with at least one entry, or an error
// wrapping ErrNotFound. It never returns an empty context.
type Provider interface {
	LoadContext(sessionID string) (*SessionContext, error)
	Root() string
}

// Pattern is the subset of a compiled regular expression Search needs.
type Pattern interface {
	MatchString(s string) (bool, error)
}

// Search returns the entries of a session whose text matches pattern.
// It is built only on LoadContext, so every provider gets it for free.
func Search(p Provider, sessionID string, pattern Pattern) ([]Entry, error) {
	sc, err := p.LoadContext(sessionID)
	if err != nil {
		return nil, err
	}

	var matches []Entry
	for _, e := range sc.Entries {
		if e.Text == "" {
			continue
		}
		ok, err := pattern.MatchString(e.Text)
		if err != nil {
			return nil, fmt.Errorf("history: matching entry: %w", err)
		}
		if ok {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// notFoundf builds an error wrapping ErrNotFound.
func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
