// Package tracker remembers which sticky notes were already delivered in
// each session so a note is shown at most once per session.
//
// State lives only for the lifetime of the process.
package tracker

import "sync"

// Tracker maps session ids to the set of note ids delivered in them.
// It is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	shown map[string]map[string]struct{}
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{shown: make(map[string]map[string]struct{})}
}

// MarkShown records that noteID was delivered in sessionID. Marking the
// same pair twice is a no-op.
func (t *Tracker) MarkShown(sessionID, noteID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.markLocked(sessionID, noteID)
}

// MarkIfUnseen marks the pair and reports true, unless it was already
// marked, in which case it reports false. Callers use it to claim a
// delivery when several requests for the same session overlap.
func (t *Tracker) MarkIfUnseen(sessionID, noteID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.shown[sessionID][noteID]; ok {
		return false
	}
	t.markLocked(sessionID, noteID)
	return true
}

// HasShown reports whether noteID was delivered in sessionID.
func (t *Tracker) HasShown(sessionID, noteID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.shown[sessionID][noteID]
	return ok
}

// Unseen returns the ids in noteIDs not yet delivered in sessionID,
// preserving input order.
func (t *Tracker) Unseen(sessionID string, noteIDs []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := t.shown[sessionID]
	out := make([]string, 0, len(noteIDs))
	for _, id := range noteIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Reset forgets every delivery recorded for sessionID.
func (t *Tracker) Reset(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.shown, sessionID)
}

func (t *Tracker) markLocked(sessionID, noteID string) {
	set, ok := t.shown[sessionID]
	if !ok {
		set = make(map[string]struct{})
		t.shown[sessionID] = set
	}
	set[noteID] = struct{}{}
}
