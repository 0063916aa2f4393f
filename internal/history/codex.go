package history

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
	"strings"

	"github.com/gobwas/glob"
)

var codexFiles = glob.MustCompile("**.jsonl", '/')

// eventNoise lists event_msg variants that repeat what response_item
// records already carry.
var eventNoise = map[string]bool{
	"token_count":   true,
	"agent_message": true,
	"user_message":  true,
}

// codexRecord is one line of a Codex rollout file.
type codexRecord struct {
	Timestamp any            `json:"timestamp"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
}

// CodexProvider reads Codex rollout JSONL files. The root may be a single
// file or a directory searched recursively.
type CodexProvider struct {
	root   string
	logger *slog.Logger
}

// NewCodexProvider creates a CodexProvider rooted at root.
func NewCodexProvider(root string, logger *slog.Logger) *CodexProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CodexProvider{root: root, logger: logger.With("component", "history.codex")}
}

// Root returns the configured history root.
func (p *CodexProvider) Root() string { return p.root }

// LoadContext returns the context of the first file whose declared session
// id equals sessionID. If no file declares it, the first file that produced
// any entries is returned instead, still labelled with sessionID.
func (p *CodexProvider) LoadContext(sessionID string) (*SessionContext, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	paths, err := p.candidatePaths(sessionID)
	if err != nil {
		return nil, err
	}

	var fallback *SessionContext
	var fallbackPath string

	for _, path := range paths {
		entries, discoveredID, err := p.parseFile(path)
		if err != nil {
			p.logger.Debug("skipping unreadable history file", "path", path, "err", err)
			continue
		}
		if len(entries) == 0 {
			continue
		}
		if discoveredID == sessionID {
			return &SessionContext{SessionID: sessionID, Entries: entries}, nil
		}
		if fallback == nil {
			fallback = &SessionContext{SessionID: sessionID, Entries: entries}
			fallbackPath = path
		}
	}

	if fallback != nil {
		p.logger.Warn("session id not found; using fallback session",
			"requested_id", sessionID,
			"path", fallbackPath,
		)
		return fallback, nil
	}

	return nil, notFoundf("session history for id %q not found under %s", sessionID, p.root)
}

// candidatePaths lists the files to try: those whose name contains the
// session id first, then the rest, each group newest first.
func (p *CodexProvider) candidatePaths(sessionID string) ([]string, error) {
	info, err := os.Stat(p.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFoundf("history directory %q does not exist for session %q", p.root, sessionID)
		}
		return nil, fmt.Errorf("history: stat %s: %w", p.root, err)
	}
	if !info.IsDir() {
		return []string{p.root}, nil
	}

	files, err := globFiles(p.root, codexFiles)
	if err != nil {
		return nil, fmt.Errorf("history: scanning %s: %w", p.root, err)
	}
	if len(files) == 0 {
		return nil, notFoundf("no history files found under %q for session %q", p.root, sessionID)
	}

	var matched, unmatched []candidate
	for _, f := range files {
		if strings.Contains(filepath.Base(f.path), sessionID) {
			matched = append(matched, f)
		} else {
			unmatched = append(unmatched, f)
		}
	}
	sortNewestFirst(matched)
	sortNewestFirst(unmatched)

	paths := make([]string, 0, len(files))
	for _, f := range append(matched, unmatched...) {
		paths = append(paths, f.path)
	}
	return paths, nil
}

// parseFile converts every record of a rollout file into entries and
// reports the first session id the file declares.
func (p *CodexProvider) parseFile(path string) ([]Entry, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var entries []Entry
	var discoveredID string

	r := bufio.NewReader(f)
	for {
		line, readErr := r.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec codexRecord
			if err := json.Unmarshal(line, &rec); err == nil {
				if rec.Type == "session_meta" {
					if id, ok := firstTruthy(rec.Payload, "id"); ok && discoveredID == "" {
						discoveredID = stringValue(id)
					}
				}
				if e, ok := entryFromRecord(rec); ok {
					entries = append(entries, e)
				}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return entries, discoveredID, readErr
		}
	}
	return entries, discoveredID, nil
}

// entryFromRecord maps one rollout record to an entry, if it has one.
func entryFromRecord(rec codexRecord) (Entry, bool) {
	payload := rec.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	switch rec.Type {
	case "session_meta":
		instructions, ok := firstTruthy(payload, "instructions")
		if !ok {
			return Entry{}, false
		}
		return Entry{
			Timestamp: parseTimestamp(rec.Timestamp),
			Kind:      "session_meta",
			Text:      stringValue(instructions),
			Role:      "system",
			Metadata:  payload,
		}, true

	case "response_item":
		return entryFromResponseItem(rec, payload)

	case "event_msg":
		if eventNoise[stringField(payload, "type")] {
			return Entry{}, false
		}
		return entryFromEvent(rec, payload)

	case "compacted":
		message, ok := firstTruthy(payload, "message")
		if !ok {
			return Entry{}, false
		}
		return Entry{
			Timestamp: parseTimestamp(rec.Timestamp),
			Kind:      "compacted",
			Text:      stringValue(message),
			Role:      "assistant",
			Metadata:  payload,
		}, true
	}

	// turn_context and unknown record types carry no session content.
	return Entry{}, false
}

// view returns the nested payload when present and non-empty, else the
// payload itself. Older rollouts nest the item body one level deeper.
func view(payload map[string]any) map[string]any {
	if inner, ok := object(payload, "payload"); ok && len(inner) > 0 {
		return inner
	}
	return payload
}

func entryFromResponseItem(rec codexRecord, payload map[string]any) (Entry, bool) {
	variant := stringField(payload, "type")
	v := view(payload)
	ts := parseTimestamp(rec.Timestamp)

	switch variant {
	case "message":
		content, _ := v["content"].([]any)
		var parts []string
		for _, el := range content {
			block, ok := el.(map[string]any)
			if !ok {
				continue
			}
			raw := block["text"]
			if raw == nil {
				continue
			}
			if s := stringValue(raw); s != "" {
				parts = append(parts, s)
			}
		}
		text := strings.Join(parts, "\n")
		if text == "" {
			return Entry{}, false
		}
		return Entry{Timestamp: ts, Kind: "message", Text: text, Role: stringField(v, "role"), Metadata: payload}, true

	case "reasoning":
		var text string
		if raw, ok := firstTruthy(v, "text"); ok {
			text = strings.TrimSpace(stringValue(raw))
		}
		if text == "" {
			return Entry{}, false
		}
		return Entry{Timestamp: ts, Kind: "reasoning", Text: text, Role: stringField(v, "role"), Metadata: payload}, true

	case "function_call", "custom_tool_call", "local_shell_call":
		name, _ := firstTruthy(v, "name", "tool_name", "command")
		args, _ := firstTruthy(v, "arguments", "input")
		text := formatCall(name, args)
		if text == "" {
			return Entry{}, false
		}
		role := stringField(v, "role")
		if role == "" {
			role = "assistant"
		}
		return Entry{Timestamp: ts, Kind: variant, Text: text, Role: role, Metadata: payload}, true
	}
	return Entry{}, false
}

// entryFromEvent builds an event:<variant> entry. The text is the message
// when it is non-empty, otherwise the text field if it exists at all.
func entryFromEvent(rec codexRecord, payload map[string]any) (Entry, bool) {
	variant := stringField(payload, "type")
	v := view(payload)

	var message any
	if m, ok := firstTruthy(v, "message"); ok {
		message = m
	} else if t, ok := v["text"]; ok && t != nil {
		message = t
	} else {
		return Entry{}, false
	}

	return Entry{
		Timestamp: parseTimestamp(rec.Timestamp),
		Kind:      "event:" + variant,
		Text:      stringValue(message),
		Role:      stringField(v, "role"),
		Metadata:  payload,
	}, true
}

// formatCall renders a tool call as "call:<name> <json arguments>".
func formatCall(name, args any) string {
	var parts []string
	if truthy(name) {
		parts = append(parts, "call:"+stringValue(name))
	}
	if truthy(args) {
		parts = append(parts, encodeJSON(args))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
