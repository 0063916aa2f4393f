package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

var copilotFiles = glob.MustCompile("{*.json,chatSessions/*.json,**/chatSessions/*.json}", '/')

// chatSessionsDir is the per-workspace folder VS Code keeps chats in.
const chatSessionsDir = "chatSessions"

// DefaultWorkspaceRoots returns the VS Code workspace storage directories
// scanned regardless of the configured root.
func DefaultWorkspaceRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, "Library", "Application Support", "Code", "User", "workspaceStorage"),
		filepath.Join(home, "Library", "Application Support", "Code - Insiders", "User", "workspaceStorage"),
		filepath.Join(home, ".config", "Code", "User", "workspaceStorage"),
		filepath.Join(home, ".config", "Code - Insiders", "User", "workspaceStorage"),
	}
}

// CopilotProvider reads GitHub Copilot Chat sessions stored as one JSON
// document per session.
type CopilotProvider struct {
	root   string
	logger *slog.Logger

	// WorkspaceRoots are scanned one level deep for chatSessions folders.
	WorkspaceRoots []string
}

// NewCopilotProvider creates a CopilotProvider rooted at root.
func NewCopilotProvider(root string, logger *slog.Logger) *CopilotProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CopilotProvider{
		root:           root,
		logger:         logger.With("component", "history.copilot"),
		WorkspaceRoots: DefaultWorkspaceRoots(),
	}
}

// Root returns the configured history root.
func (p *CopilotProvider) Root() string { return p.root }

// LoadContext loads <sessionID>.json when one exists. Otherwise it returns
// the most recently modified document that parses, labelled with that
// document's own file stem.
func (p *CopilotProvider) LoadContext(sessionID string) (*SessionContext, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	candidates := p.findSessionFiles()
	if len(candidates) == 0 {
		return nil, notFoundf("no Copilot chat history found under %s or VS Code workspace storage", p.root)
	}

	for _, c := range candidates {
		if filepath.Base(c.path) == sessionID+".json" {
			return p.loadFile(c.path, sessionID)
		}
	}

	sortNewestFirst(candidates)
	p.logger.Info("checking candidate chat sessions", "count", len(candidates))

	for _, c := range candidates {
		actualID := strings.TrimSuffix(filepath.Base(c.path), filepath.Ext(c.path))
		sc, err := p.loadFile(c.path, actualID)
		if err != nil {
			p.logger.Warn("failed to parse session file", "path", c.path, "err", err)
			continue
		}
		p.logger.Info("loaded session", "session_id", actualID, "path", c.path)
		return sc, nil
	}

	return nil, notFoundf("could not parse any valid history from %d candidates", len(candidates))
}

func (p *CopilotProvider) loadFile(path, sessionID string) (*SessionContext, error) {
	entries, err := parseCopilotFile(path)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, notFoundf("empty history file %s", path)
	}
	return &SessionContext{SessionID: sessionID, Entries: entries}, nil
}

// findSessionFiles gathers chat documents from the configured root and the
// well-known workspace roots, de-duplicated in discovery order.
func (p *CopilotProvider) findSessionFiles() []candidate {
	var found []candidate

	if info, err := os.Stat(p.root); err == nil {
		if !info.IsDir() {
			return []candidate{{path: p.root, mtime: info.ModTime().UnixNano()}}
		}
		files, err := globFiles(p.root, copilotFiles)
		if err != nil {
			p.logger.Debug("scanning history root failed", "root", p.root, "err", err)
		}
		found = append(found, files...)
	}

	for _, base := range p.WorkspaceRoots {
		workspaces, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		p.logger.Debug("scanning for chat sessions", "base", base)
		for _, ws := range workspaces {
			if !ws.IsDir() {
				continue
			}
			chatDir := filepath.Join(base, ws.Name(), chatSessionsDir)
			docs, err := os.ReadDir(chatDir)
			if err != nil {
				continue
			}
			for _, d := range docs {
				if d.IsDir() || filepath.Ext(d.Name()) != ".json" {
					continue
				}
				path := filepath.Join(chatDir, d.Name())
				found = append(found, candidate{path: path, mtime: mtimeOf(path)})
			}
		}
	}

	seen := make(map[string]bool, len(found))
	unique := found[:0]
	for _, c := range found {
		key := c.path
		if abs, err := filepath.Abs(c.path); err == nil {
			key = abs
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, c)
	}
	p.logger.Debug("found chat session files", "count", len(unique))
	return unique
}

type copilotDocument struct {
	Requests []copilotRequest `json:"requests"`
}

type copilotRequest struct {
	ID        any              `json:"id"`
	Timestamp *float64         `json:"timestamp"`
	Message   map[string]any   `json:"message"`
	Response  []map[string]any `json:"response"`
}

// parseCopilotFile decodes one chat document into entries.
func parseCopilotFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("history: reading %s: %w", path, err)
	}

	var doc copilotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("history: decoding %s: %w", path, err)
	}

	var entries []Entry
	for _, req := range doc.Requests {
		var ts *time.Time
		if req.Timestamp != nil && *req.Timestamp != 0 {
			t := time.UnixMilli(int64(*req.Timestamp)).UTC()
			ts = &t
		}

		if text := stringField(req.Message, "text"); text != "" {
			entries = append(entries, Entry{
				Timestamp: ts,
				Kind:      "message",
				Text:      text,
				Role:      "user",
				Metadata:  map[string]any{"requestId": req.ID},
			})
		}

		for _, item := range req.Response {
			if value, ok := firstTruthy(item, "value"); ok {
				entries = append(entries, Entry{
					Timestamp: ts,
					Kind:      "message",
					Text:      stringValue(value),
					Role:      "assistant",
					Metadata:  map[string]any{"requestId": req.ID},
				})
				continue
			}
			if stringField(item, "kind") != "toolInvocationSerialized" {
				continue
			}

			details, _ := object(item, "resultDetails")
			input := details["input"]
			toolID := item["toolId"]
			entries = append(entries, Entry{
				Timestamp: ts,
				Kind:      "tool_call",
				Text:      fmt.Sprintf("Tool Call: %s\nArguments: %s", stringValue(toolID), stringValue(input)),
				Role:      "assistant",
				Metadata: map[string]any{
					"requestId":  req.ID,
					"toolCallId": item["toolCallId"],
					"toolId":     toolID,
					"input":      input,
					"output":     details["output"],
				},
			})
		}
	}
	return entries, nil
}
