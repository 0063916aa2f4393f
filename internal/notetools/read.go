package notetools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/stickynote/internal/matcher"
)

// ReadTool handles the read_relevant_sticky_notes MCP tool.
type ReadTool struct {
	deps Deps
}

// NewReadTool creates a ReadTool.
func NewReadTool(deps Deps) *ReadTool {
	return &ReadTool{deps: deps.withDefaults()}
}

// Definition returns the MCP tool definition for read_relevant_sticky_notes.
func (t *ReadTool) Definition() mcp.Tool {
	return mcp.NewTool("read_relevant_sticky_notes",
		mcp.WithDescription(
			"Retrieve sticky notes that agents from the past have shared with you. "+
				"It returns the notes that are relevant to the current situation. "+
				"Call often (a note is only returned once per session) to benefit from them and avoid repeating past mistakes.",
		),
	)
}

type relevantNote struct {
	Message         string   `json:"message"`
	TriggerSnippets []string `json:"trigger_snippets"`
}

// Handle processes the read_relevant_sticky_notes tool call.
func (t *ReadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := t.deps
	sessionID := d.SessionID(ctx)
	d.Logger.Info("read_relevant_sticky_notes invoked", "session_id", sessionID)
	if sessionID == "" {
		return mcp.NewToolResultError("a client session id is required for reading sticky notes"), nil
	}

	sc, errResult := loadContext(d, sessionID)
	if errResult != nil {
		return errResult, nil
	}

	all, err := d.Store.All()
	if err != nil {
		d.Logger.Error("reading sticky notes failed", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to read sticky notes: %v", err)), nil
	}

	results := make([]relevantNote, 0)
	for _, note := range all {
		if d.Tracker.HasShown(sessionID, note.ID) {
			continue
		}

		re, err := d.Engine.Compile(note.ContextRegex)
		if err != nil {
			d.Logger.Warn("skipping note due to invalid regex", "note_id", note.ID, "err", err)
			continue
		}
		snippets, err := d.Engine.Collect(re, sc)
		if err != nil {
			d.Logger.Warn("skipping note whose regex could not be evaluated", "note_id", note.ID, "err", err)
			continue
		}
		if len(snippets) == 0 {
			continue
		}

		if !d.Tracker.MarkIfUnseen(sessionID, note.ID) {
			continue
		}
		results = append(results, relevantNote{
			Message:         note.Message,
			TriggerSnippets: matcher.Texts(snippets),
		})
	}

	d.Logger.Debug("delivered sticky notes", "session_id", sessionID, "count", len(results))
	return jsonResult(results)
}
