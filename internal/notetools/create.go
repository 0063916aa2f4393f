package notetools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/stickynote/internal/matcher"
	"github.com/HendryAvila/stickynote/internal/notes"
)

// CreateTool handles the create_sticky_note MCP tool.
type CreateTool struct {
	deps Deps
}

// NewCreateTool creates a CreateTool.
func NewCreateTool(deps Deps) *CreateTool {
	return &CreateTool{deps: deps.withDefaults()}
}

// Definition returns the MCP tool definition for create_sticky_note.
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool("create_sticky_note",
		mcp.WithDescription(
			"Persist a sticky note on a future context. The purpose is to inform future agents in situations you define. "+
				"The context_regex is evaluated against the entire future session context, so craft it carefully. "+
				"Typical use case: you made a mistake performing a task, so add a sticky note that helps a future agent avoid it. "+
				"The response includes snippets from your own context that the pattern matches. "+
				"Make sure the note would have been shown at a stage where it brings value.",
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The text that should appear in the sticky note when it triggers. Keep it concise and actionable."),
		),
		mcp.WithString("context_regex",
			mcp.Required(),
			mcp.Description("Regular expression that determines when the note should display. It is matched against the entire future session context."),
		),
		mcp.WithString("note_id",
			mcp.Description("Optional stable identifier to reuse an existing sticky note; omit to let the server generate one."),
		),
	)
}

type createResponse struct {
	ID              string   `json:"id"`
	TriggerSnippets []string `json:"trigger_snippets"`
}

// Handle processes the create_sticky_note tool call.
func (t *CreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := t.deps
	sessionID := d.SessionID(ctx)
	d.Logger.Info("create_sticky_note invoked", "session_id", sessionID)
	if sessionID == "" {
		return mcp.NewToolResultError("a client session id is required for sticky note creation"), nil
	}

	message := req.GetString("message", "")
	if message == "" {
		return mcp.NewToolResultError("Sticky note message cannot be empty"), nil
	}
	if _, ok := req.GetArguments()["context_regex"]; !ok {
		return mcp.NewToolResultError("'context_regex' is required"), nil
	}
	pattern := req.GetString("context_regex", "")

	re, err := d.Engine.Compile(pattern)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid regular expression: %v", err)), nil
	}

	sc, errResult := loadContext(d, sessionID)
	if errResult != nil {
		return errResult, nil
	}

	snippets, err := d.Engine.Collect(re, sc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("context_regex could not be evaluated: %v", err)), nil
	}
	texts := matcher.Texts(snippets)

	note := notes.Note{
		ID:           req.GetString("note_id", ""),
		Message:      message,
		ContextRegex: pattern,
		CreatedAt:    notes.Now(),
		Creator:      d.Creator,
	}
	if note.ID == "" {
		note.ID = notes.NewID()
	}
	if len(texts) > 0 {
		note.TriggerSnippets = texts
	}

	if err := d.Store.Append(note); err != nil {
		d.Logger.Error("appending sticky note failed", "note_id", note.ID, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to save sticky note: %v", err)), nil
	}
	d.Logger.Debug("created sticky note", "note_id", note.ID, "snippets", len(texts))

	return jsonResult(createResponse{ID: note.ID, TriggerSnippets: texts})
}
