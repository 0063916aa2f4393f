package notetools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/stickynote/internal/history"
)

// SearchTool handles the search_session_history MCP tool.
type SearchTool struct {
	deps Deps
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(deps Deps) *SearchTool {
	return &SearchTool{deps: deps.withDefaults()}
}

// Definition returns the MCP tool definition for search_session_history.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("search_session_history",
		mcp.WithDescription(
			"Search the normalized history of the current session with a regular expression. "+
				"Use it to check which entries a context_regex would match before creating a sticky note.",
		),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Regular expression matched against each history entry"),
		),
	)
}

type searchHit struct {
	Timestamp string `json:"timestamp,omitempty"`
	Kind      string `json:"kind"`
	Role      string `json:"role,omitempty"`
	Text      string `json:"text"`
}

// Handle processes the search_session_history tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := t.deps
	sessionID := d.SessionID(ctx)
	if sessionID == "" {
		return mcp.NewToolResultError("a client session id is required for searching session history"), nil
	}

	pattern := req.GetString("pattern", "")
	if pattern == "" {
		return mcp.NewToolResultError("'pattern' is required"), nil
	}
	re, err := d.Engine.Compile(pattern)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid regular expression: %v", err)), nil
	}

	entries, err := history.Search(d.History, sessionID, re)
	if err != nil {
		return historyError(d, sessionID, err), nil
	}

	hits := make([]searchHit, 0, len(entries))
	for _, e := range entries {
		hits = append(hits, searchHit{
			Timestamp: history.FormatTimestamp(e.Timestamp),
			Kind:      e.Kind,
			Role:      e.Role,
			Text:      e.Text,
		})
	}
	return jsonResult(hits)
}
