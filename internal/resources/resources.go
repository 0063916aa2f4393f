// Package resources implements MCP resource handlers for sticky notes.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (stickynote://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/stickynote/internal/notes"
)

// NotesURI addresses the full note log.
const NotesURI = "stickynote://notes"

// Handler manages sticky note resource endpoints.
type Handler struct {
	store notes.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store notes.Store) *Handler {
	return &Handler{store: store}
}

// NotesResource returns the MCP resource definition for the note log.
func (h *Handler) NotesResource() mcp.Resource {
	return mcp.NewResource(
		NotesURI,
		"Sticky Notes",
		mcp.WithResourceDescription("Every sticky note stored by this server, oldest first"),
		mcp.WithMIMEType("application/json"),
	)
}

type noteView struct {
	ID              string   `json:"id"`
	Message         string   `json:"message"`
	ContextRegex    string   `json:"context_regex"`
	CreatedAt       string   `json:"created_at"`
	Creator         string   `json:"creator,omitempty"`
	TriggerSnippets []string `json:"trigger_snippets,omitempty"`
}

// HandleNotes returns all stored notes as JSON.
func (h *Handler) HandleNotes(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	all, err := h.store.All()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	views := make([]noteView, 0, len(all))
	for _, n := range all {
		views = append(views, noteView{
			ID:              n.ID,
			Message:         n.Message,
			ContextRegex:    n.ContextRegex,
			CreatedAt:       notes.FormatTime(n.CreatedAt),
			Creator:         n.Creator,
			TriggerSnippets: n.TriggerSnippets,
		})
	}

	data, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling notes: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
