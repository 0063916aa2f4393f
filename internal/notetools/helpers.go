// Package notetools provides the MCP tool handlers for sticky notes.
//
// Each tool handler follows the same pattern:
// - A struct with its dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Every call reloads the session history from disk, so notes are always
// matched against the session as it is right now.
package notetools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/stickynote/internal/history"
	"github.com/HendryAvila/stickynote/internal/matcher"
	"github.com/HendryAvila/stickynote/internal/notes"
	"github.com/HendryAvila/stickynote/internal/tracker"
)

// SessionIDFunc extracts the calling client's session id from a request
// context. It returns "" when there is none.
type SessionIDFunc func(ctx context.Context) string

// ClientSessionID reads the session id of the MCP client session bound to
// ctx by the server.
func ClientSessionID(ctx context.Context) string {
	if s := server.ClientSessionFromContext(ctx); s != nil {
		return s.SessionID()
	}
	return ""
}

// Deps are the collaborators shared by the note tools.
type Deps struct {
	Store     notes.Store
	History   history.Provider
	Tracker   *tracker.Tracker
	Engine    *matcher.Engine
	Logger    *slog.Logger
	SessionID SessionIDFunc
	// Creator is recorded on every note created through this server.
	Creator string
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.SessionID == nil {
		d.SessionID = ClientSessionID
	}
	if d.Engine == nil {
		d.Engine = matcher.New(0)
	}
	if d.Tracker == nil {
		d.Tracker = tracker.New()
	}
	return d
}

// loadContext loads the session history, or returns the error result to
// send back to the agent.
func loadContext(d Deps, sessionID string) (*history.SessionContext, *mcp.CallToolResult) {
	sc, err := d.History.LoadContext(sessionID)
	if err != nil {
		return nil, historyError(d, sessionID, err)
	}
	return sc, nil
}

// historyError turns a provider failure into the message shown to the
// agent. It names the session but not the paths that were searched.
func historyError(d Deps, sessionID string, err error) *mcp.CallToolResult {
	if errors.Is(err, history.ErrNotFound) {
		d.Logger.Info("no session history", "session_id", sessionID, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("No session history found for session_id '%s'", sessionID))
	}
	d.Logger.Error("loading session history failed", "session_id", sessionID, "err", err)
	return mcp.NewToolResultError(fmt.Sprintf("Failed to load session history for session_id '%s'", sessionID))
}

// jsonResult renders v as the text content of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(bytes.TrimRight(buf.Bytes(), "\n"))), nil
}
