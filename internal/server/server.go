// Package server wires all MCP components and creates the server instance.
//
// It opens the note store, resolves the history provider for the
// configured framework and injects both into the tools, the prompt and
// the resource. Behavior lives in the packages it wires.
package server

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/stickynote/internal/config"
	"github.com/HendryAvila/stickynote/internal/history"
	"github.com/HendryAvila/stickynote/internal/matcher"
	"github.com/HendryAvila/stickynote/internal/notes"
	"github.com/HendryAvila/stickynote/internal/notetools"
	"github.com/HendryAvila/stickynote/internal/prompts"
	"github.com/HendryAvila/stickynote/internal/resources"
	"github.com/HendryAvila/stickynote/internal/tracker"
)

// Name is the MCP server name reported to clients.
const Name = "stickynote"

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the note store and must be called
// on shutdown (typically via defer). It is always non-nil.
func New(cfg *config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, noop, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// --- Create shared dependencies ---

	store, err := notes.Open(cfg.NotesBackend, cfg.NotesDir, logger)
	if err != nil {
		return nil, noop, fmt.Errorf("opening note store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing note store", "err", err)
		}
	}

	provider, err := history.NewProvider(cfg.Framework, cfg.HistoryDir, logger)
	if err != nil {
		cleanup()
		return nil, noop, err
	}

	// The tracker is process-wide: every client session shares it, keyed
	// by session id.
	deps := notetools.Deps{
		Store:     store,
		History:   provider,
		Tracker:   tracker.New(),
		Engine:    matcher.New(cfg.MatchTimeout.Duration),
		Logger:    logger.With("component", "notetools"),
		SessionID: notetools.ClientSessionID,
		Creator:   cfg.Creator,
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"Sticky Note MCP Server",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	createTool := notetools.NewCreateTool(deps)
	s.AddTool(createTool.Definition(), createTool.Handle)

	readTool := notetools.NewReadTool(deps)
	s.AddTool(readTool.Definition(), readTool.Handle)

	searchTool := notetools.NewSearchTool(deps)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	// --- Register prompts ---

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.NotesResource(), resourceHandler.HandleNotes)

	logger.Info("server configured",
		"framework", cfg.Framework,
		"history_dir", cfg.HistoryDir,
		"notes_file", store.Path(),
	)
	return s, cleanup, nil
}

// noop is a no-op cleanup function returned when construction fails.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use the sticky note tools.
func serverInstructions() string {
	return `You have access to sticky notes: short messages that earlier agent sessions
left for situations like yours.

## Reading notes
Call read_relevant_sticky_notes early and often. It matches every stored note's
pattern against your current session history and returns the ones that apply.
Each note is returned at most once per session, so calling it again only shows
new matches.

## Writing notes
When you make a mistake, or discover something a future agent would waste time
on, call create_sticky_note with:
- message: what the future agent should know or do, concise and actionable
- context_regex: a regular expression matched against the future session history;
  it should match the situation where the note brings value, not every session

The response lists the snippets of your own history the pattern matches. If it
matches nothing, or far too much, refine the pattern. Use search_session_history
to try a pattern before saving a note.`
}
