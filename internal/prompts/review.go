// Package prompts implements MCP prompt handlers for sticky notes.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the sticky-notes-review MCP prompt.
// It asks the AI to check for notes left by earlier sessions before it
// starts working, and to leave one when it learns something the hard way.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("sticky-notes-review",
		mcp.WithPromptDescription(
			"Check the sticky notes earlier agent sessions left for situations like this one, "+
				"then keep them in mind while working on the task.",
		),
		mcp.WithArgument("task",
			mcp.ArgumentDescription("What you are about to work on"),
		),
	)
}

// Handle processes the sticky-notes-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	task := "the current task"
	if args := req.Params.Arguments; args != nil {
		if t, ok := args["task"]; ok && t != "" {
			task = t
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review sticky notes for: %s", task),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Before working on %s:\n\n"+
						"1. Call `read_relevant_sticky_notes` and read every note it returns\n"+
						"2. Follow the advice in those notes unless it clearly does not apply\n"+
						"3. Call `read_relevant_sticky_notes` again whenever the context changes; each note is shown once per session\n"+
						"4. If you make a mistake a future agent could avoid, call `create_sticky_note` with a short message "+
						"and a context_regex that matches the situation where the note would have helped",
					task,
				)),
			},
		},
	}, nil
}
