package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/stickynote/internal/notes"
)

func notesCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Inspect stored sticky notes",
	}
	cmd.AddCommand(notesListCmd(load))
	return cmd
}

type noteJSON struct {
	ID              string   `json:"id"`
	Message         string   `json:"message"`
	ContextRegex    string   `json:"context_regex"`
	CreatedAt       string   `json:"created_at"`
	Creator         string   `json:"creator,omitempty"`
	TriggerSnippets []string `json:"trigger_snippets,omitempty"`
}

func notesListCmd(load configLoader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every stored note, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			store, err := notes.Open(cfg.NotesBackend, cfg.NotesDir, newLogger(cfg))
			if err != nil {
				return err
			}
			defer store.Close()

			all, err := store.All()
			if err != nil {
				return fmt.Errorf("reading notes: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				views := make([]noteJSON, 0, len(all))
				for _, n := range all {
					views = append(views, noteJSON{
						ID:              n.ID,
						Message:         n.Message,
						ContextRegex:    n.ContextRegex,
						CreatedAt:       notes.FormatTime(n.CreatedAt),
						Creator:         n.Creator,
						TriggerSnippets: n.TriggerSnippets,
					})
				}
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}

			if len(all) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "No sticky notes in %s\n", store.Path())
				return nil
			}
			for _, n := range all {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n",
					n.ID,
					n.CreatedAt.UTC().Format("2006-01-02 15:04"),
					oneLine(n.ContextRegex),
					oneLine(n.Message),
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print notes as a JSON array")
	return cmd
}

// oneLine flattens tabs and newlines so each record stays on one TSV row.
func oneLine(s string) string {
	return strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(s)
}
