package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/stickynote/internal/config"
	"github.com/HendryAvila/stickynote/internal/history"
	"github.com/HendryAvila/stickynote/internal/notes"
)

func doctorCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, history roots and the note store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, err := load()
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "=== Config ===")
			fmt.Fprintf(out, "  Framework: %s (known: %s)\n", cfg.Framework, strings.Join(history.Names(), ", "))
			fmt.Fprintf(out, "  Backend:   %s (known: %s)\n", cfg.NotesBackend, strings.Join(notes.Backends(), ", "))
			fmt.Fprintf(out, "  Timeout:   %s\n", cfg.MatchTimeout.Duration)
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(out, "  Status: INVALID (%v)\n", err)
				return err
			}
			fmt.Fprintln(out, "  Status: OK")

			fmt.Fprintln(out, "\n=== History ===")
			checkPath(out, "Root", cfg.HistoryDir)
			if cfg.Framework == "copilot" {
				for _, r := range history.DefaultWorkspaceRoots() {
					checkPath(out, "Workspace", r)
				}
			}

			fmt.Fprintln(out, "\n=== Notes ===")
			return checkStore(out, cfg)
		},
	}
}

func checkStore(out io.Writer, cfg *config.Config) error {
	store, err := notes.Open(cfg.NotesBackend, cfg.NotesDir, newLogger(cfg))
	if err != nil {
		fmt.Fprintf(out, "  Path: %s\n", cfg.NotesFile())
		fmt.Fprintf(out, "  Status: ERROR (%v)\n", err)
		return err
	}
	defer store.Close()

	fmt.Fprintf(out, "  Path: %s\n", store.Path())
	all, err := store.All()
	if err != nil {
		fmt.Fprintf(out, "  Status: ERROR (%v)\n", err)
		return err
	}
	fmt.Fprintf(out, "  Notes: %d\n", len(all))
	fmt.Fprintln(out, "  Status: OK")
	return nil
}

func checkPath(out io.Writer, name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Fprintf(out, "  %s: %s (NOT FOUND)\n", name, path)
	} else if info.IsDir() {
		fmt.Fprintf(out, "  %s: %s (OK, directory)\n", name, path)
	} else {
		fmt.Fprintf(out, "  %s: %s (OK, file)\n", name, path)
	}
}
