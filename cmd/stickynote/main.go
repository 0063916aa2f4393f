// Sticky Note: an MCP server that lets coding agents leave notes for
// their successors.
//
// A note pairs a message with a regular expression. When a later session's
// history matches the expression, the note is delivered to that session once.
//
// Usage:
//
//	stickynote serve                          # Start MCP server (stdio transport)
//	stickynote notes list [--json]            # Print stored notes
//	stickynote history show <session-id>      # Print a session's normalized history
//	stickynote history search <id> <pattern>  # Print snippets a pattern would trigger on
//	stickynote doctor                         # Check config, roots and the note store
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/stickynote/internal/config"
	"github.com/HendryAvila/stickynote/internal/observability"
	stickyserver "github.com/HendryAvila/stickynote/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Tests build a fresh tree per case.
func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           stickyserver.Name,
		Short:         "Sticky Note MCP Server - notes agents leave for future sessions",
		Version:       stickyserver.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the TOML config file")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		return cfg, nil
	}

	rootCmd.AddCommand(serveCmd(load))
	rootCmd.AddCommand(notesCmd(load))
	rootCmd.AddCommand(historyCmd(load))
	rootCmd.AddCommand(doctorCmd(load))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// configLoader loads the configuration selected by the --config flag.
type configLoader func() (*config.Config, error)

// newLogger builds the stderr logger described by cfg.
func newLogger(cfg *config.Config) *slog.Logger {
	return observability.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", stickyserver.Name, stickyserver.Version)
		},
	}
}
