package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	stickyserver "github.com/HendryAvila/stickynote/internal/server"
)

func serveCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			s, cleanup, err := stickyserver.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			// ServeStdio handles SIGINT/SIGTERM itself and returns once
			// stdin closes.
			logger.Info("serving on stdio", "version", stickyserver.Version)
			return server.ServeStdio(s)
		},
	}
}
