package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/HendryAvila/stickynote/internal/config"
	"github.com/HendryAvila/stickynote/internal/history"
	"github.com/HendryAvila/stickynote/internal/matcher"
)

const (
	colorReset   = "\033[0m"
	colorBoldRed = "\033[1;31m"
	colorBlue    = "\033[1;34m"
	colorGreen   = "\033[1;32m"
	colorDim     = "\033[2m"
)

func historyCmd(load configLoader) *cobra.Command {
	var framework, root string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the session history the server matches notes against",
	}
	cmd.PersistentFlags().StringVar(&framework, "framework", "", "History format ("+strings.Join(history.Names(), "/")+"); defaults to the configured one")
	cmd.PersistentFlags().StringVar(&root, "root", "", "History root directory or file; defaults to the configured one")

	provider := func() (*config.Config, history.Provider, error) {
		cfg, err := load()
		if err != nil {
			return nil, nil, err
		}
		if framework != "" {
			cfg.Framework = framework
		}
		if root != "" {
			cfg.HistoryDir = root
		}
		p, err := history.NewProvider(cfg.Framework, cfg.HistoryDir, newLogger(cfg))
		if err != nil {
			return nil, nil, err
		}
		return cfg, p, nil
	}

	cmd.AddCommand(historyShowCmd(provider))
	cmd.AddCommand(historySearchCmd(provider))
	return cmd
}

type providerLoader func() (*config.Config, history.Provider, error)

func historyShowCmd(provider providerLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the normalized entries of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := provider()
			if err != nil {
				return err
			}
			sc, err := p.LoadContext(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			color := isTerminal(out)
			fmt.Fprintf(out, "session %s (%d entries)\n", sc.SessionID, len(sc.Entries))
			for _, e := range sc.Entries {
				fmt.Fprintf(out, "%s %s\n", entryHeader(e, color), e.Text)
			}
			return nil
		},
	}
}

func historySearchCmd(provider providerLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "search <session-id> <pattern>",
		Short: "Print the snippets a trigger pattern matches in a session",
		Long: `Evaluate a pattern exactly as a sticky note's context_regex would be
evaluated and print every snippet it matches, one per line.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, err := provider()
			if err != nil {
				return err
			}
			engine := matcher.New(cfg.MatchTimeout.Duration)
			re, err := engine.Compile(args[1])
			if err != nil {
				return err
			}
			sc, err := p.LoadContext(args[0])
			if err != nil {
				return err
			}
			snippets, err := engine.Collect(re, sc)
			if err != nil {
				return err
			}

			if len(snippets) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No matches.")
				return nil
			}

			out := cmd.OutOrStdout()
			color := isTerminal(out)
			for _, s := range snippets {
				text := oneLine(s.Text)
				if color {
					text = highlight(re, text)
				}
				fmt.Fprintf(out, "%s\t%s\n", snippetHeader(s.Metadata, color), text)
			}
			return nil
		},
	}
}

// isTerminal reports whether w is a terminal. Only real files can be.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func entryHeader(e history.Entry, color bool) string {
	label := e.Kind
	if e.Role != "" {
		label += "/" + e.Role
	}
	ts := history.FormatTimestamp(e.Timestamp)
	if ts == "" {
		ts = "-"
	}
	if !color {
		return "[" + ts + "] " + label + ":"
	}
	return colorDim + "[" + ts + "]" + colorReset + " " + colorizeKind(e.Kind, label) + ":"
}

func snippetHeader(m matcher.EntryMeta, color bool) string {
	ts := "-"
	if m.Timestamp != nil {
		ts = *m.Timestamp
	}
	label := m.Kind
	if m.Role != nil {
		label += "/" + *m.Role
	}
	if !color {
		return ts + "\t" + label
	}
	return colorDim + ts + colorReset + "\t" + colorizeKind(m.Kind, label)
}

func colorizeKind(kind, label string) string {
	switch kind {
	case "message":
		return colorBlue + label + colorReset
	case "tool_call", "function_call", "custom_tool_call", "local_shell_call":
		return colorGreen + label + colorReset
	default:
		return label
	}
}

// highlight wraps every match of re in text with bold red. Evaluation
// errors leave the text as it is.
func highlight(re *regexp2.Regexp, text string) string {
	runes := []rune(text)
	var b strings.Builder
	last := 0
	m, err := re.FindStringMatch(text)
	for m != nil && err == nil {
		if m.Length > 0 {
			b.WriteString(string(runes[last:m.Index]))
			b.WriteString(colorBoldRed)
			b.WriteString(string(runes[m.Index : m.Index+m.Length]))
			b.WriteString(colorReset)
			last = m.Index + m.Length
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return text
	}
	b.WriteString(string(runes[last:]))
	return b.String()
}
