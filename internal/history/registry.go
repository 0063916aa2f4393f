package history

import (
	"fmt"
	"log/slog"
	"strings"
)

type registration struct {
	name string
	new  func(root string, logger *slog.Logger) Provider
}

// registry maps a framework name to its provider constructor. It is a
// fixed table so lookups never depend on package init order.
var registry = []registration{
	{name: "codex", new: func(root string, logger *slog.Logger) Provider {
		return NewCodexProvider(root, logger)
	}},
	{name: "copilot", new: func(root string, logger *slog.Logger) Provider {
		return NewCopilotProvider(root, logger)
	}},
}

// Names returns the registered framework names in table order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, r := range registry {
		names = append(names, r.name)
	}
	return names
}

// NewProvider builds the provider registered under name.
func NewProvider(name, root string, logger *slog.Logger) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, r := range registry {
		if r.name == key {
			return r.new(root, logger), nil
		}
	}
	return nil, fmt.Errorf("history: unsupported framework %q (known: %s)", name, strings.Join(Names(), ", "))
}
