// Package config loads stickynote settings.
//
// Values come from built-in defaults, then an optional TOML file, then
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/HendryAvila/stickynote/internal/history"
	"github.com/HendryAvila/stickynote/internal/notes"
)

// Environment variable names.
const (
	EnvFramework    = "MCP_AGENT_FRAMEWORK"
	EnvNotesDir     = "STICKY_NOTES_DIR"
	EnvHistoryDir   = "SESSION_HISTORY_DIR"
	EnvNotesBackend = "STICKY_NOTES_BACKEND"
	EnvCreator      = "STICKY_NOTES_CREATOR"
	EnvLogLevel     = "STICKY_NOTES_LOG_LEVEL"
	EnvLogFormat    = "STICKY_NOTES_LOG_FORMAT"
	EnvMatchTimeout = "STICKY_NOTES_MATCH_TIMEOUT"
)

// DefaultFramework is the provider used when none is configured.
const DefaultFramework = "codex"

// Duration wraps time.Duration so TOML can hold values like "2s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds runtime settings.
type Config struct {
	Framework    string   `toml:"framework"`
	NotesDir     string   `toml:"notes_dir"`
	HistoryDir   string   `toml:"history_dir"`
	NotesBackend string   `toml:"notes_backend"`
	Creator      string   `toml:"creator"`
	LogLevel     string   `toml:"log_level"`
	LogFormat    string   `toml:"log_format"`
	MatchTimeout Duration `toml:"match_timeout"`
}

// Default returns the built-in configuration, rooted at the current
// working directory.
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		Framework:    DefaultFramework,
		NotesDir:     filepath.Join(cwd, "data", "sticky_notes"),
		HistoryDir:   filepath.Join(cwd, "data", "history"),
		NotesBackend: notes.BackendJSONL,
		LogLevel:     "info",
		LogFormat:    "text",
		MatchTimeout: Duration{2 * time.Second},
	}
}

// DefaultPath returns ~/.config/stickynote/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "stickynote", "config.toml")
}

// Load builds the configuration. path may be empty or point to a file that
// does not exist; both mean "no file".
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Framework, EnvFramework)
	setString(&c.NotesDir, EnvNotesDir)
	setString(&c.HistoryDir, EnvHistoryDir)
	setString(&c.NotesBackend, EnvNotesBackend)
	setString(&c.Creator, EnvCreator)
	setString(&c.LogLevel, EnvLogLevel)
	setString(&c.LogFormat, EnvLogFormat)

	if v := os.Getenv(EnvMatchTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMatchTimeout, err)
		}
		c.MatchTimeout = Duration{d}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) normalize() {
	c.Framework = strings.ToLower(strings.TrimSpace(c.Framework))
	c.NotesBackend = strings.ToLower(strings.TrimSpace(c.NotesBackend))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	home, _ := os.UserHomeDir()
	c.NotesDir = resolvePath(c.NotesDir, home)
	c.HistoryDir = resolvePath(c.HistoryDir, home)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !slices.Contains(history.Names(), c.Framework) {
		return fmt.Errorf("unsupported framework %q (known: %s)", c.Framework, strings.Join(history.Names(), ", "))
	}
	if !slices.Contains(notes.Backends(), c.NotesBackend) {
		return fmt.Errorf("unsupported notes backend %q (known: %s)", c.NotesBackend, strings.Join(notes.Backends(), ", "))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	if c.MatchTimeout.Duration <= 0 {
		return fmt.Errorf("match_timeout must be positive, got %s", c.MatchTimeout.Duration)
	}
	return nil
}

// NotesFile returns the file the configured notes backend writes to.
func (c *Config) NotesFile() string {
	if c.NotesBackend == notes.BackendSQLite {
		return filepath.Join(c.NotesDir, notes.SQLiteFile)
	}
	return filepath.Join(c.NotesDir, notes.JSONLFile)
}

// resolvePath expands a leading ~/ and makes path absolute.
func resolvePath(path, home string) string {
	if path == "" {
		return path
	}
	if home != "" && (path == "~" || strings.HasPrefix(path, "~/")) {
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
