package dune

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the user-overridable settings dune reads from
// ~/.dunerc.toml at startup, in the same TOML-via-BurntSushi-toml style the
// rest of the tool family uses for its data files.
type Config struct {
	// Prompt is printed before each top-level read; %s is replaced with the
	// shell's current working directory.
	Prompt string `toml:"prompt"`

	// ContinuationPrompt is the readline prompt shown while accumulating a
	// program that the parser has reported as incomplete. The direct
	// (non-readline) reader prints no continuation prompt.
	ContinuationPrompt string `toml:"continuation_prompt"`

	// StartDir, if non-empty, replaces the home directory as the shell's
	// starting working directory (the process's own directory is not
	// changed). A restored session's Cwd still overrides it.
	StartDir string `toml:"start_dir"`

	// SessionFile is read from the config file but not used: the CLI only
	// persists sessions to the file given with -s/--session.
	SessionFile string `toml:"session_file"`

	// HistoryFile is the readline history file path used for the
	// interactive reader. Empty disables on-disk history.
	HistoryFile string `toml:"history_file"`

	// HistorySize caps the number of lines readline keeps in HistoryFile.
	HistorySize int `toml:"history_size"`

	// ForceDirect makes the engine always use the plain, non-readline input
	// reader, as if -d/--direct had been passed. The CLI flag ORs with this.
	ForceDirect bool `toml:"force_direct"`
}

// DefaultConfig is used whenever ~/.dunerc.toml does not exist or does not
// override a given field.
func DefaultConfig() Config {
	return Config{
		Prompt:             "%s$ ",
		ContinuationPrompt: "... ",
		SessionFile:        "~/.dune_sessions.db",
		HistoryFile:        "~/.dune_history",
		HistorySize:        1000,
	}
}

// LoadConfig reads ~/.dunerc.toml, merging its fields over DefaultConfig. A
// missing file is not an error; a malformed one is.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil
	}

	path := filepath.Join(home, ".dunerc.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ExpandHome replaces a leading "~" in path with the user's home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
