// config.go: runner configuration, loaded from a TOML file.
//
// The config is optional everywhere: a zero Config means no safe-directory
// confinement, a default history location, and no library path.
package ebscript

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the runner configuration consumed by cmd/ebs and the file
// builtins.
type Config struct {
	// HistoryFile is where the REPL persists line history.
	HistoryFile string `toml:"history_file"`
	// LibraryPath is prepended to relative import resolution by the
	// runner when set.
	LibraryPath string `toml:"library_path"`
	// SafeDirs confines file.* builtins when non-empty.
	SafeDirs []string `toml:"safe_directories"`
}

// DefaultConfigPath is where LoadConfig looks when no explicit path is
// given.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ebs.toml"
	}
	return filepath.Join(home, ".ebs.toml")
}

// LoadConfig reads a TOML config file. A missing file at the default path
// is not an error; a missing explicit path is.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, rtErrf(IoError, "", "cannot load config %s: %v", path, err)
	}
	return cfg, nil
}

// History returns the REPL history file location, with a default under
// the user's home directory.
func (c *Config) History() string {
	if c != nil && c.HistoryFile != "" {
		return c.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ebs_history"
	}
	return filepath.Join(home, ".ebs_history")
}
