// Package manifest handles clox.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// FileName is the name of the configuration file.
const FileName = "clox.toml"

// Manifest represents a clox.toml configuration.
type Manifest struct {
	Project Project   `toml:"project"`
	Run     RunConfig `toml:"run"`
	Log     LogConfig `toml:"log"`
	Cache   Cache     `toml:"cache"`
	LSP     LSPConfig `toml:"lsp"`

	// Dir is the directory containing the clox.toml file (set at load time).
	// It is empty for a default manifest.
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// RunConfig controls what the interpreter prints while running.
type RunConfig struct {
	Disassemble bool `toml:"disassemble"`
	Trace       bool `toml:"trace"`
}

// LogConfig sets the log level ("trace", "debug", "info", "warn", ...).
type LogConfig struct {
	Level string `toml:"level"`
}

// Cache configures the compiled chunk cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LSPConfig configures the language server.
type LSPConfig struct {
	Name string `toml:"name"`
}

// Default returns the configuration used when no clox.toml exists.
func Default() *Manifest {
	return &Manifest{
		Run: RunConfig{
			Disassemble: true,
		},
		Log: LogConfig{
			Level: "warn",
		},
		Cache: Cache{
			Path: filepath.Join(".clox", "cache.db"),
		},
		LSP: LSPConfig{
			Name: "clox-lsp",
		},
	}
}

// Load parses a clox.toml file from the given directory. Keys missing from
// the file keep their Default values.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if _, err := m.LogLevel(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find a clox.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// LogLevel parses the configured log level.
func (m *Manifest) LogLevel() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(m.Log.Level)
	if err != nil {
		return logrus.WarnLevel, fmt.Errorf("invalid log level %q", m.Log.Level)
	}
	return lvl, nil
}

// CachePath returns the cache database path. Relative paths are resolved
// against the manifest directory.
func (m *Manifest) CachePath() string {
	if filepath.IsAbs(m.Cache.Path) || m.Dir == "" {
		return m.Cache.Path
	}
	return filepath.Join(m.Dir, m.Cache.Path)
}
