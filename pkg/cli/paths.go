package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultBaseDir is tably's directory name under $HOME.
	DefaultBaseDir = ".tably"
	// DefaultConfigFile is the settings filename looked up in the
	// working directory and under BaseDir.
	DefaultConfigFile = "tably.yaml"
)

// Paths locates tably's per-user files.
type Paths struct {
	home string
}

// NewPaths resolves the current user's home directory.
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Paths{home: home}, nil
}

// BaseDir returns ~/.tably.
func (p *Paths) BaseDir() string {
	return filepath.Join(p.home, DefaultBaseDir)
}

// ConfigFile returns ~/.tably/tably.yaml, the final fallback in the
// settings lookup after --config and ./tably.yaml.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}
