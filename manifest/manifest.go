// Package manifest handles bfk.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Filename is the manifest file name looked up by Load and FindAndLoad.
const Filename = "bfk.toml"

// Manifest represents a bfk.toml project configuration.
type Manifest struct {
	Name    string        `toml:"name"`
	Machine MachineConfig `toml:"machine"`
	Cache   CacheConfig   `toml:"cache"`
	Build   BuildConfig   `toml:"build"`

	// Dir is the directory containing the bfk.toml file (set at load time).
	Dir string `toml:"-"`
}

// MachineConfig configures the executor.
type MachineConfig struct {
	// TapeSize is the tape length in cells. Zero means the machine default.
	TapeSize int `toml:"tape-size"`
}

// CacheConfig configures the compile cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// BuildConfig configures where build artifacts are written.
type BuildConfig struct {
	Output string `toml:"output"`
}

// Default returns the manifest used when no bfk.toml exists: current
// directory, cache disabled, standard output locations.
func Default() *Manifest {
	m := &Manifest{Dir: "."}
	m.applyDefaults()
	return m
}

// Load parses a bfk.toml file from the given directory. Unknown keys are
// rejected so that a typo cannot silently disable configuration.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, Filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if und := md.Undecoded(); len(und) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", und[0].String(), path)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a bfk.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, Filename)
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

// applyDefaults fills in unset path fields.
func (m *Manifest) applyDefaults() {
	if m.Cache.Path == "" {
		m.Cache.Path = filepath.Join(".bfk", "cache.db")
	}
	if m.Build.Output == "" {
		m.Build.Output = filepath.Join(".bfk", "out")
	}
}

// CachePath returns the cache database path resolved against the manifest
// directory. Absolute paths are honored as-is.
func (m *Manifest) CachePath() string {
	if filepath.IsAbs(m.Cache.Path) {
		return m.Cache.Path
	}
	return filepath.Join(m.Dir, m.Cache.Path)
}

// OutputDir returns the build output directory resolved against the
// manifest directory. Absolute paths are honored as-is.
func (m *Manifest) OutputDir() string {
	if filepath.IsAbs(m.Build.Output) {
		return m.Build.Output
	}
	return filepath.Join(m.Dir, m.Build.Output)
}
