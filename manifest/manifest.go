// Package manifest handles bytebuddy.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked up in a project directory.
const FileName = "bytebuddy.toml"

// Manifest represents a bytebuddy.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	Agent   AgentConfig `toml:"agent"`
	Store   StoreConfig `toml:"store"`
	Rules   []Rule      `toml:"rule"`

	// Dir is the directory containing the bytebuddy.toml file (set at
	// load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// AgentConfig configures how the agent installs itself.
type AgentConfig struct {
	NativePrefix       string   `toml:"native-prefix"`
	Retransformation   bool     `toml:"retransformation"`
	SelfInitialization *bool    `toml:"self-initialization"`
	Ignore             []string `toml:"ignore"`
}

// SelfInitializes reports the self-initialization setting, on unless
// switched off explicitly.
func (a AgentConfig) SelfInitializes() bool {
	return a.SelfInitialization == nil || *a.SelfInitialization
}

// StoreConfig configures the persistent class file store.
type StoreConfig struct {
	Path string `toml:"path"`
}

// Rule maps a type name pattern to an interception.
type Rule struct {
	// Match is a shell-style pattern over binary type names.
	Match string `toml:"match"`

	// Method is a shell-style pattern over method names; empty matches
	// every method.
	Method string `toml:"method"`

	// Kind selects the implementation: "stub", "super" or "value".
	Kind string `toml:"kind"`

	// Value is the constant returned by "value" rules.
	Value string `toml:"value"`
}

// Load parses a bytebuddy.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	p := filepath.Join(dir, FileName)
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", p, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", p, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", p, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a bytebuddy.toml file,
// then loads and returns the manifest. Returns nil if no manifest is
// found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
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

func (m *Manifest) validate() error {
	for i, r := range m.Rules {
		if r.Match == "" {
			return fmt.Errorf("rule %d: missing match pattern", i+1)
		}
		if _, err := path.Match(r.Match, ""); err != nil {
			return fmt.Errorf("rule %d: match %q: %w", i+1, r.Match, err)
		}
		if r.Method != "" {
			if _, err := path.Match(r.Method, ""); err != nil {
				return fmt.Errorf("rule %d: method %q: %w", i+1, r.Method, err)
			}
		}
		switch r.Kind {
		case "stub", "super":
			if r.Value != "" {
				return fmt.Errorf("rule %d: kind %q takes no value", i+1, r.Kind)
			}
		case "value":
			if r.Value == "" {
				return fmt.Errorf("rule %d: kind \"value\" needs a value", i+1)
			}
		case "":
			return fmt.Errorf("rule %d: missing kind", i+1)
		default:
			return fmt.Errorf("rule %d: unknown kind %q", i+1, r.Kind)
		}
	}
	return nil
}

// StorePath returns the absolute path of the configured class file
// store, or "" when no store is configured.
func (m *Manifest) StorePath() string {
	if m.Store.Path == "" {
		return ""
	}
	if filepath.IsAbs(m.Store.Path) {
		return m.Store.Path
	}
	return filepath.Join(m.Dir, m.Store.Path)
}
