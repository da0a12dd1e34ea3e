// Package buildcfg holds the mutable toolchain configuration the
// config-phase hooks operate on: resolvable source extensions, per-stage
// Babel entries, and per-stage bundler config fragments.
//
// The host only merges and records this data; running the JS toolchain
// itself is external.
package buildcfg

import (
	"fmt"
	"sync"
)

// Stage names a build stage of the client toolchain.
type Stage string

const (
	StageDevelop     Stage = "develop"
	StageDevelopHTML Stage = "develop-html"
	StageBuildJS     Stage = "build-javascript"
	StageBuildHTML   Stage = "build-html"
)

// Stages lists all toolchain stages in order.
func Stages() []Stage {
	return []Stage{StageDevelop, StageDevelopHTML, StageBuildJS, StageBuildHTML}
}

// IsValid returns true if the stage is recognized.
func (s Stage) IsValid() bool {
	switch s {
	case StageDevelop, StageDevelopHTML, StageBuildJS, StageBuildHTML:
		return true
	default:
		return false
	}
}

// BabelEntry is a preset or plugin entry with options.
type BabelEntry struct {
	Name    string
	Options map[string]any
	Owner   string
}

// baseExtensions are always resolvable regardless of plugins.
var baseExtensions = []string{".js", ".jsx", ".json"}

// Config is the merged toolchain configuration. Plugins mutate it in load
// order through action channels; later plugins observe earlier merges.
type Config struct {
	mu         sync.RWMutex
	extensions []string
	babel      map[Stage][]BabelEntry
	webpack    map[Stage]map[string]any
}

// New creates a Config seeded with the base resolvable extensions.
func New() *Config {
	return &Config{
		extensions: append([]string(nil), baseExtensions...),
		babel:      make(map[Stage][]BabelEntry),
		webpack:    make(map[Stage]map[string]any),
	}
}

// RegisterExtensions appends resolvable file extensions, deduplicating while
// preserving first-registration order.
func (c *Config) RegisterExtensions(exts ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ext := range exts {
		if len(ext) < 2 || ext[0] != '.' {
			return fmt.Errorf("invalid extension %q: must start with a dot", ext)
		}
		if c.hasExtensionLocked(ext) {
			continue
		}
		c.extensions = append(c.extensions, ext)
	}
	return nil
}

func (c *Config) hasExtensionLocked(ext string) bool {
	for _, e := range c.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Extensions returns the resolvable extensions in registration order.
func (c *Config) Extensions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.extensions...)
}

// SetBabelPreset appends a Babel entry for a stage. Entries accumulate in
// call order; re-adding a name for the same stage replaces its options.
func (c *Config) SetBabelPreset(stage Stage, entry BabelEntry) error {
	if !stage.IsValid() {
		return fmt.Errorf("unknown build stage %q", stage)
	}
	if entry.Name == "" {
		return fmt.Errorf("babel entry name is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.babel[stage]
	for i, e := range entries {
		if e.Name == entry.Name {
			entries[i] = entry
			return nil
		}
	}
	c.babel[stage] = append(entries, entry)
	return nil
}

// BabelConfig returns the Babel entries for a stage in registration order.
func (c *Config) BabelConfig(stage Stage) []BabelEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]BabelEntry(nil), c.babel[stage]...)
}

// SetWebpackConfig shallow-merges a bundler config fragment for a stage.
// Later fragments win per top-level key; nested maps are merged one level
// deep so plugins can extend (not clobber) common sections like "resolve".
func (c *Config) SetWebpackConfig(stage Stage, fragment map[string]any) error {
	if !stage.IsValid() {
		return fmt.Errorf("unknown build stage %q", stage)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	merged := c.webpack[stage]
	if merged == nil {
		merged = make(map[string]any, len(fragment))
		c.webpack[stage] = merged
	}

	for k, v := range fragment {
		newMap, newOK := v.(map[string]any)
		oldMap, oldOK := merged[k].(map[string]any)
		if newOK && oldOK {
			for nk, nv := range newMap {
				oldMap[nk] = nv
			}
			continue
		}
		merged[k] = v
	}
	return nil
}

// WebpackConfig returns a copy of the merged bundler config for a stage.
func (c *Config) WebpackConfig(stage Stage) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	src := c.webpack[stage]
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Snapshot captures the whole toolchain config for the build report.
type Snapshot struct {
	Extensions []string
	Babel      map[Stage][]BabelEntry
	Webpack    map[Stage]map[string]any
}

// Snapshot returns a copy of the full configuration.
func (c *Config) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Extensions: append([]string(nil), c.extensions...),
		Babel:      make(map[Stage][]BabelEntry, len(c.babel)),
		Webpack:    make(map[Stage]map[string]any, len(c.webpack)),
	}
	for stage, entries := range c.babel {
		snap.Babel[stage] = append([]BabelEntry(nil), entries...)
	}
	for stage, cfg := range c.webpack {
		cp := make(map[string]any, len(cfg))
		for k, v := range cfg {
			cp[k] = v
		}
		snap.Webpack[stage] = cp
	}
	return snap
}
