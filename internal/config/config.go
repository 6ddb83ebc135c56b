// Package config implements the project-file configuration layer of
// spec.md §6: an optional on-disk file unmarshaled with goccy/go-yaml,
// whose values seed a Config that CLI flags then override — the same
// flags-over-file layering convention the rest of the cobra-based pack
// tools use for persisted defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
)

// Config holds the driver's resolved settings: everything spec.md §6's
// CLI surface can set, either from a project file or from flags.
type Config struct {
	Generator string `yaml:"generator"` // "c" or "lua"

	CC      string   `yaml:"cc"`
	CFlags  []string `yaml:"cflags"`
	LDFlags []string `yaml:"ldflags"`
	Shared  bool     `yaml:"shared"`
	Static  bool     `yaml:"static"`
	Output  string   `yaml:"output"`

	NoCache  bool   `yaml:"no_cache"`
	CacheDir string `yaml:"cache_dir"`

	Defines map[string]string `yaml:"defines"`
	Pragmas map[string]string `yaml:"pragmas"`

	SearchPath []string `yaml:"search_path"`

	DebugResolve      bool `yaml:"debug_resolve"`
	DebugScopeResolve bool `yaml:"debug_scope_resolve"`
	Verbose           bool `yaml:"verbose"`
	Timing            bool `yaml:"timing"`
}

// Default returns a Config with spec.md §6's stated defaults (generator
// c, cache enabled).
func Default() *Config {
	return &Config{
		Generator: "c",
		CacheDir:  ".natc-cache",
		Defines:   make(map[string]string),
		Pragmas:   make(map[string]string),
	}
}

// Load reads path (if it exists) and unmarshals it over a Default
// config. A missing file is not an error — project files are optional.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// MergeDefine records a `-D NAME[=val]` flag, spec.md §6. A bare NAME
// with no `=` is stored with an empty string value (present-but-unset).
func (c *Config) MergeDefine(raw string) {
	name, val := splitNameValue(raw)
	if c.Defines == nil {
		c.Defines = make(map[string]string)
	}
	c.Defines[name] = val
}

// MergePragma records a `-P NAME[=val]` flag, spec.md §6.
func (c *Config) MergePragma(raw string) {
	name, val := splitNameValue(raw)
	if c.Pragmas == nil {
		c.Pragmas = make(map[string]string)
	}
	c.Pragmas[name] = val
}

// ResolvedDefines converts the raw `-D` strings collected in Defines
// into the typed values the preprocess environment's host tier expects
// (spec.md §8 scenario 5): a bare name (empty string value) becomes
// `true`; a value parsing as a base-10 integer becomes int64; a value
// wrapped in matching quotes has them stripped and is kept as a string;
// anything else is kept as a plain string.
func (c *Config) ResolvedDefines() map[string]any {
	out := make(map[string]any, len(c.Defines))
	for name, raw := range c.Defines {
		out[name] = resolveDefineValue(raw)
	}
	return out
}

func resolveDefineValue(raw string) any {
	if raw == "" {
		return true
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}

// SplitNameValue splits a raw `-D NAME[=val]` / `-P NAME[=val]` flag
// argument at its first `=`, for driver-side name validation before the
// value is merged in (spec.md §6's "failed parsing parameter" check).
func SplitNameValue(raw string) (name, val string) { return splitNameValue(raw) }

func splitNameValue(raw string) (name, val string) {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '=' {
			return raw[:i], raw[i+1:]
		}
	}
	return raw, ""
}
