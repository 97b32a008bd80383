// Package config loads the npmtrack configuration file: which identity to
// track, how to talk to the registry, the category whitelist, and the
// blacklist of packages that must never stay active.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full configuration for a sync run.
type Config struct {
	Registry   Registry            `toml:"registry"`
	Fetch      Fetch               `toml:"fetch"`
	Categories map[string][]string `toml:"categories"`
	Blacklist  Blacklist           `toml:"blacklist"`
}

// Registry configures the npm registry endpoint and the identity whose
// packages are tracked.
type Registry struct {
	BaseURL  string `toml:"base_url"`
	Identity string `toml:"identity"`
}

// Fetch tunes the metadata fetch phase.
type Fetch struct {
	BatchSize int `toml:"batch_size"`
	StaggerMS int `toml:"stagger_ms"`
}

// Blacklist lists packages that are deactivated on every run. Namespaces
// match by prefix (e.g. "@internal/"), Packages by exact name.
type Blacklist struct {
	Namespaces []string `toml:"namespaces"`
	Packages   []string `toml:"packages"`
}

// Default returns the built-in configuration. The identity is empty and must
// come from the config file.
func Default() *Config {
	return &Config{
		Registry: Registry{
			BaseURL: "https://registry.npmjs.org",
		},
		Fetch: Fetch{
			BatchSize: 100,
			StaggerMS: 50,
		},
		Categories: map[string][]string{},
	}
}

// Load reads the TOML config file at path, applies defaults for anything the
// file omits, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the config for values a sync run cannot proceed with.
func (c *Config) Validate() error {
	if c.Registry.Identity == "" {
		return fmt.Errorf("registry.identity is required")
	}
	if c.Registry.BaseURL == "" {
		return fmt.Errorf("registry.base_url must not be empty")
	}
	if c.Fetch.BatchSize <= 0 {
		return fmt.Errorf("fetch.batch_size must be positive, got %d", c.Fetch.BatchSize)
	}
	if c.Fetch.StaggerMS < 0 {
		return fmt.Errorf("fetch.stagger_ms must not be negative, got %d", c.Fetch.StaggerMS)
	}
	for category, packages := range c.Categories {
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("category names must not be empty")
		}
		for _, pkg := range packages {
			if strings.TrimSpace(pkg) == "" {
				return fmt.Errorf("category %s contains an empty package name", category)
			}
		}
	}
	return nil
}

// Stagger returns the fetch stagger interval as a duration.
func (c *Config) Stagger() time.Duration {
	return time.Duration(c.Fetch.StaggerMS) * time.Millisecond
}

// CategoryNames returns every whitelist category name, sorted.
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for name := range c.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PackageCategories inverts the category whitelist into a package ->
// category-names mapping. Category lists are sorted so the result is
// deterministic.
func (c *Config) PackageCategories() map[string][]string {
	out := make(map[string][]string)
	for category, packages := range c.Categories {
		for _, pkg := range packages {
			out[pkg] = append(out[pkg], category)
		}
	}
	for _, categories := range out {
		sort.Strings(categories)
	}
	return out
}

// IsBlacklisted reports whether the package name matches the blacklist,
// either exactly or by namespace prefix.
func (c *Config) IsBlacklisted(name string) bool {
	for _, pkg := range c.Blacklist.Packages {
		if name == pkg {
			return true
		}
	}
	for _, ns := range c.Blacklist.Namespaces {
		if strings.HasPrefix(name, ns) {
			return true
		}
	}
	return false
}
