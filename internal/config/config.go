// Package config loads aggregator settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when none is given.
const DefaultPath = "parkwork.yaml"

// Duration wraps time.Duration so YAML values like "5s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds every tunable setting for the aggregator.
type Config struct {
	// DatabasePath is the SQLite file holding all aggregator state.
	DatabasePath string `yaml:"database_path"`

	// SiteDir is where the static site generator writes its output.
	SiteDir string `yaml:"site_dir"`

	// Timezone is the IANA name of the reference timezone used for
	// calendar-date grouping and display.
	Timezone string `yaml:"timezone"`

	// FetchTimeout bounds each HTTP request.
	FetchTimeout Duration `yaml:"fetch_timeout"`

	// FetchDelay is the minimum spacing between requests to one host.
	FetchDelay Duration `yaml:"fetch_delay"`

	// PreferredHosts lists URL hostnames preferred when merged duplicates
	// disagree on the event URL.
	PreferredHosts []string `yaml:"preferred_hosts"`

	// Sources toggles individual extractors. A source absent from the map
	// is enabled.
	Sources map[string]bool `yaml:"sources"`

	// ManualEventsPath is the YAML file of recurring event definitions.
	ManualEventsPath string `yaml:"manual_events_path"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DatabasePath:     "events.sqlite",
		SiteDir:          "site",
		Timezone:         "America/Los_Angeles",
		FetchTimeout:     Duration(30 * time.Second),
		FetchDelay:       Duration(2 * time.Second),
		PreferredHosts:   []string{"seattle.greencitypartnerships.org"},
		ManualEventsPath: "manual_events.yaml",
	}
}

// Load reads the config at path, filling unset fields with defaults. A
// missing file is not an error; the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the loaded values are usable.
func (c Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.New("database_path must not be empty")
	}
	if c.Timezone == "" {
		return errors.New("timezone must not be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	if c.FetchTimeout <= 0 {
		return errors.New("fetch_timeout must be positive")
	}
	if c.FetchDelay < 0 {
		return errors.New("fetch_delay must not be negative")
	}
	return nil
}

// Location resolves the reference timezone. Validate must have passed.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// SourceEnabled reports whether a named source should run.
func (c Config) SourceEnabled(name string) bool {
	enabled, ok := c.Sources[name]
	return !ok || enabled
}
