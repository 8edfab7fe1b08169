package config

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Configuration validation errors.
var (
	ErrNoSources       = errors.New("at least one source is required")
	ErrNoEnabledSource = errors.New("at least one source must be enabled")
)

// Source describes one article data source. Type selects the fetch and
// normalization strategy: "devto" and "articles" are JSON APIs, "rss" is a
// syndication feed.
type Source struct {
	ID      string `yaml:"id"`
	Label   string `yaml:"label"`
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type Config struct {
	PageSize   int      `yaml:"page_size,omitempty"`
	TopTags    int      `yaml:"top_tags,omitempty"`
	StaleAfter string   `yaml:"stale_after,omitempty"`
	Retries    int      `yaml:"retries,omitempty"`
	LogLevel   string   `yaml:"log_level,omitempty"`
	Telemetry  bool     `yaml:"telemetry"`
	Sources    []Source `yaml:"sources"`
}

// GetPageSize returns the results page size, defaulting to 12.
func (c *Config) GetPageSize() int {
	if c.PageSize <= 0 {
		return 12
	}
	return c.PageSize
}

// GetTopTags returns how many tags populate the category row, default 8.
func (c *Config) GetTopTags() int {
	if c.TopTags <= 0 {
		return 8
	}
	return c.TopTags
}

// StaleDuration returns how long a fetched batch stays fresh.
func (c *Config) StaleDuration() time.Duration {
	d, err := time.ParseDuration(c.StaleAfter)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// GetRetries returns how many times a failed fetch is retried.
func (c *Config) GetRetries() int {
	if c.Retries <= 0 {
		return 2
	}
	return c.Retries
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// SourceIDs returns the ids of all enabled sources, in config order.
func (c *Config) SourceIDs() []string {
	var ids []string
	for _, s := range c.EnabledSources() {
		ids = append(ids, s.ID)
	}
	return ids
}

// SourceByID finds an enabled source. ok is false for unknown or disabled ids.
func (c *Config) SourceByID(id string) (Source, bool) {
	for _, s := range c.EnabledSources() {
		if s.ID == id {
			return s, true
		}
	}
	return Source{}, false
}

// DefaultSourceID is the first enabled source.
func (c *Config) DefaultSourceID() string {
	enabled := c.EnabledSources()
	if len(enabled) == 0 {
		return ""
	}
	return enabled[0].ID
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "catex", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "catex", "catex.db")
}

// TelemetryPath is where the file reporter appends its events.
func TelemetryPath() string {
	return filepath.Join(xdg.StateHome, "catex", "telemetry.ndjson")
}

// LogPath is where the application log goes; the TUI owns the terminal.
func LogPath() string {
	return filepath.Join(xdg.StateHome, "catex", "catex.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return ErrNoSources
	}
	validTypes := map[string]bool{"devto": true, "articles": true, "rss": true}
	seen := map[string]bool{}
	for i, s := range cfg.Sources {
		if s.ID == "" {
			return fmt.Errorf("source %d: id is required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("source %q: duplicate id", s.ID)
		}
		seen[s.ID] = true
		if !validTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q (valid: devto, articles, rss)", s.ID, s.Type)
		}
		if !s.Enabled {
			continue
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.ID)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.ID, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.ID, u.Scheme)
		}
	}
	if len(cfg.EnabledSources()) == 0 {
		return ErrNoEnabledSource
	}
	return nil
}
