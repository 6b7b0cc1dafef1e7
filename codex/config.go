package codex

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultOverviewURL is the combat codex overview page. The keyword table and
// class links live here; class pages hang off its path prefix.
const DefaultOverviewURL = "https://docs.defikingdoms.com/gameplay/combat"

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config configures the harvester service.
type Config struct {
	// OverviewURL is the page discovery and keyword parsing start from.
	OverviewURL string `yaml:"overview_url"`

	// Concurrency bounds parallel class-page processing. Default: 3.
	Concurrency int `yaml:"concurrency"`

	// UserAgent is sent on plain fetches and applied to browser tabs.
	UserAgent string `yaml:"user_agent"`

	// FetchTimeoutSec bounds the overview HTTP GET. Default: 15.
	FetchTimeoutSec int `yaml:"fetch_timeout_sec"`

	// NavTimeoutSec bounds browser navigation per class page. Default: 30.
	NavTimeoutSec int `yaml:"nav_timeout_sec"`

	// SelectorTimeoutSec bounds the wait for the skill table to hydrate
	// before the DOM is captured anyway. Default: 10.
	SelectorTimeoutSec int `yaml:"selector_timeout_sec"`

	// Headful launches the browser with a display. Off by default.
	Headful bool `yaml:"headful"`
}

func (c *Config) defaults() {
	if c.OverviewURL == "" {
		c.OverviewURL = DefaultOverviewURL
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.FetchTimeoutSec <= 0 {
		c.FetchTimeoutSec = 15
	}
	if c.NavTimeoutSec <= 0 {
		c.NavTimeoutSec = 30
	}
	if c.SelectorTimeoutSec <= 0 {
		c.SelectorTimeoutSec = 10
	}
}

// LoadConfig reads a YAML config file. A missing path returns the zero
// Config; defaults are applied by the service either way.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
