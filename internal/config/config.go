package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AirtableConfig names the Airtable base and tables this service reads and
// writes. Field names inside the tables are fixed contract (see internal/event
// and friends); renaming a field upstream is a breaking change.
type AirtableConfig struct {
	// BaseID is the Airtable base identifier (e.g. "appXXXXXXXXXXXXXX").
	BaseID string `yaml:"base_id" json:"base_id"`

	EventsTable   string `yaml:"events_table" json:"events_table"`
	MembersTable  string `yaml:"members_table" json:"members_table"`
	RoomsTable    string `yaml:"rooms_table" json:"rooms_table"`
	BookingsTable string `yaml:"bookings_table" json:"bookings_table"`
}

// SignageConfig controls the lobby-display capture.
type SignageConfig struct {
	// URL is the calendar page to capture, e.g. "https://fairhaven.work/calendar".
	URL string `yaml:"url" json:"url"`
	// OutputPath is where the captured PNG is written and served from.
	OutputPath string `yaml:"output_path" json:"output_path"`
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
}

// LLMConfig selects the model used for natural-language event proposals.
// The API key comes from the environment (ANTHROPIC_API_KEY), never from YAML.
type LLMConfig struct {
	Model string `yaml:"model" json:"model"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used as the single reference frame for all
	// day-boundary computations (upcoming vs past, day buckets).
	Timezone string `yaml:"timezone" json:"timezone"`

	// SiteURL is the public base URL, used for canonical links in the ICS feed.
	SiteURL string `yaml:"site_url" json:"site_url"`

	// RefreshCron schedules the periodic cache warm and signage recapture.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is the default number of future days in calendar views.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	Airtable AirtableConfig `yaml:"airtable" json:"airtable"`
	Signage  SignageConfig  `yaml:"signage" json:"signage"`
	LLM      LLMConfig      `yaml:"llm" json:"llm"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "America/Los_Angeles",
		SiteURL:     "http://localhost:8080",
		RefreshCron: "*/15 * * * *",
		HorizonDays: 30,
		Airtable: AirtableConfig{
			EventsTable:   "Events",
			MembersTable:  "Members",
			RoomsTable:    "Rooms",
			BookingsTable: "Bookings",
		},
		Signage: SignageConfig{
			OutputPath: "./cache/signage.png",
			Width:      1920,
			Height:     1080,
		},
		LLM: LLMConfig{
			Model: "claude-sonnet-4-20250514",
		},
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "America/Los_Angeles"
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 30
	}
	if c.Airtable.EventsTable == "" {
		c.Airtable.EventsTable = "Events"
	}
	if c.Airtable.MembersTable == "" {
		c.Airtable.MembersTable = "Members"
	}
	if c.Airtable.RoomsTable == "" {
		c.Airtable.RoomsTable = "Rooms"
	}
	if c.Airtable.BookingsTable == "" {
		c.Airtable.BookingsTable = "Bookings"
	}
	if c.Signage.OutputPath == "" {
		c.Signage.OutputPath = "./cache/signage.png"
	}
	if c.Signage.Width <= 0 {
		c.Signage.Width = 1920
	}
	if c.Signage.Height <= 0 {
		c.Signage.Height = 1080
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "claude-sonnet-4-20250514"
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600) and
// returned; if it exists, it is unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to path atomically (temp file + rename) with
// 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".fairhaven-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
