package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all MADE engine configuration.
type Config struct {
	Name string `yaml:"name"`

	// HTTP request surface
	Server ServerConfig `yaml:"server"`

	// Document store
	Store StoreConfig `yaml:"store"`

	// Game-time conversion
	Clock ClockConfig `yaml:"clock"`

	// External text-completion collaborator
	Linguistic LinguisticConfig `yaml:"linguistic"`

	// Degradation monitor
	Monitor MonitorConfig `yaml:"monitor"`

	// Local day-boundary archive
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP façade.
type ServerConfig struct {
	BindAddress    string   `yaml:"bind_address"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Addr renders the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}

// StoreConfig configures the document store connection.
type StoreConfig struct {
	URL            string `yaml:"url"`
	Database       string `yaml:"database"`
	ConnectTimeout string `yaml:"connect_timeout"`
}

// ClockConfig configures the real-time to game-time mapping.
type ClockConfig struct {
	// Real seconds per game-day; 60 means one minute per day.
	ScaleSecondsPerDay float64 `yaml:"scale_seconds_per_day"`
}

// LinguisticConfig configures the text-completion collaborator. An empty
// APIKey puts the dispatcher in fallback-only mode.
type LinguisticConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	// Candidate models tried in order; a quota error stops the scan.
	Models  []string `yaml:"models"`
	Timeout string   `yaml:"timeout"`
	// Optional YAML file overriding the built-in fallback utterances.
	TemplatesPath  string `yaml:"templates_path"`
	WatchTemplates bool   `yaml:"watch_templates"`
}

// MonitorConfig configures degradation monitor sessions.
type MonitorConfig struct {
	TickPeriod string `yaml:"tick_period"`
}

// SnapshotConfig configures the local SQLite archive.
type SnapshotConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures the zap logger built at startup.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "made",

		Server: ServerConfig{
			BindAddress: "0.0.0.0",
			Port:        8000,
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
			},
		},

		Store: StoreConfig{
			URL:            "mongodb://localhost:27017",
			Database:       "bigfive",
			ConnectTimeout: "10s",
		},

		Clock: ClockConfig{
			ScaleSecondsPerDay: 60,
		},

		Linguistic: LinguisticConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Models: []string{
				"gemini-1.5-flash",
				"gemini-1.5-flash-latest",
				"gemini-1.5-flash-lite-latest",
				"gemini-2.0-flash-lite",
				"gemini-2.0-flash",
			},
			Timeout:        "30s",
			TemplatesPath:  "",
			WatchTemplates: true,
		},

		Monitor: MonitorConfig{
			TickPeriod: "1s",
		},

		Snapshot: SnapshotConfig{
			DatabasePath: "data/made_snapshots.db",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file is not an error;
// defaults plus environment overrides apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides. The names match
// the deployment contract; environment always wins over the file.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("STORE_URL"); url != "" {
		c.Store.URL = url
	}

	// Credential names in priority order; the generic name wins.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Linguistic.APIKey = key
	}
	if key := os.Getenv("LINGUISTIC_API_KEY"); key != "" {
		c.Linguistic.APIKey = key
	}

	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		c.Server.BindAddress = addr
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			c.Server.Port = p
		}
	}

	if scale := os.Getenv("GAME_TIME_SCALE_SECONDS_PER_DAY"); scale != "" {
		if s, err := strconv.ParseFloat(scale, 64); err == nil && s > 0 {
			c.Clock.ScaleSecondsPerDay = s
		}
	}

	if path := os.Getenv("MADE_SNAPSHOT_DB"); path != "" {
		c.Snapshot.DatabasePath = path
	}
	if path := os.Getenv("MADE_TEMPLATES"); path != "" {
		c.Linguistic.TemplatesPath = path
	}
}

// ConnectTimeout returns the store connect timeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	d, err := time.ParseDuration(c.Store.ConnectTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// LinguisticTimeout returns the collaborator call timeout as a duration.
func (c *Config) LinguisticTimeout() time.Duration {
	d, err := time.ParseDuration(c.Linguistic.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// TickPeriod returns the monitor tick period as a duration, clamped into the
// supported half-second to one-second window.
func (c *Config) TickPeriod() time.Duration {
	d, err := time.ParseDuration(c.Monitor.TickPeriod)
	if err != nil {
		return time.Second
	}
	if d < 500*time.Millisecond {
		return 500 * time.Millisecond
	}
	if d > time.Second {
		return time.Second
	}
	return d
}
