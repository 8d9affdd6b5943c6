package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Crawler      Crawler      `yaml:"crawler"`
	Report       Report       `yaml:"report"`
	Weight       Weight       `yaml:"weight"`
	Watchlist    Watchlist    `yaml:"watchlist"`
	Excerpts     Excerpts     `yaml:"excerpts"`
	Notification Notification `yaml:"notification"`
	Platforms    []Platform   `yaml:"platforms"`
	Feeds        []Feed       `yaml:"feeds"`
	Storage      Storage      `yaml:"storage"`
	Server       Server       `yaml:"server"`
}

type Crawler struct {
	BaseURL         string  `yaml:"base_url"`
	RequestInterval int     `yaml:"request_interval"` // milliseconds between sources
	MaxRetries      int     `yaml:"max_retries"`
	MinRetryWait    int     `yaml:"min_retry_wait"` // seconds
	MaxRetryWait    int     `yaml:"max_retry_wait"` // seconds
	RateLimitRPS    float64 `yaml:"rate_limit_rps"` // 0 disables the cap
}

type Report struct {
	Mode          string `yaml:"mode"`
	RankThreshold int    `yaml:"rank_threshold"`
}

type Weight struct {
	Rank      float64 `yaml:"rank_weight"`
	Frequency float64 `yaml:"frequency_weight"`
	Hotness   float64 `yaml:"hotness_weight"`
}

type Watchlist struct {
	File string `yaml:"file"`
}

type Excerpts struct {
	Enabled bool `yaml:"enabled"`
	Limit   int  `yaml:"limit"`
}

type Notification struct {
	Enabled    bool       `yaml:"enabled"`
	PushWindow PushWindow `yaml:"push_window"`
	Telegram   Telegram   `yaml:"telegram"`
	Webhooks   []Webhook  `yaml:"webhooks"`
}

type PushWindow struct {
	Enabled       bool      `yaml:"enabled"`
	TimeRange     TimeRange `yaml:"time_range"`
	OncePerDay    bool      `yaml:"once_per_day"`
	RetentionDays int       `yaml:"record_retention_days"`
}

type TimeRange struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type Telegram struct {
	TokenEnv string `yaml:"token_env"`
	ChatID   string `yaml:"chat_id"`
}

type Webhook struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Platform struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Storage struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for trendwatch.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "trendwatch")
}

// DataDir returns the XDG data directory for trendwatch.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "trendwatch")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/trendwatch/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'trendwatch init' to create a default config",
		xdgConfig,
	)
}

// Load reads, parses, and validates a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults and
// environment overrides for secrets.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Crawler: Crawler{
			BaseURL:         "https://newsnow.busiyi.world",
			RequestInterval: 1000,
			MaxRetries:      2,
			MinRetryWait:    3,
			MaxRetryWait:    5,
			RateLimitRPS:    2,
		},
		Report: Report{
			Mode:          "daily",
			RankThreshold: 10,
		},
		Weight: Weight{
			Rank:      0.6,
			Frequency: 0.3,
			Hotness:   0.1,
		},
		Excerpts: Excerpts{Limit: 3},
		Notification: Notification{
			Enabled: true,
			PushWindow: PushWindow{
				TimeRange:     TimeRange{Start: "08:00", End: "22:00"},
				OncePerDay:    true,
				RetentionDays: 7,
			},
			Telegram: Telegram{TokenEnv: "TELEGRAM_BOT_TOKEN"},
		},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Environment variables override secrets from the file.
	if chatID := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); chatID != "" {
		cfg.Notification.Telegram.ChatID = chatID
	}

	return cfg, nil
}

var timeOfDayRe = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Validate rejects configurations the pipeline cannot safely run with.
// Called before any network activity.
func (c *Config) Validate() error {
	switch c.Report.Mode {
	case "incremental", "current", "daily":
	default:
		return fmt.Errorf("report.mode must be incremental, current, or daily, got %q", c.Report.Mode)
	}

	if c.Report.RankThreshold < 1 {
		return fmt.Errorf("report.rank_threshold must be >= 1, got %d", c.Report.RankThreshold)
	}

	if c.Weight.Rank < 0 || c.Weight.Frequency < 0 || c.Weight.Hotness < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	if c.Weight.Rank+c.Weight.Frequency+c.Weight.Hotness == 0 {
		return fmt.Errorf("at least one weight must be positive")
	}

	if c.Crawler.MaxRetries < 0 {
		return fmt.Errorf("crawler.max_retries must be >= 0, got %d", c.Crawler.MaxRetries)
	}
	if c.Crawler.MinRetryWait > c.Crawler.MaxRetryWait {
		return fmt.Errorf("crawler.min_retry_wait (%d) exceeds max_retry_wait (%d)",
			c.Crawler.MinRetryWait, c.Crawler.MaxRetryWait)
	}

	pw := c.Notification.PushWindow
	if pw.Enabled {
		if !timeOfDayRe.MatchString(pw.TimeRange.Start) {
			return fmt.Errorf("push_window.time_range.start %q is not HH:MM", pw.TimeRange.Start)
		}
		if !timeOfDayRe.MatchString(pw.TimeRange.End) {
			return fmt.Errorf("push_window.time_range.end %q is not HH:MM", pw.TimeRange.End)
		}
		if pw.RetentionDays < 1 {
			return fmt.Errorf("push_window.record_retention_days must be >= 1, got %d", pw.RetentionDays)
		}
	}

	for i, p := range c.Platforms {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("platforms[%d] has no id", i)
		}
	}
	for i, f := range c.Feeds {
		if strings.TrimSpace(f.URL) == "" {
			return fmt.Errorf("feeds[%d] has no url", i)
		}
	}
	if len(c.Platforms) == 0 && len(c.Feeds) == 0 {
		return fmt.Errorf("no platforms or feeds configured")
	}

	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
