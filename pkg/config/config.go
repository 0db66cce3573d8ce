package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// DefaultBaseURL is the upstream location of the conference files
const DefaultBaseURL = "https://raw.githubusercontent.com/ccfddl/ccf-deadlines/main/conference/AI/"

// DefaultFiles lists the conference files rendered when none are configured, in display-independent order
var DefaultFiles = []string{
	"aaai.yml",
	"aistats.yml",
	"esann.yml",
	"iclr.yml",
	"icml.yml",
	"ijcnn.yml",
	"icra.yml",
	"nips.yml",
	"cvpr.yml",
}

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
		BaseURL string        `yaml:"base_url" json:"base_url" jsonschema:"default=http://localhost:8080,description=Public URL used in RSS and calendar links"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Source SourceConfig `yaml:"source" json:"source" jsonschema:"description=Upstream conference feeds"`

	Countdown CountdownConfig `yaml:"countdown" json:"countdown" jsonschema:"description=Countdown refresh and urgency tiers"`

	Display DisplayConfig `yaml:"display" json:"display" jsonschema:"description=Fixed display strings"`
}

// SourceConfig describes where conference files come from and how they are fetched
type SourceConfig struct {
	BaseURL         string        `yaml:"base_url" json:"base_url" jsonschema:"description=Base URL every file identifier is resolved under"`
	Files           []string      `yaml:"files" json:"files" jsonschema:"description=Conference file identifiers in declared order"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout per file"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Deadlines/1.0,description=User agent for HTTP requests"`
	Attempts        int           `yaml:"attempts" json:"attempts" jsonschema:"default=1,minimum=1,description=Fetch attempts per file (1 disables retries)"`
	RetryDelay      time.Duration `yaml:"retry_delay" json:"retry_delay" jsonschema:"default=1s,description=Delay between fetch attempts"`
	RateLimit       time.Duration `yaml:"rate_limit" json:"rate_limit" jsonschema:"default=0s,description=Minimum interval between requests (0 disables)"`
	Concurrency     int           `yaml:"concurrency" json:"concurrency" jsonschema:"default=4,minimum=1,description=Maximum concurrent file loads"`
	RefreshInterval time.Duration `yaml:"refresh_interval" json:"refresh_interval" jsonschema:"default=0s,description=Full re-render interval for the server (0 disables)"`
	Timezone        string        `yaml:"timezone" json:"timezone" jsonschema:"default=Local,description=Time zone deadlines without an offset are read in"`
}

// CountdownConfig controls the countdown ticker and urgency tiers
type CountdownConfig struct {
	Interval    time.Duration `yaml:"interval" json:"interval" jsonschema:"default=1s,description=Countdown tick interval"`
	UrgentDays  int           `yaml:"urgent_days" json:"urgent_days" jsonschema:"default=7,minimum=1,description=Rows with fewer days left are urgent"`
	WarningDays int           `yaml:"warning_days" json:"warning_days" jsonschema:"default=30,minimum=1,description=Rows with fewer days left are warnings"`
	TimeLayout  string        `yaml:"time_layout" json:"time_layout" jsonschema:"default=02/01/2006\\, 15:04:05,description=Go layout for the absolute deadline"`
}

// DisplayConfig holds the fixed strings shown in the table
type DisplayConfig struct {
	Placeholder string `yaml:"placeholder" json:"placeholder" jsonschema:"default=-,description=Text for absent values"`
	ClosedLabel string `yaml:"closed_label" json:"closed_label" jsonschema:"default=⏳ prazo encerrado,description=Text for passed deadlines"`
	LinkLabel   string `yaml:"link_label" json:"link_label" jsonschema:"default=🔗 site,description=Text of the conference link"`
}

// Default returns configuration with all defaults applied, used when no file is given
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	verifySchema(&cfg)

	return &cfg, nil
}

// verifySchema checks cfg against the embedded schema, mismatches are logged and not fatal
func verifySchema(cfg *Config) {
	if err := VerifyAgainstEmbeddedSchema(cfg); err != nil {
		log.Printf("[WARN] schema validation failed: %v", err)
	}
}

func setDefaults(cfg *Config) {
	// set defaults for server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:8080"
	}

	// set defaults for source
	if cfg.Source.BaseURL == "" {
		cfg.Source.BaseURL = DefaultBaseURL
	}
	if len(cfg.Source.Files) == 0 {
		cfg.Source.Files = append([]string(nil), DefaultFiles...)
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = 30 * time.Second
	}
	if cfg.Source.UserAgent == "" {
		cfg.Source.UserAgent = "Deadlines/1.0"
	}
	if cfg.Source.Attempts == 0 {
		cfg.Source.Attempts = 1
	}
	if cfg.Source.RetryDelay == 0 {
		cfg.Source.RetryDelay = time.Second
	}
	if cfg.Source.Concurrency == 0 {
		cfg.Source.Concurrency = 4
	}
	if cfg.Source.Timezone == "" {
		cfg.Source.Timezone = "Local"
	}

	// set defaults for countdown
	if cfg.Countdown.Interval == 0 {
		cfg.Countdown.Interval = time.Second
	}
	if cfg.Countdown.UrgentDays == 0 {
		cfg.Countdown.UrgentDays = 7
	}
	if cfg.Countdown.WarningDays == 0 {
		cfg.Countdown.WarningDays = 30
	}
	if cfg.Countdown.TimeLayout == "" {
		cfg.Countdown.TimeLayout = "02/01/2006, 15:04:05"
	}

	// set defaults for display
	if cfg.Display.Placeholder == "" {
		cfg.Display.Placeholder = "-"
	}
	if cfg.Display.ClosedLabel == "" {
		cfg.Display.ClosedLabel = "⏳ prazo encerrado"
	}
	if cfg.Display.LinkLabel == "" {
		cfg.Display.LinkLabel = "🔗 site"
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	// validate source config
	u, err := url.Parse(cfg.Source.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source.base_url must be an absolute http(s) URL, got %q", cfg.Source.BaseURL)
	}
	for _, f := range cfg.Source.Files {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("source.files can't contain empty identifiers")
		}
	}
	if cfg.Source.Attempts < 1 {
		return fmt.Errorf("source.attempts must be at least 1")
	}
	if cfg.Source.Concurrency < 1 {
		return fmt.Errorf("source.concurrency must be at least 1")
	}
	if cfg.Source.RateLimit < 0 || cfg.Source.RefreshInterval < 0 {
		return fmt.Errorf("source.rate_limit and source.refresh_interval must be non-negative")
	}
	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("source.timezone: %w", err)
	}

	// validate countdown config
	if cfg.Countdown.Interval < 10*time.Millisecond {
		return fmt.Errorf("countdown.interval must be at least 10ms")
	}
	if cfg.Countdown.UrgentDays < 1 || cfg.Countdown.WarningDays < cfg.Countdown.UrgentDays {
		return fmt.Errorf("countdown tiers must satisfy 1 <= urgent_days <= warning_days")
	}

	// validate server config
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// Location returns the time zone deadlines without an explicit offset are read in
func (c *Config) Location() (*time.Location, error) {
	if c.Source.Timezone == "" || c.Source.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Source.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", c.Source.Timezone, err)
	}
	return loc, nil
}

// GetFiles returns conference file identifiers in declared order
func (c *Config) GetFiles() []string {
	return c.Source.Files
}
