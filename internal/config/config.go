package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abelbrown/snooze/internal/api"
)

// EnvPrefix prefixes every environment override, e.g. SNOOZE_BASE_URL.
const EnvPrefix = "SNOOZE_"

// Config is the persistent application configuration
type Config struct {
	// Story service
	BaseURL           string        `yaml:"base_url" env:"BASE_URL"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	Retries           int           `yaml:"retries" env:"RETRIES"`
	FeedLimit         int           `yaml:"feed_limit" env:"FEED_LIMIT"`

	// Local state: preference database and logs live here
	DataDir  string `yaml:"data_dir" env:"DATA_DIR"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	// UI Preferences
	UI UIConfig `yaml:"ui" envPrefix:"UI_"`
}

// UIConfig holds UI preferences
type UIConfig struct {
	AltScreen      bool          `yaml:"alt_screen" env:"ALT_SCREEN"`
	NoticeDuration time.Duration `yaml:"notice_duration" env:"NOTICE_DURATION"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           api.DefaultBaseURL,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 4,
		Retries:           1, // one retry for reads, then surface the error
		FeedLimit:         25,
		DataDir:           DefaultDataDir(),
		LogLevel:          "info",
		UI: UIConfig{
			AltScreen:      true,
			NoticeDuration: 4 * time.Second,
		},
	}
}

// DefaultDataDir returns ~/.snooze, or ./.snooze if the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".snooze"
	}
	return filepath.Join(home, ".snooze")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Load builds the configuration in layers: defaults, the YAML file at path
// (a missing file is fine), a .env file in the working directory, then
// SNOOZE_* environment variables. An empty path means ConfigPath().
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// .env is optional; existing environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("config: retries must not be negative, got %d", c.Retries)
	}
	if c.FeedLimit <= 0 {
		return fmt.Errorf("config: feed_limit must be positive, got %d", c.FeedLimit)
	}
	if c.DataDir == "" {
		return errors.New("config: data_dir must not be empty")
	}
	return nil
}

// Save writes config to path as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Marshal renders the config as the YAML that Load reads.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// APIOptions maps the service settings onto api.Options.
func (c *Config) APIOptions() api.Options {
	return api.Options{
		BaseURL:           c.BaseURL,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.RequestsPerSecond,
		Retries:           c.Retries,
	}
}

// DBPath is the preference database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "snooze.db")
}

// LogDir is where daily log files are written.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}
