package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "stayahead"
	configFile = "config.yaml"
	envPrefix  = "STAYAHEAD"

	BackendFile   = "file"
	BackendSQLite = "sqlite"

	storageKey = "PaleggWorks_StayAhead_AppState"
)

type Config struct {
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Sync     SyncConfig     `yaml:"sync" mapstructure:"sync"`
	Calendar CalendarConfig `yaml:"calendar" mapstructure:"calendar"`
}

type StorageConfig struct {
	// Backend is "file" (JSON document) or "sqlite" (key/value table).
	Backend string `yaml:"backend" mapstructure:"backend"`
	// Path overrides the default location under the data directory.
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

type SyncConfig struct {
	APIURL      string        `yaml:"api_url" mapstructure:"api_url"`
	UserAgent   string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	PullOnStart bool          `yaml:"pull_on_start" mapstructure:"pull_on_start"`
}

type CalendarConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Name    string `yaml:"name" mapstructure:"name"`
}

func Default() *Config {
	return &Config{
		Storage: StorageConfig{Backend: BackendFile},
		Sync: SyncConfig{
			APIURL:    "https://api.github.com",
			UserAgent: "stayahead",
			Timeout:   30 * time.Second,
		},
		Calendar: CalendarConfig{Name: "StayAhead"},
	}
}

// GetXdgHome returns $XDG_CONFIG_HOME/stayahead, falling back to ~/.config/stayahead.
func GetXdgHome() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, xdgAppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := GetXdgHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// DataDir is where the state document lives by default.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, xdgAppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", xdgAppName), nil
}

// StatePath resolves the storage location for the configured backend.
func (c *Config) StatePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	ext := ".json"
	if c.Storage.Backend == BackendSQLite {
		ext = ".db"
	}
	return filepath.Join(dir, storageKey+ext), nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Sync.APIURL == "" {
		return fmt.Errorf("sync.api_url must not be empty")
	}
	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("sync.timeout must be positive")
	}
	return nil
}

// Load reads the default config file. A missing file yields defaults.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults and applies STAYAHEAD_* overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("sync.api_url", cfg.Sync.APIURL)
	v.SetDefault("sync.user_agent", cfg.Sync.UserAgent)
	v.SetDefault("sync.timeout", cfg.Sync.Timeout)
	v.SetDefault("sync.pull_on_start", cfg.Sync.PullOnStart)
	v.SetDefault("calendar.enabled", cfg.Calendar.Enabled)
	v.SetDefault("calendar.name", cfg.Calendar.Name)
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return err
	}
	return encoder.Close()
}
