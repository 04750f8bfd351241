package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Environment names accepted by APIConfig.Environment.
const (
	EnvProduction = "production"
	EnvLocal      = "local"
)

// APIConfig selects the FinanceAI backend the client talks to.
type APIConfig struct {
	// Environment is either "production" or "local".
	Environment string `mapstructure:"environment" yaml:"environment"`

	// ProductionURL is the backend root used when Environment is production.
	ProductionURL string `mapstructure:"production_url" yaml:"production_url"`

	// LocalURL is the backend root used for local development.
	LocalURL string `mapstructure:"local_url" yaml:"local_url"`

	// URL overrides both environment URLs when set.
	URL string `mapstructure:"url" yaml:"url"`

	// TimeoutSec bounds each HTTP request. Zero means no client timeout;
	// the transport's own limits apply.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// BaseURL returns the backend root URL for the configured environment.
func (c APIConfig) BaseURL() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Environment == EnvProduction {
		return c.ProductionURL
	}
	return c.LocalURL
}

// LogConfig controls the structured log sink.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// CacheConfig controls the local dashboard snapshot cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// AdvisorConfig holds settings for the AI advisor panel.
type AdvisorConfig struct {
	// RequestsPerMinute caps how often questions are sent to the backend.
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Advisor AdvisorConfig `mapstructure:"advisor" yaml:"advisor"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigDir returns ~/.config/financeai, falling back to the
// working directory when the home directory cannot be resolved.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "financeai")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/financeai/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// setDefaults registers every key so that env overrides and Unmarshal
// resolve even when no config file exists.
func setDefaults(v *viper.Viper) {
	dir := DefaultConfigDir()

	v.SetDefault("api.environment", EnvLocal)
	v.SetDefault("api.production_url", "https://your-project.vercel.app")
	v.SetDefault("api.local_url", "http://localhost:8000")
	v.SetDefault("api.url", "")
	v.SetDefault("api.timeout_sec", 0)
	v.SetDefault("log.file", filepath.Join(dir, "financeai.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", filepath.Join(dir, "cache.db"))
	v.SetDefault("advisor.requests_per_minute", 6)
	v.SetDefault("display.theme", "default")
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file is not an error: defaults and FINANCEAI_* environment
// variables still apply.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("FINANCEAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api.environment", "FINANCEAI_ENV")
	_ = v.BindEnv("api.url", "FINANCEAI_API_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.API.Environment != EnvProduction && cfg.API.Environment != EnvLocal {
		return nil, fmt.Errorf(
			"parsing config %s: unknown api.environment %q", path, cfg.API.Environment,
		)
	}
	if cfg.Advisor.RequestsPerMinute <= 0 {
		cfg.Advisor.RequestsPerMinute = 6
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("log", cfg.Log)
	v.Set("cache", cfg.Cache)
	v.Set("advisor", cfg.Advisor)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
