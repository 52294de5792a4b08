// Package config handles configuration loading for swarm.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for swarm.
type Config struct {
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Store    StoreConfig    `mapstructure:"store"`
	Memory   MemoryConfig   `mapstructure:"memory"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Pool     PoolConfig     `mapstructure:"pool"`
}

// DispatchConfig holds dispatch-core settings.
type DispatchConfig struct {
	// ConcurrencyLimit caps simultaneous in-flight subtask executions.
	ConcurrencyLimit int `mapstructure:"concurrency_limit"`
	// GracePeriod bounds the wait for in-flight subtasks after a deadline.
	GracePeriod time.Duration `mapstructure:"grace_period"`
	// Timeout is the default per-dispatch deadline.
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig holds result store settings.
type StoreConfig struct {
	// Path is the SQLite outcome database location. Empty means the
	// XDG default.
	Path string `mapstructure:"path"`
}

// MemoryConfig holds memory-bank upload settings.
type MemoryConfig struct {
	// Enabled turns on outcome upload to the memory service.
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the memory service base URL.
	Endpoint string `mapstructure:"endpoint"`
	// APIKey authenticates uploads. Usually set via SUPERMEMORY_API_KEY.
	APIKey string `mapstructure:"api_key"`
}

// WorkerConfig holds worker service settings.
type WorkerConfig struct {
	// Endpoint is the worker service base URL. Empty selects the
	// simulated executor.
	Endpoint string `mapstructure:"endpoint"`
	// Timeout bounds a single execution request.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the per-subtask retry budget for the HTTP executor.
	MaxRetries int `mapstructure:"max_retries"`
	// Backoff is the pause between retries.
	Backoff time.Duration `mapstructure:"backoff"`
}

// PoolConfig holds worker pool shape settings.
type PoolConfig struct {
	// TrinityTeams is the number of three-member coordination teams.
	TrinityTeams int `mapstructure:"trinity_teams"`
	// Specialists is the number of specialist workers.
	Specialists int `mapstructure:"specialists"`
	// Specializations overrides the round-robin assignment list.
	Specializations []string `mapstructure:"specializations"`
	// Manifest is an optional explicit pool definition file. When set
	// it takes precedence over the generated shape.
	Manifest string `mapstructure:"manifest"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (SUPERMEMORY_API_KEY)
// 2. Project config (.swarm.yaml in current directory or parent)
// 3. User config (~/.config/swarm/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("memory.api_key", "SUPERMEMORY_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Memory.APIKey = os.ExpandEnv(cfg.Memory.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Memory.APIKey = os.ExpandEnv(cfg.Memory.APIKey)

	return cfg, nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("dispatch.concurrency_limit", cfg.Dispatch.ConcurrencyLimit)
	v.Set("dispatch.grace_period", cfg.Dispatch.GracePeriod.String())
	v.Set("dispatch.timeout", cfg.Dispatch.Timeout.String())
	v.Set("store.path", cfg.Store.Path)
	v.Set("memory.enabled", cfg.Memory.Enabled)
	v.Set("memory.endpoint", cfg.Memory.Endpoint)
	v.Set("memory.api_key", cfg.Memory.APIKey)
	v.Set("worker.endpoint", cfg.Worker.Endpoint)
	v.Set("worker.timeout", cfg.Worker.Timeout.String())
	v.Set("worker.max_retries", cfg.Worker.MaxRetries)
	v.Set("worker.backoff", cfg.Worker.Backoff.String())
	v.Set("pool.trinity_teams", cfg.Pool.TrinityTeams)
	v.Set("pool.specialists", cfg.Pool.Specialists)
	if len(cfg.Pool.Specializations) > 0 {
		v.Set("pool.specializations", cfg.Pool.Specializations)
	}
	if cfg.Pool.Manifest != "" {
		v.Set("pool.manifest", cfg.Pool.Manifest)
	}

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("dispatch.concurrency_limit", 16)
	v.SetDefault("dispatch.grace_period", "2s")
	v.SetDefault("dispatch.timeout", "5m")

	v.SetDefault("store.path", "")

	v.SetDefault("memory.enabled", false)
	v.SetDefault("memory.endpoint", "https://api.supermemory.ai/v3")
	v.SetDefault("memory.api_key", "")

	v.SetDefault("worker.endpoint", "")
	v.SetDefault("worker.timeout", "15s")
	v.SetDefault("worker.max_retries", 0)
	v.SetDefault("worker.backoff", "1s")

	v.SetDefault("pool.trinity_teams", 10)
	v.SetDefault("pool.specialists", 170)
}

// getUserConfigDir returns the XDG config directory for swarm.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "swarm")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "swarm")
	}
	return filepath.Join(home, ".config", "swarm")
}

// findProjectConfig searches for .swarm.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".swarm.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Dispatch: DispatchConfig{
			ConcurrencyLimit: 16,
			GracePeriod:      2 * time.Second,
			Timeout:          5 * time.Minute,
		},
		Memory: MemoryConfig{
			Endpoint: "https://api.supermemory.ai/v3",
		},
		Worker: WorkerConfig{
			Timeout: 15 * time.Second,
			Backoff: time.Second,
		},
		Pool: PoolConfig{
			TrinityTeams: 10,
			Specialists:  170,
		},
	}
}
