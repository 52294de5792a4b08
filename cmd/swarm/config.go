package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apexmind/swarm/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify swarm configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/swarm/config.yaml
Project-specific overrides can be placed in .swarm.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	// Mask API key if set
	apiKeyDisplay := "(not set)"
	if cfg.Memory.APIKey != "" {
		apiKeyDisplay = "****"
	}

	fmt.Printf("dispatch.concurrency_limit: %d\n", cfg.Dispatch.ConcurrencyLimit)
	fmt.Printf("dispatch.grace_period: %s\n", cfg.Dispatch.GracePeriod)
	fmt.Printf("dispatch.timeout: %s\n", cfg.Dispatch.Timeout)
	fmt.Printf("store.path: %s\n", cfg.Store.Path)
	fmt.Printf("memory.enabled: %t\n", cfg.Memory.Enabled)
	fmt.Printf("memory.endpoint: %s\n", cfg.Memory.Endpoint)
	fmt.Printf("memory.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("worker.endpoint: %s\n", cfg.Worker.Endpoint)
	fmt.Printf("worker.timeout: %s\n", cfg.Worker.Timeout)
	fmt.Printf("worker.max_retries: %d\n", cfg.Worker.MaxRetries)
	fmt.Printf("worker.backoff: %s\n", cfg.Worker.Backoff)
	fmt.Printf("pool.trinity_teams: %d\n", cfg.Pool.TrinityTeams)
	fmt.Printf("pool.specialists: %d\n", cfg.Pool.Specialists)
	fmt.Printf("pool.manifest: %s\n", cfg.Pool.Manifest)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "dispatch.concurrency_limit":
		return strconv.Itoa(cfg.Dispatch.ConcurrencyLimit), nil
	case "dispatch.grace_period":
		return cfg.Dispatch.GracePeriod.String(), nil
	case "dispatch.timeout":
		return cfg.Dispatch.Timeout.String(), nil
	case "store.path":
		return cfg.Store.Path, nil
	case "memory.enabled":
		return strconv.FormatBool(cfg.Memory.Enabled), nil
	case "memory.endpoint":
		return cfg.Memory.Endpoint, nil
	case "memory.api_key":
		if cfg.Memory.APIKey == "" {
			return "(not set)", nil
		}
		return "****", nil
	case "worker.endpoint":
		return cfg.Worker.Endpoint, nil
	case "worker.timeout":
		return cfg.Worker.Timeout.String(), nil
	case "worker.max_retries":
		return strconv.Itoa(cfg.Worker.MaxRetries), nil
	case "worker.backoff":
		return cfg.Worker.Backoff.String(), nil
	case "pool.trinity_teams":
		return strconv.Itoa(cfg.Pool.TrinityTeams), nil
	case "pool.specialists":
		return strconv.Itoa(cfg.Pool.Specialists), nil
	case "pool.manifest":
		return cfg.Pool.Manifest, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "dispatch.concurrency_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for concurrency_limit: %w", err)
		}
		cfg.Dispatch.ConcurrencyLimit = n
	case "dispatch.grace_period":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for grace_period: %w", err)
		}
		cfg.Dispatch.GracePeriod = d
	case "dispatch.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for timeout: %w", err)
		}
		cfg.Dispatch.Timeout = d
	case "store.path":
		cfg.Store.Path = value
	case "memory.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for memory.enabled: %w", err)
		}
		cfg.Memory.Enabled = b
	case "memory.endpoint":
		cfg.Memory.Endpoint = value
	case "memory.api_key":
		cfg.Memory.APIKey = value
	case "worker.endpoint":
		cfg.Worker.Endpoint = value
	case "worker.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for worker.timeout: %w", err)
		}
		cfg.Worker.Timeout = d
	case "worker.max_retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_retries: %w", err)
		}
		cfg.Worker.MaxRetries = n
	case "worker.backoff":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for worker.backoff: %w", err)
		}
		cfg.Worker.Backoff = d
	case "pool.trinity_teams":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for trinity_teams: %w", err)
		}
		cfg.Pool.TrinityTeams = n
	case "pool.specialists":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for specialists: %w", err)
		}
		cfg.Pool.Specialists = n
	case "pool.manifest":
		cfg.Pool.Manifest = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
