package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config, defaults.
// Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.paramind/config.json
// Project: .paramind/config.json (relative to cwd)
func LoadDefault() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	return Load(
		filepath.Join(homeDir, ".paramind", "config.json"),
		filepath.Join(".paramind", "config.json"),
	)
}

// mergeConfigFile reads a JSON config file and merges its set fields
// into the base config. Missing files are silently skipped.
func mergeConfigFile(base *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if len(loaded.Workers) > 0 {
		base.Workers = loaded.Workers
	}
	if loaded.ControllerWorker != "" {
		base.ControllerWorker = loaded.ControllerWorker
	}
	if loaded.MaxConcurrent > 0 {
		base.MaxConcurrent = loaded.MaxConcurrent
	}
	if loaded.DefaultTimeoutSeconds > 0 {
		base.DefaultTimeoutSeconds = loaded.DefaultTimeoutSeconds
	}
	if loaded.CachePath != "" {
		base.CachePath = loaded.CachePath
	}
	if loaded.ListenAddr != "" {
		base.ListenAddr = loaded.ListenAddr
	}
	if loaded.LogLevel != "" {
		base.LogLevel = loaded.LogLevel
	}
	if loaded.LogFormat != "" {
		base.LogFormat = loaded.LogFormat
	}

	return nil
}
