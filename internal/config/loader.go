// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration file loading.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the configuration at path.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml config: %w", err)
	}
	return &cfg, nil
}

// LoadWithDefaults loads the config at path and fills in missing values.
func (l *Loader) LoadWithDefaults(ctx context.Context, path string) (*Config, error) {
	cfg, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// FindConfig searches $IRIS_HOME for config.yaml, falling back to
// config.yml.
func (l *Loader) FindConfig(irisHome string) (string, error) {
	candidates := []string{"config.yaml", "config.yml"}

	for _, name := range candidates {
		path := filepath.Join(irisHome, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("config file not found in %s (looked for config.yaml, config.yml)", irisHome)
}

// applyDefaults sets default values for missing settings fields.
func applyDefaults(cfg *Config) {
	if cfg.Settings.IdleTimeout == "" {
		cfg.Settings.IdleTimeout = "30m"
	}
	if cfg.Settings.MaxProcesses == 0 {
		cfg.Settings.MaxProcesses = 10
	}
	if cfg.Settings.HealthCheckInterval == "" {
		cfg.Settings.HealthCheckInterval = "30s"
	}
	if cfg.Settings.SessionInitTimeout == "" {
		cfg.Settings.SessionInitTimeout = "15s"
	}
	if cfg.Dashboard.Host == "" {
		cfg.Dashboard.Host = "127.0.0.1"
	}
	if cfg.Dashboard.Port == 0 {
		cfg.Dashboard.Port = 8787
	}
	if len(cfg.Settings.AssistantCommand) == 0 {
		cfg.Settings.AssistantCommand = []string{"claude", "--output-format", "stream-json"}
	}
	if cfg.Teams == nil {
		cfg.Teams = make(map[string]TeamConfig)
	}
}

// DefaultIrisHome returns ~/.iris, the default value of $IRIS_HOME.
func DefaultIrisHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".iris"), nil
}
