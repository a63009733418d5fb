// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config handles YAML configuration loading, defaulting, and
// comment-preserving single-key edits for the orchestrator's fleet of
// teams.
package config

import (
	"strconv"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Settings  SettingsConfig        `yaml:"settings"`
	Dashboard DashboardConfig       `yaml:"dashboard"`
	Teams     map[string]TeamConfig `yaml:"teams"`
}

// SettingsConfig holds the global pool and timeout settings.
type SettingsConfig struct {
	IdleTimeout         string   `yaml:"idleTimeout"`
	MaxProcesses        int      `yaml:"maxProcesses"`
	HealthCheckInterval string   `yaml:"healthCheckInterval"`
	SessionInitTimeout  string   `yaml:"sessionInitTimeout"`
	HTTPPort            int      `yaml:"httpPort,omitempty"`
	DefaultTransport    string   `yaml:"defaultTransport,omitempty"` // "stdio" | "http"
	AssistantCommand    []string `yaml:"assistantCommand,omitempty"`
}

// DashboardConfig configures the optional HTTP/WebSocket dashboard.
type DashboardConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Host    string `yaml:"host"`
	TLSCert string `yaml:"tlsCert,omitempty"`
	TLSKey  string `yaml:"tlsKey,omitempty"`
}

// TeamConfig describes a single managed team and how to spawn its
// assistant subprocess.
type TeamConfig struct {
	Path               string   `yaml:"path"`
	Description        string   `yaml:"description,omitempty"`
	IdleTimeout        string   `yaml:"idleTimeout,omitempty"`
	SessionInitTimeout string   `yaml:"sessionInitTimeout,omitempty"`
	SkipPermissions    bool     `yaml:"skipPermissions,omitempty"`
	Color              string   `yaml:"color,omitempty"`
	AssistantCommand   []string `yaml:"assistantCommand,omitempty"`
}

// EffectiveAssistantCommand returns the team's assistant command
// override if set, else the global default.
func (t TeamConfig) EffectiveAssistantCommand(global []string) []string {
	if len(t.AssistantCommand) > 0 {
		return t.AssistantCommand
	}
	return global
}

// EffectiveIdleTimeout returns the team's idle timeout override if set,
// else the global default.
func (t TeamConfig) EffectiveIdleTimeout(global time.Duration) time.Duration {
	return ParseDuration(t.IdleTimeout, global)
}

// EffectiveSessionInitTimeout returns the team's session-init timeout
// override if set, else the global default.
func (t TeamConfig) EffectiveSessionInitTimeout(global time.Duration) time.Duration {
	return ParseDuration(t.SessionInitTimeout, global)
}

// ParseDuration parses s as a bare integer number of milliseconds or as a
// duration string such as "30s", returning defaultVal if s is empty or
// malformed.
func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
