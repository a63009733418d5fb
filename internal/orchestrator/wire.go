// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"fmt"
	"time"

	"github.com/groupsio/iris/internal/childprocess"
	"github.com/groupsio/iris/internal/config"
	"github.com/groupsio/iris/internal/pool"
)

// SpawnConfigFromTeam resolves a configured team to the command/workdir
// childprocess.Start needs, preferring the team's own assistantCommand
// override and falling back to settings.assistantCommand.
func SpawnConfigFromTeam(cfg *config.Config) pool.SpawnConfigFunc {
	globalSessionInitTimeout := config.ParseDuration(cfg.Settings.SessionInitTimeout, 15*time.Second)
	return func(team string) (childprocess.SpawnConfig, error) {
		t, ok := cfg.Teams[team]
		if !ok {
			return childprocess.SpawnConfig{}, fmt.Errorf("%w: %s", ErrUnknownTeam, team)
		}
		command := t.EffectiveAssistantCommand(cfg.Settings.AssistantCommand)
		if len(command) == 0 {
			return childprocess.SpawnConfig{}, fmt.Errorf("%w: team %s has no assistantCommand configured", ErrConfigurationError, team)
		}
		env := map[string]string{}
		if t.SkipPermissions {
			env["IRIS_SKIP_PERMISSIONS"] = "1"
		}
		return childprocess.SpawnConfig{
			Command:            command,
			WorkDir:            t.Path,
			Env:                env,
			SessionInitTimeout: t.EffectiveSessionInitTimeout(globalSessionInitTimeout),
		}, nil
	}
}

// IdleTimeoutFromTeam resolves the effective per-team idle timeout,
// falling back to the global settings.idleTimeout.
func IdleTimeoutFromTeam(cfg *config.Config) pool.IdleTimeoutFunc {
	global := config.ParseDuration(cfg.Settings.IdleTimeout, 30*time.Minute)
	return func(team string) time.Duration {
		t, ok := cfg.Teams[team]
		if !ok {
			return global
		}
		return t.EffectiveIdleTimeout(global)
	}
}
