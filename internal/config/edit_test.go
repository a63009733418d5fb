// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTeam_PreservesCommentsAndAddsTeam(t *testing.T) {
	path := writeConfig(t, `# global knobs
settings:
  idleTimeout: 15m # half an hour is too long here
  maxProcesses: 5

# managed teams
teams:
  alpha:
    path: /work/alpha
`)

	require.NoError(t, SetTeam(path, "beta", TeamConfig{Path: "/work/beta", Description: "the beta team"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "# global knobs")
	assert.Contains(t, text, "# half an hour is too long here")
	assert.Contains(t, text, "# managed teams")
	assert.Contains(t, text, "beta")

	l := NewLoader()
	cfg, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "/work/alpha", cfg.Teams["alpha"].Path)
	assert.Equal(t, "/work/beta", cfg.Teams["beta"].Path)
	assert.Equal(t, "the beta team", cfg.Teams["beta"].Description)
}

func TestRemoveTeam(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	require.NoError(t, RemoveTeam(path, "beta"))

	l := NewLoader()
	cfg, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.NotContains(t, cfg.Teams, "beta")
	assert.Contains(t, cfg.Teams, "alpha")
}

func TestRemoveTeam_UnknownIsNoOp(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	require.NoError(t, RemoveTeam(path, "does-not-exist"))
}

func TestSetTeamField_EditsOnlyThatField(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	require.NoError(t, SetTeamField(path, "alpha", "skipPermissions", "true"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "the alpha team"), "unrelated field should survive")

	l := NewLoader()
	cfg, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, cfg.Teams["alpha"].SkipPermissions)
}

func TestSetTeamField_UnknownTeam(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	err := SetTeamField(path, "does-not-exist", "skipPermissions", "true")
	assert.Error(t, err)
}

func TestSetTeam_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SetTeam(path, "alpha", TeamConfig{Path: "/work/alpha"}))

	l := NewLoader()
	cfg, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "/work/alpha", cfg.Teams["alpha"].Path)
}
