// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package term

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_EnsureSessionReusesLive(t *testing.T) {
	m := NewManager()
	t.Cleanup(m.CloseAll)

	s1, err := m.EnsureSession("alpha", t.TempDir(), "sh")
	require.NoError(t, err)
	s2, err := m.EnsureSession("alpha", t.TempDir(), "sh")
	require.NoError(t, err)

	assert.Same(t, s1, s2)
}

func TestManager_CloseRemovesSession(t *testing.T) {
	m := NewManager()
	t.Cleanup(m.CloseAll)

	_, err := m.EnsureSession("alpha", t.TempDir(), "sh")
	require.NoError(t, err)

	require.NoError(t, m.Close("alpha"))
	assert.Nil(t, m.Get("alpha"))
	assert.ErrorIs(t, m.Close("alpha"), ErrNoSession)
}

func TestSession_EchoRoundTrip(t *testing.T) {
	m := NewManager()
	t.Cleanup(m.CloseAll)

	s, err := m.EnsureSession("alpha", t.TempDir(), "sh")
	require.NoError(t, err)

	_, err = s.Write([]byte("echo hello-term\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(s)
	deadline := time.Now().Add(3 * time.Second)
	found := false
	for time.Now().Before(deadline) {
		line, rerr := reader.ReadString('\n')
		if len(line) > 0 && strings.Contains(line, "hello-term") {
			found = true
			break
		}
		if rerr != nil {
			break
		}
	}
	assert.True(t, found, "expected echoed output to appear on the pty")
}

func TestManager_Teams(t *testing.T) {
	m := NewManager()
	t.Cleanup(m.CloseAll)

	_, err := m.EnsureSession("alpha", t.TempDir(), "sh")
	require.NoError(t, err)

	assert.Contains(t, m.Teams(), "alpha")
}
