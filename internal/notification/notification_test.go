// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package notification

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueue(t *testing.T) *Queue {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notifications.json")
	q, err := NewQueue(path)
	require.NoError(t, err)
	return q
}

func TestQueue_EnqueueAndGetPending(t *testing.T) {
	q := newQueue(t)

	n, err := q.Enqueue("a", "b", "hello", 0)
	require.NoError(t, err)
	assert.Equal(t, StatePending, n.State)

	pending, err := q.GetPending("b")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "hello", pending[0].Content)
}

func TestQueue_MarkRead(t *testing.T) {
	q := newQueue(t)
	n, err := q.Enqueue("a", "b", "hello", 0)
	require.NoError(t, err)

	require.NoError(t, q.MarkRead(n.ID))

	pending, err := q.GetPending("b")
	require.NoError(t, err)
	assert.Empty(t, pending)

	history, err := q.GetHistory("b", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, StateRead, history[0].State)
}

func TestQueue_ExpireSweep(t *testing.T) {
	q := newQueue(t)
	_, err := q.Enqueue("a", "b", "hello", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, q.ExpireSweep())

	pending, err := q.GetPending("b")
	require.NoError(t, err)
	assert.Empty(t, pending)

	history, err := q.GetHistory("b", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, StateExpired, history[0].State)
}

func TestQueue_GetStats(t *testing.T) {
	q := newQueue(t)
	_, err := q.Enqueue("a", "b", "one", 0)
	require.NoError(t, err)
	n2, err := q.Enqueue("a", "b", "two", 0)
	require.NoError(t, err)
	require.NoError(t, q.MarkRead(n2.ID))

	stats := q.GetStats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Read)
}

func TestQueue_MarkRead_UnknownID(t *testing.T) {
	q := newQueue(t)
	err := q.MarkRead("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueue_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.json")
	q1, err := NewQueue(path)
	require.NoError(t, err)
	n, err := q1.Enqueue("a", "b", "hello", 0)
	require.NoError(t, err)

	q2, err := NewQueue(path)
	require.NoError(t, err)
	history, err := q2.GetHistory("b", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, n.ID, history[0].ID)
}
