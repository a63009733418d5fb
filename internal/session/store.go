// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// fileLock returns the advisory lock guarding path's read-modify-write
// cycle (§6 SPEC_FULL.md), so a second orchestrator process — or a crashed
// process's stale lock — cannot tear a concurrent write.
func fileLock(path string) *flock.Flock {
	return flock.New(path + ".lock")
}

// loadRecords reads the session table from disk. A missing file is not an
// error: it means a cold start, and the caller begins with an empty table.
func loadRecords(path string) ([]Session, error) {
	lock := fileLock(path)
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock sessions file: %w", err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []Session
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse sessions file: %w", err)
	}
	return records, nil
}

// saveRecords writes the full session table back to disk via a temp file
// plus rename, so a crash mid-write cannot leave a torn file behind. The
// whole cycle is held under an exclusive advisory lock.
func saveRecords(path string, records []Session) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}

	lock := fileLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock sessions file: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sessions: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp sessions file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename sessions file: %w", err)
	}
	return nil
}
