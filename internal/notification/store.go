// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package notification

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

// loadRecords reads the notification table from disk, tolerating a
// missing file as a cold start with an empty table.
func loadRecords(path string) ([]Notification, error) {
	lock := fileLock(path)
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock notifications file: %w", err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read notifications file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []Notification
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse notifications file: %w", err)
	}
	return records, nil
}

// saveRecords writes the full notification table back to disk via a temp
// file plus rename, matching the session store's crash-safe commit. The
// whole cycle is held under an exclusive advisory lock.
func saveRecords(path string, records []Notification) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create notifications dir: %w", err)
	}

	lock := fileLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock notifications file: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal notifications: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp notifications file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename notifications file: %w", err)
	}
	return nil
}
