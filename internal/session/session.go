// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session maintains the directed (fromTeam, toTeam) -> sessionId
// mapping that lets the pool hand an assistant subprocess the same
// conversational session across separate tell() calls.
package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// key identifies one directed call edge. An empty From models a call
// originating from outside the fleet.
type key struct {
	From string
	To   string
}

// Session is a single directed mapping from a (fromTeam, toTeam) pair to
// the opaque sessionId an assistant subprocess uses to resume context.
type Session struct {
	FromTeam   string    `json:"from_team"`
	ToTeam     string    `json:"to_team"`
	SessionID  string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Manager is the durable session table. It is safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	path  string
	byKey map[key]*Session
}

// NewManager loads the session table from path, creating an empty table if
// the file does not yet exist.
func NewManager(path string) (*Manager, error) {
	records, err := loadRecords(path)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	m := &Manager{
		path:  path,
		byKey: make(map[key]*Session),
	}
	for _, r := range records {
		rec := r
		m.byKey[key{From: rec.FromTeam, To: rec.ToTeam}] = &rec
	}
	log.Printf("session: loaded %d sessions from %s", len(records), path)
	return m, nil
}

// GetOrCreate returns the existing session for (fromTeam, toTeam),
// refreshing lastUsedAt, or mints and persists a new one on miss. Two
// sequential calls with no intervening Invalidate always observe the same
// sessionId.
func (m *Manager) GetOrCreate(fromTeam, toTeam string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{From: fromTeam, To: toTeam}
	now := time.Now()

	if s, ok := m.byKey[k]; ok {
		s.LastUsedAt = now
		if err := m.persistLocked(); err != nil {
			return Session{}, err
		}
		return *s, nil
	}

	s := &Session{
		FromTeam:   fromTeam,
		ToTeam:     toTeam,
		SessionID:  uuid.NewString(),
		CreatedAt:  now,
		LastUsedAt: now,
	}
	m.byKey[k] = s
	if err := m.persistLocked(); err != nil {
		delete(m.byKey, k)
		return Session{}, err
	}
	log.Printf("session: created session %s for %s->%s", s.SessionID, fromTeam, toTeam)
	return *s, nil
}

// Invalidate removes the session for (fromTeam, toTeam); the next
// GetOrCreate for that pair mints a fresh sessionId.
func (m *Manager) Invalidate(fromTeam, toTeam string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{From: fromTeam, To: toTeam}
	if _, ok := m.byKey[k]; !ok {
		return nil
	}
	delete(m.byKey, k)
	return m.persistLocked()
}

// InvalidateTeam removes every session that names toTeam as its target,
// used when a team is deleted.
func (m *Manager) InvalidateTeam(toTeam string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.byKey {
		if k.To == toTeam {
			delete(m.byKey, k)
		}
	}
	return m.persistLocked()
}

// List returns every known session, for diagnostics.
func (m *Manager) List() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Session, 0, len(m.byKey))
	for _, s := range m.byKey {
		out = append(out, *s)
	}
	return out
}

func (m *Manager) persistLocked() error {
	records := make([]Session, 0, len(m.byKey))
	for _, s := range m.byKey {
		records = append(records, *s)
	}
	return saveRecords(m.path, records)
}
