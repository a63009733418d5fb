// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package pool is the keyed supervisor over per-team ChildProcess
// instances: admission control, idle reaping, and collapsing concurrent
// spawns of the same team onto a single in-flight attempt.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mitchellh/go-ps"
	"golang.org/x/sync/singleflight"

	"github.com/groupsio/iris/internal/childprocess"
	"github.com/groupsio/iris/internal/outputcache"
)

// ErrPoolFull is returned by GetOrCreateProcess when starting a new team
// would exceed MaxProcesses. The pool never evicts to make room; callers
// retry after a sleep.
var ErrPoolFull = errors.New("pool: full")

// ErrUnknownTeam is returned by ClearOutputCache when no live process
// exists for a team; the non-creating observers return nil instead.
var ErrUnknownTeam = errors.New("pool: unknown team")

// SpawnConfigFunc resolves a team name to the command/workdir/env used
// to spawn its assistant subprocess, sourced from ConfigView.
type SpawnConfigFunc func(team string) (childprocess.SpawnConfig, error)

// IdleTimeoutFunc resolves the effective idle timeout for a team,
// preferring a per-team override and falling back to the global setting.
type IdleTimeoutFunc func(team string) time.Duration

// entry is one live team's bookkeeping.
type entry struct {
	team    string
	process *childprocess.ChildProcess
	cache   *outputcache.Cache
}

// Pool is the keyed supervisor over live ChildProcess instances, one per
// team. It never runs more than MaxProcesses children concurrently.
type Pool struct {
	mu      sync.RWMutex
	entries map[string]*entry

	spawnConfig  SpawnConfigFunc
	idleTimeout  IdleTimeoutFunc
	streamBytes  int
	maxProcesses int

	spawnGroup singleflight.Group

	healthInterval time.Duration
	stopCh         chan struct{}
	stopped        bool
}

// Config bundles Pool's construction-time parameters.
type Config struct {
	MaxProcesses        int
	HealthCheckInterval time.Duration
	StreamBytes         int
	SpawnConfig         SpawnConfigFunc
	IdleTimeout         IdleTimeoutFunc
}

// New creates a Pool and starts its idle/health sweeper.
func New(cfg Config) *Pool {
	if cfg.StreamBytes <= 0 {
		cfg.StreamBytes = outputcache.DefaultStreamBytes
	}
	if cfg.HealthCheckInterval <= 0 {
		cfg.HealthCheckInterval = 30 * time.Second
	}
	p := &Pool{
		entries:        make(map[string]*entry),
		spawnConfig:    cfg.SpawnConfig,
		idleTimeout:    cfg.IdleTimeout,
		streamBytes:    cfg.StreamBytes,
		maxProcesses:   cfg.MaxProcesses,
		healthInterval: cfg.HealthCheckInterval,
		stopCh:         make(chan struct{}),
	}
	go p.sweepLoop()
	return p
}

// GetOrCreateProcess returns the live child for team, spawning one if
// none exists. Concurrent callers for the same team collapse onto a
// single spawn attempt via singleflight.
func (p *Pool) GetOrCreateProcess(ctx context.Context, team, sessionID, fromTeam string) (*childprocess.ChildProcess, error) {
	p.mu.RLock()
	e, ok := p.entries[team]
	p.mu.RUnlock()
	if ok {
		return e.process, nil
	}

	v, err, _ := p.spawnGroup.Do(team, func() (interface{}, error) {
		p.mu.RLock()
		if e, ok := p.entries[team]; ok {
			p.mu.RUnlock()
			return e.process, nil
		}
		count := len(p.entries)
		p.mu.RUnlock()

		if p.maxProcesses > 0 && count >= p.maxProcesses {
			return nil, fmt.Errorf("%w: %d/%d processes running", ErrPoolFull, count, p.maxProcesses)
		}

		spawnCfg, err := p.spawnConfig(team)
		if err != nil {
			return nil, fmt.Errorf("pool: resolve spawn config for %s: %w", team, err)
		}

		cache := outputcache.New(team, p.streamBytes)
		proc := childprocess.New(team, spawnCfg, cache, p.onProcessExit)

		if err := proc.Start(ctx, sessionID, fromTeam); err != nil {
			return nil, fmt.Errorf("pool: start %s: %w", team, err)
		}

		p.mu.Lock()
		p.entries[team] = &entry{team: team, process: proc, cache: cache}
		p.mu.Unlock()

		log.Printf("pool: spawned team=%s session=%s", team, sessionID)
		return proc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*childprocess.ChildProcess), nil
}

// onProcessExit deregisters a team whose process exited without an
// explicit TerminateProcess call (crash, clean exit, or the kill that
// follows an unanswered cancel). No
// auto-respawn happens here; the next tell/wake spawns a fresh one.
func (p *Pool) onProcessExit(team string, crash *childprocess.CrashInfo) {
	p.mu.Lock()
	delete(p.entries, team)
	p.mu.Unlock()
	log.Printf("pool: team=%s deregistered after exit: %s", team, crash.Summary())
}

// GetProcess is a non-creating observer; it returns nil if team has no
// live process.
func (p *Pool) GetProcess(team string) *childprocess.ChildProcess {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if e, ok := p.entries[team]; ok {
		return e.process
	}
	return nil
}

// GetOutputCache is a non-creating observer over a team's ring buffers.
func (p *Pool) GetOutputCache(team string) *outputcache.Cache {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if e, ok := p.entries[team]; ok {
		return e.cache
	}
	return nil
}

// TerminateProcess stops team's process (if any) and deregisters it.
func (p *Pool) TerminateProcess(ctx context.Context, team string, force bool) (childprocess.TerminationReport, error) {
	p.mu.Lock()
	e, ok := p.entries[team]
	if ok {
		delete(p.entries, team)
	}
	p.mu.Unlock()

	if !ok {
		return childprocess.TerminationReport{}, nil
	}
	return e.process.Terminate(ctx, force)
}

// TerminateAll stops every live process, used at shutdown.
func (p *Pool) TerminateAll(ctx context.Context) {
	p.mu.Lock()
	entries := make([]*entry, 0, len(p.entries))
	for _, e := range p.entries {
		entries = append(entries, e)
	}
	p.entries = make(map[string]*entry)
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e *entry) {
			defer wg.Done()
			e.process.Terminate(ctx, false)
		}(e)
	}
	wg.Wait()
}

// ClearOutputCache resets team's rings without touching the process.
func (p *Pool) ClearOutputCache(team string) error {
	p.mu.RLock()
	e, ok := p.entries[team]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, team)
	}
	e.cache.Clear()
	return nil
}

// Status is the aggregate view returned by GetStatus.
type Status struct {
	TotalProcesses int
	MaxProcesses   int
	Processes      map[string]childprocess.Metrics
}

// GetStatus returns a point-in-time view of every live process.
func (p *Pool) GetStatus() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	processes := make(map[string]childprocess.Metrics, len(p.entries))
	for team, e := range p.entries {
		processes[team] = e.process.GetMetrics()
	}
	return Status{
		TotalProcesses: len(p.entries),
		MaxProcesses:   p.maxProcesses,
		Processes:      processes,
	}
}

// Close stops the sweep loop. It does not terminate any processes; call
// TerminateAll first during shutdown.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()
	close(p.stopCh)
}

func (p *Pool) sweepLoop() {
	ticker := time.NewTicker(p.healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.sweep()
		case <-p.stopCh:
			return
		}
	}
}

// sweep terminates idle children and cross-checks each tracked pid
// against the host's live process table, logging (but not acting on) any
// pid that has vanished without the exit waiter observing it yet.
func (p *Pool) sweep() {
	p.mu.RLock()
	snapshot := make([]*entry, 0, len(p.entries))
	for _, e := range p.entries {
		snapshot = append(snapshot, e)
	}
	p.mu.RUnlock()

	livePids, err := ps.Processes()
	if err != nil {
		log.Printf("pool: sweep: list host processes: %v", err)
		livePids = nil
	}
	liveSet := make(map[int]bool, len(livePids))
	for _, proc := range livePids {
		liveSet[proc.Pid()] = true
	}

	now := time.Now()
	for _, e := range snapshot {
		metrics := e.process.GetMetrics()
		if metrics.Status == childprocess.StatusStopped || metrics.Status == childprocess.StatusTerminating {
			continue
		}

		if metrics.PID != 0 && !liveSet[metrics.PID] {
			log.Printf("pool: team=%s pid=%d is no longer in the host process table but exit has not been observed yet", e.team, metrics.PID)
		}

		idleFor := now.Sub(metrics.LastActivityAt)
		if idleFor > p.idleTimeout(e.team) {
			log.Printf("pool: team=%s idle for %s, terminating", e.team, idleFor.Round(time.Second))
			go p.TerminateProcess(context.Background(), e.team, false)
		}
	}
}
