// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package orchestrator composes ConfigView, SessionManager, ProcessPool,
// and NotificationQueue into the tool-call verbs a transport (MCP, CLI,
// dashboard) drives: tell, quick_tell, wake, sleep, cancel, reboot,
// delete, report, teams_get_status.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/groupsio/iris/internal/childprocess"
	"github.com/groupsio/iris/internal/config"
	"github.com/groupsio/iris/internal/events"
	"github.com/groupsio/iris/internal/notification"
	"github.com/groupsio/iris/internal/outputcache"
	"github.com/groupsio/iris/internal/pool"
	"github.com/groupsio/iris/internal/session"
)

// Error taxonomy (§7 SPEC_FULL.md). Pool- and childprocess-level
// sentinels (PoolFull, Timeout, Cancelled, ProcessTerminated,
// SpawnError) already exist in their owning packages and are returned
// unwrapped or wrapped with %w so errors.Is keeps working across the
// package boundary; only the verb-level concerns get sentinels here.
var (
	ErrUnknownTeam        = errors.New("orchestrator: unknown team")
	ErrConfigurationError = errors.New("orchestrator: configuration error")
)

// Orchestrator owns no process/file state directly; it borrows handles
// to the four subsystems and composes them per verb.
type Orchestrator struct {
	cfg      *config.Config
	sessions *session.Manager
	pool     *pool.Pool
	queue    *notification.Queue
	bus      events.EventBus
}

// New builds an Orchestrator over already-constructed subsystems. cfg is
// the live config snapshot; reloading config and rebuilding Orchestrator
// is the caller's concern (§9 "config is read-only at steady state"). bus
// may be nil, in which case verb outcomes are not published anywhere
// (useful for tests that don't care about the dashboard/MCP event feed).
func New(cfg *config.Config, sessions *session.Manager, p *pool.Pool, queue *notification.Queue, bus events.EventBus) *Orchestrator {
	return &Orchestrator{cfg: cfg, sessions: sessions, pool: p, queue: queue, bus: bus}
}

// publish emits an event if an EventBus was wired in, logging (not
// failing the verb) on error.
func (o *Orchestrator) publish(team, eventType string, payload map[string]interface{}) {
	if o.bus == nil {
		return
	}
	if err := o.bus.Publish(context.Background(), events.Event{
		Type:    eventType,
		Team:    team,
		Payload: payload,
	}); err != nil {
		log.Printf("orchestrator: publish %s for %s: %v", eventType, team, err)
	}
}

func (o *Orchestrator) team(name string) (config.TeamConfig, error) {
	t, ok := o.cfg.Teams[name]
	if !ok {
		return config.TeamConfig{}, fmt.Errorf("%w: %s", ErrUnknownTeam, name)
	}
	return t, nil
}

// TellResult is the outcome of a tell/quick_tell/wake/sleep/reboot call.
type TellResult struct {
	Status       string // "replied" | "queued" | "awake" | "waking" | "sleeping" | "already_asleep"
	Reply        string
	SessionID    string
	LostMessages int
	Err          error
}

// Tell sends content to team on behalf of fromTeam (empty for an
// external/top-level caller). If await is true, it blocks for a reply
// (or timeout, defaulting to 60s when zero); otherwise it returns once
// the message is queued, falling back to the notification queue if the
// process pool cannot accept it right now (e.g. PoolFull).
func (o *Orchestrator) Tell(ctx context.Context, fromTeam, team, content string, await bool, timeout time.Duration) (TellResult, error) {
	if _, err := o.team(team); err != nil {
		return TellResult{}, err
	}

	sess, err := o.sessions.GetOrCreate(fromTeam, team)
	if err != nil {
		return TellResult{}, fmt.Errorf("orchestrator: resolve session: %w", err)
	}

	proc, spawnErr := o.pool.GetOrCreateProcess(ctx, team, sess.SessionID, fromTeam)
	if spawnErr != nil {
		if await {
			return TellResult{}, fmt.Errorf("orchestrator: %w", spawnErr)
		}
		if _, nerr := o.queue.Enqueue(fromTeam, team, content, notification.DefaultTTL); nerr != nil {
			return TellResult{}, fmt.Errorf("orchestrator: fallback enqueue after %v: %w", spawnErr, nerr)
		}
		o.publish(team, events.EventNotificationEnqueued, map[string]interface{}{"fromTeam": fromTeam, "reason": spawnErr.Error()})
		return TellResult{Status: "queued", Err: spawnErr}, nil
	}

	if !await {
		go func() {
			if _, err := proc.Submit(context.Background(), content, timeout); err != nil {
				log.Printf("orchestrator: fire-and-forget tell to %s failed: %v", team, err)
			}
		}()
		return TellResult{Status: "queued", SessionID: sess.SessionID}, nil
	}

	if timeout == 0 {
		timeout = 60 * time.Second
	}
	reply, err := proc.Submit(ctx, content, timeout)
	if err != nil {
		o.publish(team, events.EventRequestCancelled, map[string]interface{}{"error": err.Error()})
		return TellResult{Status: "replied", SessionID: sess.SessionID, Err: err}, err
	}
	o.publish(team, events.EventRequestCompleted, map[string]interface{}{"fromTeam": fromTeam})
	return TellResult{Status: "replied", Reply: reply.Payload, SessionID: sess.SessionID}, nil
}

// QuickTell is fire-and-forget: it always returns once the message is
// queued, never waiting on a reply.
func (o *Orchestrator) QuickTell(ctx context.Context, fromTeam, team, content string) (TellResult, error) {
	return o.Tell(ctx, fromTeam, team, content, false, 0)
}

// Wake ensures team has a live ChildProcess, spawning one (without a
// payload) if needed.
func (o *Orchestrator) Wake(ctx context.Context, team, fromTeam string, clearCache bool) (TellResult, error) {
	if _, err := o.team(team); err != nil {
		return TellResult{}, err
	}

	if existing := o.pool.GetProcess(team); existing != nil {
		if clearCache {
			o.pool.ClearOutputCache(team)
		}
		return TellResult{Status: "awake"}, nil
	}

	sess, err := o.sessions.GetOrCreate(fromTeam, team)
	if err != nil {
		return TellResult{}, fmt.Errorf("orchestrator: resolve session: %w", err)
	}

	if _, err := o.pool.GetOrCreateProcess(ctx, team, sess.SessionID, fromTeam); err != nil {
		return TellResult{}, err
	}
	if clearCache {
		o.pool.ClearOutputCache(team)
	}
	o.publish(team, events.EventProcessSpawned, map[string]interface{}{"fromTeam": fromTeam})
	return TellResult{Status: "waking", SessionID: sess.SessionID}, nil
}

// Sleep terminates team's ChildProcess if live.
func (o *Orchestrator) Sleep(ctx context.Context, team string, force, clearCache bool) (TellResult, error) {
	if _, err := o.team(team); err != nil {
		return TellResult{}, err
	}

	if o.pool.GetProcess(team) == nil {
		return TellResult{Status: "already_asleep"}, nil
	}

	report, err := o.pool.TerminateProcess(ctx, team, force)
	if err != nil {
		return TellResult{}, fmt.Errorf("orchestrator: terminate %s: %w", team, err)
	}
	if clearCache {
		o.pool.ClearOutputCache(team)
	}
	o.publish(team, events.EventProcessTerminated, map[string]interface{}{
		"forced":       force,
		"lostMessages": report.LostMessages,
	})
	return TellResult{Status: "sleeping", LostMessages: report.LostMessages}, nil
}

// Cancel aborts requestID on team's ChildProcess (or the current
// inflight request if requestID is empty).
func (o *Orchestrator) Cancel(team, requestID string) error {
	if _, err := o.team(team); err != nil {
		return err
	}
	proc := o.pool.GetProcess(team)
	if proc == nil {
		return childprocess.ErrNotRunning
	}
	return proc.Cancel(requestID)
}

// Reboot is sleep(force=true) followed by wake.
func (o *Orchestrator) Reboot(ctx context.Context, team, fromTeam string) (TellResult, error) {
	if _, err := o.Sleep(ctx, team, true, true); err != nil {
		return TellResult{}, err
	}
	result, err := o.Wake(ctx, team, fromTeam, false)
	if err == nil {
		o.publish(team, events.EventProcessRebooted, map[string]interface{}{"trigger": events.RestartTriggerManual})
	}
	return result, err
}

// Delete sleeps team and invalidates every session directed at it.
// Notification history is preserved.
func (o *Orchestrator) Delete(ctx context.Context, team string) error {
	if _, err := o.team(team); err != nil {
		return err
	}
	if _, err := o.Sleep(ctx, team, true, true); err != nil {
		return err
	}
	if err := o.sessions.InvalidateTeam(team); err != nil {
		return err
	}
	o.publish(team, events.EventSessionInvalidated, nil)
	return nil
}

// Report returns team's current output cache snapshot without mutating
// anything.
func (o *Orchestrator) Report(team string) (outputcache.Entry, error) {
	if _, err := o.team(team); err != nil {
		return outputcache.Entry{}, err
	}
	cache := o.pool.GetOutputCache(team)
	if cache == nil {
		return outputcache.Entry{Team: team}, nil
	}
	return cache.Snapshot(), nil
}

// OutputCache returns team's live output cache, or nil if team has no
// running process. Exposed for the dashboard's read-only tail view; the
// orchestrator itself never mutates a cache it did not just clear.
func (o *Orchestrator) OutputCache(team string) *outputcache.Cache {
	return o.pool.GetOutputCache(team)
}

// NotificationHistory returns team's notification history, most recent
// first, capped at limit entries (0 means unlimited).
func (o *Orchestrator) NotificationHistory(team string, limit int) ([]notification.Notification, error) {
	if _, err := o.team(team); err != nil {
		return nil, err
	}
	return o.queue.GetHistory(team, limit)
}

// Teams returns the configured team names, for listing endpoints that
// need them without going through TeamsGetStatus's fuller document.
func (o *Orchestrator) Teams() []string {
	names := make([]string, 0, len(o.cfg.Teams))
	for name := range o.cfg.Teams {
		names = append(names, name)
	}
	return names
}

// TeamStatus is one team's entry in the teams_get_status document.
type TeamStatus struct {
	Team          string
	Metrics       *childprocess.Metrics
	Notifications *notification.Stats
}

// TeamsGetStatus returns the status document for one team, or every
// configured team when team is empty.
func (o *Orchestrator) TeamsGetStatus(team string, includeNotifications bool) ([]TeamStatus, error) {
	names := []string{team}
	if team == "" {
		names = names[:0]
		for name := range o.cfg.Teams {
			names = append(names, name)
		}
	} else if _, err := o.team(team); err != nil {
		return nil, err
	}

	result := make([]TeamStatus, 0, len(names))
	for _, name := range names {
		ts := TeamStatus{Team: name}
		if proc := o.pool.GetProcess(name); proc != nil {
			m := proc.GetMetrics()
			ts.Metrics = &m
		}
		if includeNotifications {
			stats := o.queue.GetStatsForTeam(name)
			ts.Notifications = &stats
		}
		result = append(result, ts)
	}
	return result, nil
}
