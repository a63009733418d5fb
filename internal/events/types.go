// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package events provides the in-memory event bus the Orchestrator
// publishes process, request, session, and notification lifecycle events
// on, with pattern-matched subscriptions and a bounded, aged history.
package events

import (
	"context"
	"time"
)

// Event represents an immutable event record.
type Event struct {
	ID        string                 `json:"id"`
	Version   string                 `json:"version"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Team      string                 `json:"team"`
	Payload   map[string]interface{} `json:"payload"`
}

// EventHandler processes received events.
type EventHandler func(ctx context.Context, event Event) error

// SubscriptionID uniquely identifies a subscription.
type SubscriptionID string

// EventFilter for querying event history.
type EventFilter struct {
	Types []string  // Event types to match (supports wildcards)
	Team  string    // Filter by team
	Since time.Time // Events after this time
	Until time.Time // Events before this time
	Limit int       // Maximum events to return
}

// EventBus is the core event pub/sub system.
type EventBus interface {
	// Publish emits an event to all matching subscribers.
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a synchronous handler for events matching pattern.
	Subscribe(pattern string, handler EventHandler) (SubscriptionID, error)

	// SubscribeAsync registers an async handler with buffered channel.
	SubscribeAsync(pattern string, handler EventHandler, bufferSize int) (SubscriptionID, error)

	// Unsubscribe removes a subscription.
	Unsubscribe(id SubscriptionID) error

	// History retrieves past events matching filter.
	History(filter EventFilter) ([]Event, error)

	// SetDefaultTeam sets the default team for events that don't specify one.
	SetDefaultTeam(team string)

	// Close shuts down the event bus gracefully.
	Close() error
}

// Common event types. The Orchestrator publishes process.spawned,
// process.terminated, process.rebooted, request.completed,
// request.cancelled, session.invalidated and notification.enqueued; the
// other types are defined here but no component publishes them.
const (
	// Process lifecycle events.
	EventProcessSpawned    = "process.spawned"
	EventProcessTerminated = "process.terminated"
	EventProcessCrashed    = "process.crashed"
	EventProcessRebooted   = "process.rebooted"

	// Request events.
	EventRequestQueued    = "request.queued"
	EventRequestStarted   = "request.started"
	EventRequestCompleted = "request.completed"
	EventRequestCancelled = "request.cancelled"
	EventRequestTimedOut  = "request.timed_out"

	// Session events.
	EventSessionCreated     = "session.created"
	EventSessionInvalidated = "session.invalidated"

	// Notification events.
	EventNotificationEnqueued = "notification.enqueued"
	EventNotificationRead     = "notification.read"
	EventNotificationExpired  = "notification.expired"
)

// RestartTrigger indicates why a process was restarted.
type RestartTrigger string

const (
	RestartTriggerManual  RestartTrigger = "manual"
	RestartTriggerReboot  RestartTrigger = "reboot"
	RestartTriggerCrash   RestartTrigger = "crash"
	RestartTriggerIdleOut RestartTrigger = "idle_timeout"
)
