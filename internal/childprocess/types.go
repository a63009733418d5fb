// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package childprocess adapts one OS child process into a reliable,
// ordered request/response endpoint: it owns the process handle, the
// framed-JSON stdio protocol, and the FIFO request queue for a single
// team's assistant subprocess.
package childprocess

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a ChildProcess.
type Status int

const (
	StatusStarting Status = iota
	StatusIdle
	StatusBusy
	StatusTerminating
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusIdle:
		return "idle"
	case StatusBusy:
		return "busy"
	case StatusTerminating:
		return "terminating"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the status as its string form.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Error taxonomy (§7 of the design spec). Each is a sentinel so callers
// can test with errors.Is; call sites wrap with fmt.Errorf("...: %w", ...)
// for context.
var (
	ErrTimeout           = errors.New("childprocess: timeout")
	ErrCancelled         = errors.New("childprocess: cancelled")
	ErrProcessTerminated = errors.New("childprocess: process terminated")
	ErrSpawnFailed       = errors.New("childprocess: spawn failed")
	ErrProtocol          = errors.New("childprocess: protocol error")
	ErrAlreadyRunning    = errors.New("childprocess: already running")
	ErrNotRunning        = errors.New("childprocess: not running")
)

// FrameKind classifies a parsed inbound frame.
type FrameKind string

const (
	FrameReply        FrameKind = "reply"
	FrameProgress     FrameKind = "progress"
	FrameUnstructured FrameKind = "unstructured"
)

// OutboundFrame is written to the child's stdin, one JSON object per line.
type OutboundFrame struct {
	ID        string `json:"id"`
	Type      string `json:"type"` // "request" | "interrupt"
	SessionID string `json:"sessionId"`
	FromTeam  string `json:"fromTeam,omitempty"`
	Payload   string `json:"payload"`
}

// InboundFrame is read from the child's stdout.
type InboundFrame struct {
	ID      string `json:"id"`
	Type    string `json:"type"` // "reply" | "progress"
	Payload string `json:"payload"`
	Error   string `json:"error,omitempty"`
}

// Reply is the result of a completed Request.
type Reply struct {
	Payload string
}

// CrashInfo is the result of classifying a child's final stderr/exit code,
// attached to ErrProcessTerminated and to Metrics so callers can tell a
// clean shutdown from a fault without parsing raw output.
type CrashInfo struct {
	Reason     CrashReason
	Details    string
	Location   string
	StackTrace []string
	ExitCode   int
}

// Summary renders a short human-readable description of the crash.
func (c *CrashInfo) Summary() string {
	if c == nil {
		return ""
	}
	s := c.Reason.String()
	if c.Details != "" {
		s += ": " + c.Details
	}
	if c.Location != "" {
		s += " at " + c.Location
	}
	return s
}

// Metrics is the live snapshot returned by GetMetrics.
type Metrics struct {
	Team           string
	PID            int
	SessionID      string
	Status         Status
	MessageCount   int
	SpawnedAt      time.Time
	LastActivityAt time.Time
	UptimeMs       int64
	BytesIn        int64
	BytesOut       int64
	LastCrash      *CrashInfo
}

// TerminationReport summarizes the result of a Terminate call.
type TerminationReport struct {
	Forced       bool
	LostMessages int
	ExitCode     int
	Crash        *CrashInfo
}
