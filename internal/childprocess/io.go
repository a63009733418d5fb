// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package childprocess

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// request is one queued or inflight Submit call.
type request struct {
	id        string
	payload   string
	createdAt time.Time

	once     sync.Once
	resultCh chan result
}

type result struct {
	reply Reply
	err   error
}

func newRequest(payload string) *request {
	return &request{
		id:        uuid.NewString(),
		payload:   payload,
		createdAt: time.Now(),
		resultCh:  make(chan result, 1),
	}
}

// complete delivers a result exactly once; later calls are no-ops, which
// keeps cancellation and readLoop completion races from double-sending on
// resultCh.
func (r *request) complete(reply Reply, err error) {
	r.once.Do(func() {
		r.resultCh <- result{reply: reply, err: err}
	})
}

// Submit enqueues payload and blocks until the child replies, the request
// is cancelled via ctx, or timeout elapses (zero means no deadline).
// Requests for one team are served strictly FIFO: at most one is inflight
// at a time, mirroring the teacher's single-session Claude CLI invariant
// that a process only ever has one live turn in flight.
func (c *ChildProcess) Submit(ctx context.Context, payload string, timeout time.Duration) (Reply, error) {
	c.mu.Lock()
	if c.state == StatusStopped || c.state == StatusTerminating {
		c.mu.Unlock()
		return Reply{}, ErrNotRunning
	}
	// The first submitted request is itself the readiness signal this
	// transport has no ready-frame for (§4.1 SPEC_FULL.md): it promotes a
	// still-starting process to idle immediately rather than waiting out
	// the rest of sessionInitTimeout.
	if c.state == StatusStarting {
		c.state = StatusIdle
		if c.initTimer != nil {
			c.initTimer.Stop()
		}
	}
	req := newRequest(payload)
	c.queue = append(c.queue, req)
	dispatch := c.dispatchLocked()
	c.mu.Unlock()

	if dispatch != nil {
		c.send(dispatch)
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case res := <-req.resultCh:
		return res.reply, res.err
	case <-ctx.Done():
		c.cancelWithErr(req.id, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err()))
		res := <-req.resultCh
		return res.reply, res.err
	case <-timeoutCh:
		c.cancelWithErr(req.id, ErrTimeout)
		res := <-req.resultCh
		return res.reply, res.err
	}
}

// dispatchLocked pops the next queued request and marks it inflight, iff
// the process is idle and nothing else is already running. Caller must
// hold c.mu; the returned request (if any) must be sent with c.send after
// unlocking.
func (c *ChildProcess) dispatchLocked() *request {
	if c.inflight != nil || len(c.queue) == 0 || c.state != StatusIdle {
		return nil
	}
	req := c.queue[0]
	c.queue = c.queue[1:]
	c.inflight = req
	c.state = StatusBusy
	return req
}

// send writes req as a framed OutboundFrame to the child's stdin.
func (c *ChildProcess) send(req *request) {
	c.mu.Lock()
	sessionID := c.sessionID
	fromTeam := c.fromTeam
	stdin := c.stdin
	c.mu.Unlock()

	if stdin == nil {
		c.completeRequest(req.id, Reply{}, ErrNotRunning)
		return
	}

	frame := OutboundFrame{ID: req.id, Type: "request", SessionID: sessionID, FromTeam: fromTeam, Payload: req.payload}
	data, err := json.Marshal(frame)
	if err != nil {
		c.completeRequest(req.id, Reply{}, fmt.Errorf("%w: encode: %v", ErrProtocol, err))
		return
	}
	data = append(data, '\n')

	c.stdinMu.Lock()
	_, werr := stdin.Write(data)
	c.stdinMu.Unlock()
	if werr != nil {
		c.completeRequest(req.id, Reply{}, fmt.Errorf("%w: write: %v", ErrNotRunning, werr))
		return
	}

	c.mu.Lock()
	c.bytesOut += int64(len(data))
	c.lastActivityAt = time.Now()
	c.mu.Unlock()
}

// sendInterrupt asks the child to abandon its current turn. The child is
// expected to reply (with an error payload or not at all); if it doesn't
// respond within defaultCancelGrace, Cancel kills the whole process.
func (c *ChildProcess) sendInterrupt(requestID string) {
	c.mu.Lock()
	stdin := c.stdin
	c.mu.Unlock()
	if stdin == nil {
		return
	}
	frame := OutboundFrame{ID: requestID, Type: "interrupt"}
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	data = append(data, '\n')
	c.stdinMu.Lock()
	stdin.Write(data)
	c.stdinMu.Unlock()
}

// readLoop consumes framed JSON from the child's stdout, completing
// requests on reply frames. Every stdout line is also recorded in the
// output cache for observability: progress frames as their payload,
// everything else verbatim.
func (c *ChildProcess) readLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineLen)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		c.mu.Lock()
		c.bytesIn += int64(len(line))
		c.lastActivityAt = time.Now()
		c.mu.Unlock()

		var frame InboundFrame
		if err := json.Unmarshal([]byte(line), &frame); err != nil {
			c.cache.Append("stdout", line)
			continue
		}

		switch FrameKind(frame.Type) {
		case FrameReply:
			c.cache.Append("stdout", line)
			var replyErr error
			if frame.Error != "" {
				replyErr = fmt.Errorf("%w: %s", ErrProtocol, frame.Error)
			}
			c.completeRequest(frame.ID, Reply{Payload: frame.Payload}, replyErr)
		case FrameProgress:
			c.cache.Append("stdout", frame.Payload)
		default:
			c.cache.Append("stdout", line)
		}
	}
}

// completeRequest resolves the request matching id, whether it is
// currently inflight or (for defensiveness) still queued, and dispatches
// the next queued request if the process just went idle.
func (c *ChildProcess) completeRequest(id string, reply Reply, err error) {
	c.mu.Lock()
	var matched *request
	if c.inflight != nil && c.inflight.id == id {
		matched = c.inflight
		c.inflight = nil
		c.messageCount++
		if c.state == StatusBusy {
			c.state = StatusIdle
		}
	} else {
		for i, r := range c.queue {
			if r.id == id {
				matched = r
				c.queue = append(c.queue[:i], c.queue[i+1:]...)
				break
			}
		}
	}
	next := c.dispatchLocked()
	c.mu.Unlock()

	if matched == nil {
		log.Printf("childprocess[%s]: reply for unknown request %s", c.team, id)
		return
	}
	matched.complete(reply, err)

	if next != nil {
		c.send(next)
	}
}

// Cancel aborts requestID. An empty requestID cancels whatever is
// currently inflight. Cancelling a queued request simply removes it;
// cancelling the inflight request sends an interrupt frame and escalates
// to killing the process if the child doesn't respond promptly.
func (c *ChildProcess) Cancel(requestID string) error {
	return c.cancelWithErr(requestID, ErrCancelled)
}

func (c *ChildProcess) cancelWithErr(requestID string, cancelErr error) error {
	c.mu.Lock()
	if requestID == "" {
		if c.inflight == nil {
			c.mu.Unlock()
			return nil
		}
		requestID = c.inflight.id
	}

	for i, r := range c.queue {
		if r.id == requestID {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			c.mu.Unlock()
			r.complete(Reply{}, cancelErr)
			return nil
		}
	}

	if c.inflight == nil || c.inflight.id != requestID {
		c.mu.Unlock()
		return nil
	}
	inflight := c.inflight
	c.mu.Unlock()

	c.sendInterrupt(requestID)
	inflight.complete(Reply{}, cancelErr)
	go c.killIfStillInflight(requestID)
	return nil
}

// killIfStillInflight is the escalation half of Cancel: if the child
// hasn't freed itself up by replying or erroring within the grace window,
// the whole process is killed and onExit deregisters it, so a fresh one
// is spawned on the next tell.
func (c *ChildProcess) killIfStillInflight(requestID string) {
	time.Sleep(defaultCancelGrace)

	c.mu.Lock()
	stillStuck := c.inflight != nil && c.inflight.id == requestID
	c.mu.Unlock()
	if !stillStuck {
		return
	}

	log.Printf("childprocess[%s]: request %s did not yield after interrupt, killing process", c.team, requestID)
	ctx, cancel := context.WithTimeout(context.Background(), defaultGraceTimeout)
	defer cancel()
	report, _ := c.Terminate(ctx, true)
	if c.onExit != nil {
		c.onExit(c.team, report.Crash)
	}
}
