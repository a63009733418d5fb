// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package term provides an optional interactive pty attach to a team's
// working directory (§6 SPEC_FULL.md "enrichment"), trimmed from the
// teacher's tmux-backed multi-window terminal manager down to one pty
// per team: no window multiplexing, no persisted session list, no
// remote/ssh windows — just a shell the dashboard can attach a
// WebSocket to and detach from without killing it.
package term

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// Session is one team's live pty-backed shell.
type Session struct {
	Team string

	mu   sync.Mutex
	cmd  *exec.Cmd
	ptmx *os.File
}

// startSession launches shell (or the default login shell if empty) with
// cwd workdir and attaches a pty to it.
func startSession(team, workdir, shell string) (*Session, error) {
	if shell == "" {
		shell = defaultShell()
	}
	cmd := exec.Command(shell)
	cmd.Dir = workdir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("term: start pty for %s: %w", team, err)
	}
	return &Session{Team: team, cmd: cmd, ptmx: ptmx}, nil
}

func defaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}

// Read reads output produced by the shell.
func (s *Session) Read(p []byte) (int, error) {
	return s.ptmx.Read(p)
}

// Write sends input to the shell.
func (s *Session) Write(p []byte) (int, error) {
	return s.ptmx.Write(p)
}

// Resize updates the pty's window size.
func (s *Session) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	return pty.Setsize(s.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// Close terminates the shell and releases the pty.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ptyErr := s.ptmx.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	return ptyErr
}

// Alive reports whether the shell process is still running.
func (s *Session) Alive() bool {
	if s.cmd.ProcessState != nil {
		return false
	}
	return s.cmd.Process != nil
}

var _ io.ReadWriteCloser = (*Session)(nil)
