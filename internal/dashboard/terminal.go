// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// terminalMessage mirrors the frontend's input/resize protocol.
type terminalMessage struct {
	Type string `json:"type"`
	Data string `json:"data"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

// TerminalWebSocket attaches an interactive pty session for a team (§6
// "enrichment"). The shell starts in the directory named by the workdir
// query parameter, or in the server's own working directory when it is
// absent; the team's configured path is not used. Only registered when the
// dashboard was built with a *term.Manager; see NewRouterWithTerminal.
func (h *Handlers) TerminalWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.terminals == nil {
		WriteError(w, http.StatusNotFound, ErrNotFound, "interactive terminal is not enabled")
		return
	}

	team := mux.Vars(r)["team"]
	if _, err := h.orch.TeamsGetStatus(team, false); err != nil {
		writeOrchestratorError(w, err)
		return
	}

	sess, err := h.terminals.EnsureSession(team, r.URL.Query().Get("workdir"), "")
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	const pongWait = 60 * time.Second
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 4096)
		for {
			n, err := sess.Read(buf)
			if err != nil {
				return
			}
			if n > 0 {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(strings.ToValidUTF8(string(buf[:n]), ""))); err != nil {
					return
				}
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}

		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg terminalMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "input":
			sess.Write([]byte(msg.Data))
		case "resize":
			sess.Resize(msg.Cols, msg.Rows)
		}
	}
}
