// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// OutputWebSocket live-tails a team's output cache, pushing each newly
// appended stdout/stderr line as it arrives. It is read-only: the cache
// being tailed is the one orchestrator.Report() snapshots, never mutated
// from here.
func (h *Handlers) OutputWebSocket(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]

	cache := h.orch.OutputCache(team)
	if cache == nil {
		WriteError(w, http.StatusNotFound, ErrNotFound, "team has no live output cache")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	lines := cache.Subscribe()
	defer cache.Unsubscribe(lines)

	done := make(chan struct{})
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(54 * time.Second)
	defer pingTicker.Stop()

	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := conn.WriteJSON(line); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
