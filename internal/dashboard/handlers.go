// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/groupsio/iris/internal/orchestrator"
	"github.com/groupsio/iris/internal/term"
)

// Handlers mirrors the read side of the orchestrator (team status, output,
// notification history) and proxies its four mutating verbs. terminals is
// nil unless interactive pty attach (§6 "enrichment") was wired in via
// NewRouterWithTerminal.
type Handlers struct {
	orch      *orchestrator.Orchestrator
	terminals *term.Manager
}

// NewHandlers builds the dashboard's HTTP handlers over orch, with no
// interactive terminal support.
func NewHandlers(orch *orchestrator.Orchestrator) *Handlers {
	return &Handlers{orch: orch}
}

func writeOrchestratorError(w http.ResponseWriter, err error) {
	if errors.Is(err, orchestrator.ErrUnknownTeam) {
		WriteError(w, http.StatusNotFound, ErrUnknownTeam, err.Error())
		return
	}
	WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
}

// ListTeams returns the status document for every configured team.
func (h *Handlers) ListTeams(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.orch.TeamsGetStatus("", true)
	if err != nil {
		writeOrchestratorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, statuses)
}

// GetTeam returns one team's status document.
func (h *Handlers) GetTeam(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]
	statuses, err := h.orch.TeamsGetStatus(team, true)
	if err != nil {
		writeOrchestratorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, statuses[0])
}

// GetReport returns a team's current output cache snapshot.
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]
	entry, err := h.orch.Report(team)
	if err != nil {
		writeOrchestratorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, entry)
}

// GetNotifications returns a team's notification history, most recent
// first, optionally capped via ?limit=.
func (h *Handlers) GetNotifications(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	history, err := h.orch.NotificationHistory(team, limit)
	if err != nil {
		writeOrchestratorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, history)
}

type wakeRequest struct {
	FromTeam   string `json:"fromTeam"`
	ClearCache *bool  `json:"clearCache"`
}

// Wake proxies orchestrator.Wake. It introduces no mutation semantics of
// its own (§6 SPEC_FULL.md): the same verb the MCP transport exposes.
func (h *Handlers) Wake(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]
	var req wakeRequest
	clearCache := true
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ClearCache != nil {
			clearCache = *req.ClearCache
		}
	}

	result, err := h.orch.Wake(r.Context(), team, req.FromTeam, clearCache)
	if err != nil {
		writeOrchestratorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

type sleepRequest struct {
	Force      bool  `json:"force"`
	ClearCache *bool `json:"clearCache"`
}

// Sleep proxies orchestrator.Sleep.
func (h *Handlers) Sleep(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]
	var req sleepRequest
	clearCache := true
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ClearCache != nil {
			clearCache = *req.ClearCache
		}
	}

	result, err := h.orch.Sleep(r.Context(), team, req.Force, clearCache)
	if err != nil {
		writeOrchestratorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

type cancelRequest struct {
	RequestID string `json:"requestId"`
}

// Cancel proxies orchestrator.Cancel.
func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]
	var req cancelRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.orch.Cancel(team, req.RequestID); err != nil {
		writeOrchestratorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type tellRequest struct {
	Content   string `json:"content"`
	FromTeam  string `json:"fromTeam"`
	Await     *bool  `json:"await"`
	TimeoutMs int64  `json:"timeoutMs"`
}

// Tell proxies orchestrator.Tell.
func (h *Handlers) Tell(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]
	var req tellRequest
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "missing request body")
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, err.Error())
		return
	}
	await := true
	if req.Await != nil {
		await = *req.Await
	}

	result, err := h.orch.Tell(r.Context(), req.FromTeam, team, req.Content, await, time.Duration(req.TimeoutMs)*time.Millisecond)
	if err != nil {
		writeOrchestratorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
