// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupsio/iris/internal/config"
	"github.com/groupsio/iris/internal/events"
	"github.com/groupsio/iris/internal/notification"
	"github.com/groupsio/iris/internal/orchestrator"
	"github.com/groupsio/iris/internal/pool"
	"github.com/groupsio/iris/internal/session"
)

const echoServerScript = `
while IFS= read -r line; do
  id=$(echo "$line" | sed -n 's/.*"id":"\([^"]*\)".*/\1/p')
  payload=$(echo "$line" | sed -n 's/.*"payload":"\([^"]*\)".*/\1/p')
  echo "{\"id\":\"$id\",\"type\":\"reply\",\"payload\":\"echo:$payload\"}"
done
`

func newTestOrchestrator(t *testing.T, teams []string) *orchestrator.Orchestrator {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		Settings: config.SettingsConfig{
			IdleTimeout:         "1h",
			MaxProcesses:        10,
			HealthCheckInterval: "30s",
			AssistantCommand:    []string{"sh", "-c", echoServerScript},
		},
		Teams: make(map[string]config.TeamConfig),
	}
	for _, name := range teams {
		cfg.Teams[name] = config.TeamConfig{Path: "/tmp"}
	}

	sessions, err := session.NewManager(filepath.Join(dir, "sessions.json"))
	require.NoError(t, err)
	queue, err := notification.NewQueue(filepath.Join(dir, "notifications.json"))
	require.NoError(t, err)
	p := pool.New(pool.Config{
		MaxProcesses:        10,
		HealthCheckInterval: time.Hour,
		SpawnConfig:         orchestrator.SpawnConfigFromTeam(cfg),
		IdleTimeout:         orchestrator.IdleTimeoutFromTeam(cfg),
	})
	t.Cleanup(func() {
		p.Close()
		p.TerminateAll(context.Background())
	})
	bus := events.NewMemoryEventBus(events.MemoryBusConfig{HistoryMaxEvents: 100, HistoryMaxAge: time.Hour})
	t.Cleanup(func() { bus.Close() })

	return orchestrator.New(cfg, sessions, p, queue, bus)
}

func doRequest(r *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDashboard_ListTeams(t *testing.T) {
	r := NewRouter(newTestOrchestrator(t, []string{"alpha", "beta"}))

	rec := doRequest(r, http.MethodGet, "/api/v1/teams", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alpha")
	assert.Contains(t, rec.Body.String(), "beta")
}

func TestDashboard_GetTeam_UnknownReturns404(t *testing.T) {
	r := NewRouter(newTestOrchestrator(t, []string{"alpha"}))

	rec := doRequest(r, http.MethodGet, "/api/v1/teams/ghost", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrUnknownTeam)
}

func TestDashboard_WakeThenSleep(t *testing.T) {
	r := NewRouter(newTestOrchestrator(t, []string{"alpha"}))

	wakeRec := doRequest(r, http.MethodPost, "/api/v1/teams/alpha/wake", nil)
	assert.Equal(t, http.StatusOK, wakeRec.Code)
	assert.Contains(t, wakeRec.Body.String(), "waking")

	sleepRec := doRequest(r, http.MethodPost, "/api/v1/teams/alpha/sleep", sleepRequest{Force: true})
	assert.Equal(t, http.StatusOK, sleepRec.Code)
	assert.Contains(t, sleepRec.Body.String(), "sleeping")
}

func TestDashboard_TellRoundTrip(t *testing.T) {
	r := NewRouter(newTestOrchestrator(t, []string{"alpha"}))

	rec := doRequest(r, http.MethodPost, "/api/v1/teams/alpha/tell", tellRequest{Content: "ping"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echo:ping")
}

func TestDashboard_Notifications_AfterAwaitedTell(t *testing.T) {
	orch := newTestOrchestrator(t, []string{"alpha"})
	r := NewRouter(orch)

	// An awaited tell that succeeds enqueues no fallback notification; the
	// history endpoint still answers for the known team.
	_, err := orch.Tell(context.Background(), "caller", "alpha", "hi", true, 2*time.Second)
	require.NoError(t, err)

	rec := doRequest(r, http.MethodGet, "/api/v1/teams/alpha/notifications", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboard_CORSHeadersOnAPIRoutes(t *testing.T) {
	r := NewRouter(newTestOrchestrator(t, []string{"alpha"}))

	rec := doRequest(r, http.MethodGet, "/api/v1/teams", nil)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
