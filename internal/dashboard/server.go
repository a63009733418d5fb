// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package dashboard is a read-mostly HTTP/WebSocket mirror of the core
// (§6 SPEC_FULL.md): a status page over ProcessPool+OutputCache, a live
// WebSocket tail per team, and a read-only NotificationQueue history
// view. Its only write path is a thin proxy onto wake/sleep/cancel/tell —
// it introduces no mutation semantics the orchestrator doesn't already
// define.
package dashboard

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/groupsio/iris/internal/orchestrator"
	"github.com/groupsio/iris/internal/term"
)

// ServerConfig configures the dashboard's HTTP listener.
type ServerConfig struct {
	Host    string
	Port    int
	TLSCert string // path to TLS certificate; empty disables TLS
	TLSKey  string // path to TLS private key; empty disables TLS
}

// NewRouter builds the dashboard's mux.Router over orch, with interactive
// terminal attach disabled.
func NewRouter(orch *orchestrator.Orchestrator) *mux.Router {
	return NewRouterWithTerminal(orch, nil)
}

// NewRouterWithTerminal builds the dashboard's mux.Router over orch, with
// interactive pty attach (§6 "enrichment") enabled when terminals is
// non-nil.
func NewRouterWithTerminal(orch *orchestrator.Orchestrator, terminals *term.Manager) *mux.Router {
	r := mux.NewRouter()
	r.Use(Logging)
	r.Use(Recovery)
	r.Use(CORS)

	h := &Handlers{orch: orch, terminals: terminals}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/teams", h.ListTeams).Methods(http.MethodGet)
	api.HandleFunc("/teams/{team}", h.GetTeam).Methods(http.MethodGet)
	api.HandleFunc("/teams/{team}/report", h.GetReport).Methods(http.MethodGet)
	api.HandleFunc("/teams/{team}/notifications", h.GetNotifications).Methods(http.MethodGet)
	api.HandleFunc("/teams/{team}/output/ws", h.OutputWebSocket).Methods(http.MethodGet)
	api.HandleFunc("/teams/{team}/wake", h.Wake).Methods(http.MethodPost)
	api.HandleFunc("/teams/{team}/sleep", h.Sleep).Methods(http.MethodPost)
	api.HandleFunc("/teams/{team}/cancel", h.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/teams/{team}/tell", h.Tell).Methods(http.MethodPost)
	if terminals != nil {
		api.HandleFunc("/teams/{team}/terminal/ws", h.TerminalWebSocket).Methods(http.MethodGet)
	}

	return r
}

// Server owns the dashboard's HTTP listener lifecycle.
type Server struct {
	router *mux.Router
	cfg    ServerConfig
	server *http.Server
}

// NewServer builds a dashboard Server bound to orch.
func NewServer(cfg ServerConfig, orch *orchestrator.Orchestrator) *Server {
	return &Server{router: NewRouter(orch), cfg: cfg}
}

// NewServerWithTerminal builds a dashboard Server with interactive pty
// attach enabled.
func NewServerWithTerminal(cfg ServerConfig, orch *orchestrator.Orchestrator, terminals *term.Manager) *Server {
	return &Server{router: NewRouterWithTerminal(orch, terminals), cfg: cfg}
}

// Router returns the underlying mux.Router, mainly for tests that want to
// drive it directly with httptest.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ListenAndServe blocks serving the dashboard, over TLS if cfg.TLSCert and
// cfg.TLSKey are both set.
func (s *Server) ListenAndServe() error {
	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	s.server = &http.Server{Addr: addr, Handler: s.router}

	tlsEnabled, err := CheckTLSConfig(s.cfg.TLSCert, s.cfg.TLSKey)
	if err != nil {
		return fmt.Errorf("dashboard: TLS configuration: %w", err)
	}
	if tlsEnabled {
		certPath := expandPath(s.cfg.TLSCert)
		keyPath := expandPath(s.cfg.TLSKey)
		log.Printf("dashboard: listening on https://%s", addr)
		return s.server.ListenAndServeTLS(certPath, keyPath)
	}

	log.Printf("dashboard: listening on http://%s", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the dashboard's listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}
	log.Println("dashboard: shutting down")
	return s.server.Shutdown(shutdownCtx)
}
