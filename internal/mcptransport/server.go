// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package mcptransport exposes the Orchestrator's verbs as an MCP
// (Model Context Protocol) stdio server. It owns no orchestrator state
// of its own — each tool handler calls straight into the Orchestrator
// and marshals the result back as the tool's JSON content — so the
// process/session/notification invariants hold regardless of which
// transport drives them (§6 SPEC_FULL.md).
package mcptransport

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/groupsio/iris/internal/orchestrator"
)

// Server wraps an MCP server bound to one Orchestrator.
type Server struct {
	orch      *orchestrator.Orchestrator
	mcpServer *server.MCPServer
}

// New builds the MCP server and registers all nine orchestrator verbs
// as tools. name/version identify this server to MCP clients.
func New(orch *orchestrator.Orchestrator, name, version string) *Server {
	s := &Server{
		orch: orch,
		mcpServer: server.NewMCPServer(
			name,
			version,
			server.WithToolCapabilities(true),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks serving MCP requests over stdin/stdout until ctx
// is cancelled or the transport errs out.
func (s *Server) ServeStdio(ctx context.Context) error {
	if err := server.ServeStdio(s.mcpServer, server.WithStdioContextFunc(func(context.Context) context.Context { return ctx })); err != nil {
		return fmt.Errorf("mcptransport: serve stdio: %w", err)
	}
	return nil
}
