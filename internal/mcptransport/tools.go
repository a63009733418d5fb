// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package mcptransport

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("tell",
			mcp.WithDescription("Send content to a team's assistant and, by default, wait for its reply."),
			mcp.WithString("team", mcp.Required(), mcp.Description("The target team name")),
			mcp.WithString("content", mcp.Required(), mcp.Description("The message to deliver")),
			mcp.WithString("fromTeam", mcp.Description("The calling team, empty for an external caller")),
			mcp.WithBoolean("await", mcp.Description("Wait for a reply before returning (default true)")),
			mcp.WithNumber("timeoutMs", mcp.Description("Reply timeout in milliseconds (default 60000)")),
		),
		s.tellHandler(),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("quick_tell",
			mcp.WithDescription("Fire-and-forget: queue content for a team's assistant without waiting for a reply."),
			mcp.WithString("team", mcp.Required(), mcp.Description("The target team name")),
			mcp.WithString("content", mcp.Required(), mcp.Description("The message to deliver")),
			mcp.WithString("fromTeam", mcp.Description("The calling team, empty for an external caller")),
		),
		s.quickTellHandler(),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("wake",
			mcp.WithDescription("Ensure a team's assistant subprocess is running, spawning it if necessary."),
			mcp.WithString("team", mcp.Required(), mcp.Description("The team to wake")),
			mcp.WithString("fromTeam", mcp.Description("The calling team, used to resolve the session")),
			mcp.WithBoolean("clearCache", mcp.Description("Clear the output cache on wake (default true)")),
		),
		s.wakeHandler(),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("sleep",
			mcp.WithDescription("Terminate a team's assistant subprocess if it is running."),
			mcp.WithString("team", mcp.Required(), mcp.Description("The team to put to sleep")),
			mcp.WithBoolean("force", mcp.Description("Terminate even if requests are in flight, discarding them")),
			mcp.WithBoolean("clearCache", mcp.Description("Clear the output cache on sleep (default true)")),
		),
		s.sleepHandler(),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("cancel",
			mcp.WithDescription("Cancel a team's in-flight request, or a specific request by id."),
			mcp.WithString("team", mcp.Required(), mcp.Description("The team whose request to cancel")),
			mcp.WithString("requestId", mcp.Description("Specific request id; omit to cancel the current inflight request")),
		),
		s.cancelHandler(),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("reboot",
			mcp.WithDescription("Force-sleep then wake a team's assistant subprocess."),
			mcp.WithString("team", mcp.Required(), mcp.Description("The team to reboot")),
			mcp.WithString("fromTeam", mcp.Description("The calling team, used to resolve the session on wake")),
		),
		s.rebootHandler(),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete",
			mcp.WithDescription("Sleep a team and invalidate every session directed at it. Notification history is preserved."),
			mcp.WithString("team", mcp.Required(), mcp.Description("The team to delete")),
		),
		s.deleteHandler(),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("report",
			mcp.WithDescription("Return a team's current output cache snapshot without mutating anything."),
			mcp.WithString("team", mcp.Required(), mcp.Description("The team to report on")),
		),
		s.reportHandler(),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("teams_get_status",
			mcp.WithDescription("Return the status document for one team, or every configured team when omitted."),
			mcp.WithString("team", mcp.Description("The team to report on; omit for all teams")),
			mcp.WithBoolean("includeNotifications", mcp.Description("Include per-team notification stats (default true)")),
		),
		s.teamsGetStatusHandler(),
	)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) tellHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		team, err := req.RequireString("team")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		content, err := req.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fromTeam := req.GetString("fromTeam", "")
		await := req.GetBool("await", true)
		timeoutMs := req.GetFloat("timeoutMs", 0)

		result, err := s.orch.Tell(ctx, fromTeam, team, content, await, time.Duration(timeoutMs)*time.Millisecond)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func (s *Server) quickTellHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		team, err := req.RequireString("team")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		content, err := req.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fromTeam := req.GetString("fromTeam", "")

		result, err := s.orch.QuickTell(ctx, fromTeam, team, content)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func (s *Server) wakeHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		team, err := req.RequireString("team")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fromTeam := req.GetString("fromTeam", "")
		clearCache := req.GetBool("clearCache", true)

		result, err := s.orch.Wake(ctx, team, fromTeam, clearCache)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func (s *Server) sleepHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		team, err := req.RequireString("team")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		force := req.GetBool("force", false)
		clearCache := req.GetBool("clearCache", true)

		result, err := s.orch.Sleep(ctx, team, force, clearCache)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func (s *Server) cancelHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		team, err := req.RequireString("team")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		requestID := req.GetString("requestId", "")

		if err := s.orch.Cancel(team, requestID); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("ok"), nil
	}
}

func (s *Server) rebootHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		team, err := req.RequireString("team")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fromTeam := req.GetString("fromTeam", "")

		result, err := s.orch.Reboot(ctx, team, fromTeam)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func (s *Server) deleteHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		team, err := req.RequireString("team")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if err := s.orch.Delete(ctx, team); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("ok"), nil
	}
}

func (s *Server) reportHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		team, err := req.RequireString("team")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		entry, err := s.orch.Report(team)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(entry)
	}
}

func (s *Server) teamsGetStatusHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		team := req.GetString("team", "")
		includeNotifications := req.GetBool("includeNotifications", true)

		statuses, err := s.orch.TeamsGetStatus(team, includeNotifications)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(statuses)
	}
}
