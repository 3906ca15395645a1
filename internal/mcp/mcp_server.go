// Package mcp provides the Model Context Protocol (MCP) server exposing
// read-only queries over the landing zone.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
)

// NewMCPServer initializes and configures the landing zone MCP server
// without starting it. This is exposed for unit testing.
func NewMCPServer(session *database.Session) *server.MCPServer {
	s := server.NewMCPServer(
		"Caldera Landing Zone Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		runs: repositories.NewRunRepository(session),
	}

	s.AddTool(mcp.NewTool("list_tool_runs",
		mcp.WithDescription("List recent tool ingestion runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return. Defaults to 20.")),
	), h.handleListToolRuns)

	s.AddTool(mcp.NewTool("list_collection_runs",
		mcp.WithDescription("List recent collection runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of collections to return. Defaults to 20.")),
	), h.handleListCollectionRuns)

	s.AddTool(mcp.NewTool("collection_summary",
		mcp.WithDescription("Summarize one collection run: its status and the outcome of every tool payload ingested under it."),
		mcp.WithString("collection_id", mcp.Description("The collection identifier."), mcp.Required()),
	), h.handleCollectionSummary)

	s.AddTool(mcp.NewTool("landing_status",
		mcp.WithDescription("Report row counts for every landing table plus overall run totals."),
	), h.handleLandingStatus)

	return s
}

// StartMCPServer starts the landing zone MCP server on stdio.
func StartMCPServer(_ context.Context, session *database.Session) error {
	s := NewMCPServer(session)
	return server.ServeStdio(s)
}
