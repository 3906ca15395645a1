package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

const defaultListLimit = 20

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	runs *repositories.RunRepository
}

// collectionSummary is the response shape of the collection_summary tool.
type collectionSummary struct {
	Collection schema.CollectionRunRecord `json:"collection"`
	ToolRuns   []schema.ToolRunRecord     `json:"tool_runs"`
	Completed  int                        `json:"completed"`
	Failed     int                        `json:"failed"`
}

func (h *toolHandler) handleListToolRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", defaultListLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	records, err := h.runs.ListToolRuns(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list tool runs: %v", err)), nil
	}
	return jsonResult(records)
}

func (h *toolHandler) handleListCollectionRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", defaultListLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	records, err := h.runs.ListCollectionRuns(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list collection runs: %v", err)), nil
	}
	return jsonResult(records)
}

func (h *toolHandler) handleCollectionSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collectionID, err := request.RequireString("collection_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	collection, found, err := h.runs.FindCollectionRun(ctx, collectionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load collection: %v", err)), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("no collection %q", collectionID)), nil
	}

	toolRuns, err := h.runs.ListToolRunsByCollection(ctx, collection.CollectionPK)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs of collection: %v", err)), nil
	}

	summary := collectionSummary{Collection: collection, ToolRuns: toolRuns}
	for _, run := range toolRuns {
		switch run.Status {
		case schema.RunCompleted:
			summary.Completed++
		case schema.RunFailed:
			summary.Failed++
		}
	}
	return jsonResult(summary)
}

func (h *toolHandler) handleLandingStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.runs.Status(ctx, repositories.FactTableNames())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to collect status: %v", err)), nil
	}
	return jsonResult(status)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
