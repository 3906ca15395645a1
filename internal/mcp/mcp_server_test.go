package mcp_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	mcp_internal "github.com/alexander-stage-hoco/caldera-sot/internal/mcp"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

const (
	testRunID  = "c7a2f9d4-0b1e-4e6a-9f3c-2d8b5a1e0c4f"
	testCommit = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

func openTestSession(t *testing.T) *database.Session {
	t.Helper()
	session, err := database.Open(schema.SQLiteBackend, ":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	require.NoError(t, session.Migrate(-1))
	return session
}

func seedCollection(t *testing.T, session *database.Session) {
	t.Helper()
	ctx := context.Background()
	runs := repositories.NewRunRepository(session)

	now := time.Now().UTC()
	require.NoError(t, runs.InsertCollectionRun(ctx, &entities.CollectionRun{
		CollectionPK: 1,
		CollectionID: "sweep-2026-03-14",
		RepoID:       "caldera",
		Commit:       testCommit,
		StartedAt:    now,
		Status:       string(schema.RunRunning),
	}))

	for i, status := range []schema.RunStatus{schema.RunCompleted, schema.RunCompleted, schema.RunFailed} {
		collectionPK := int64(1)
		schemaVersion := "1.0.0"
		require.NoError(t, runs.InsertToolRun(ctx, &entities.ToolRun{
			RunPK:           int64(i + 2),
			RunID:           testRunID,
			RepoID:          "caldera",
			ToolName:        "scc",
			SchemaVersion:   &schemaVersion,
			Commit:          testCommit,
			CapturedAt:      now,
			Status:          string(status),
			CollectionRunPK: &collectionPK,
		}))
	}
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "handler failures should be reported as tool errors, not raw errors")
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestMCPCollectionSummary(t *testing.T) {
	session := openTestSession(t)
	seedCollection(t, session)
	s := mcp_internal.NewMCPServer(session)

	res := callTool(t, s, "collection_summary", map[string]any{
		"collection_id": "sweep-2026-03-14",
	})
	assert.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, `"completed": 2`)
	assert.Contains(t, text, `"failed": 1`)
	assert.Contains(t, text, "sweep-2026-03-14")
}

func TestMCPCollectionSummaryUnknown(t *testing.T) {
	session := openTestSession(t)
	s := mcp_internal.NewMCPServer(session)

	res := callTool(t, s, "collection_summary", map[string]any{
		"collection_id": "no-such-sweep",
	})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "no collection")
}

func TestMCPCollectionSummaryMissingID(t *testing.T) {
	session := openTestSession(t)
	s := mcp_internal.NewMCPServer(session)

	res := callTool(t, s, "collection_summary", map[string]any{})
	assert.True(t, res.IsError)
}

func TestMCPListRuns(t *testing.T) {
	session := openTestSession(t)
	seedCollection(t, session)
	s := mcp_internal.NewMCPServer(session)

	res := callTool(t, s, "list_tool_runs", map[string]any{"limit": 2.0})
	assert.False(t, res.IsError)
	assert.Equal(t, 2, strings.Count(resultText(t, res), testRunID))

	res = callTool(t, s, "list_collection_runs", nil)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "sweep-2026-03-14")

	res = callTool(t, s, "list_tool_runs", map[string]any{"limit": -1.0})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "limit must be positive")
}

func TestMCPLandingStatus(t *testing.T) {
	session := openTestSession(t)
	seedCollection(t, session)
	s := mcp_internal.NewMCPServer(session)

	res := callTool(t, s, "landing_status", nil)
	assert.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, `"tool_runs": 3`)
	assert.Contains(t, text, `"collection_runs": 1`)
}
