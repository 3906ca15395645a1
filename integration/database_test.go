//go:build database

// Package integration contains integration tests for caldera.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags database ./integration
package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/ingest"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

const (
	testRunID  = "c7a2f9d4-0b1e-4e6a-9f3c-2d8b5a1e0c4f"
	testCommit = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

const layoutData = `{
	"files": {
		"src/main.go": {
			"id": "f-main", "path": "src/main.go", "name": "main.go",
			"parent_directory_id": "d-src"
		}
	},
	"directories": {
		"src": {"id": "d-src", "path": "src", "depth": 1}
	}
}`

const sccData = `{"files": [{"path": "src/main.go", "complexity": 4}]}`

func envelope(tool, data string) []byte {
	return []byte(fmt.Sprintf(`{
		"metadata": {
			"run_id": %q,
			"repo_id": "acme/widgets",
			"tool_name": %q,
			"commit": %q,
			"timestamp": "2026-03-14T09:30:00Z"
		},
		"data": %s
	}`, testRunID, tool, testCommit, data))
}

// startPostgres boots a throwaway postgres container and returns its
// connection string.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	time.Sleep(5 * time.Second)

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://postgres@%s:%s/postgres?sslmode=disable", host, port.Port())
}

// TestPostgresSweep runs a full collection sweep against a real
// postgres backend: migrate, ingest catalog and facts, replace.
func TestPostgresSweep(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	connStr := startPostgres(t)
	ctx := context.Background()

	session, err := database.Open(schema.PostgreSQLBackend, connStr, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	require.NoError(t, session.Migrate(-1))

	orch, err := ingest.NewOrchestrator(session)
	require.NoError(t, err)

	opts := ingest.Options{
		CollectionID: "pg-sweep-1",
		RepoID:       "acme/widgets",
		Branch:       "main",
		Commit:       testCommit,
	}
	c, err := orch.BeginCollection(ctx, opts)
	require.NoError(t, err)
	_, err = orch.IngestPayload(ctx, c, envelope("layout-scanner", layoutData))
	require.NoError(t, err)
	_, err = orch.IngestPayload(ctx, c, envelope("scc", sccData))
	require.NoError(t, err)
	require.NoError(t, orch.FinishCollection(ctx, c, nil))

	runs := repositories.NewRunRepository(session)
	status, err := runs.Status(ctx, repositories.FactTableNames())
	require.NoError(t, err)
	assert.Equal(t, int64(2), status.ToolRuns)
	assert.Equal(t, int64(1), status.CollectionRuns)

	var metricRows int
	require.NoError(t, session.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM lz_scc_file_metrics").Scan(&metricRows))
	assert.Equal(t, 1, metricRows)

	// Replace the collection and confirm the old facts are gone.
	opts.Replace = true
	c2, err := orch.BeginCollection(ctx, opts)
	require.NoError(t, err)
	_, err = orch.IngestPayload(ctx, c2, envelope("layout-scanner", layoutData))
	require.NoError(t, err)
	require.NoError(t, orch.FinishCollection(ctx, c2, nil))

	require.NoError(t, session.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM lz_scc_file_metrics").Scan(&metricRows))
	assert.Equal(t, 0, metricRows)

	rec, found, err := runs.FindCollectionRun(ctx, "pg-sweep-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.RunCompleted, rec.Status)
	assert.NotEqual(t, c.PK, rec.CollectionPK)
}

// TestPostgresMigrateRollback checks that migrations can be rolled
// back to the initial state.
func TestPostgresMigrateRollback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	connStr := startPostgres(t)

	session, err := database.Open(schema.PostgreSQLBackend, connStr, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	require.NoError(t, session.Migrate(-1))
	require.NoError(t, session.Migrate(0))

	var exists bool
	err = session.DB().QueryRow(
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'lz_tool_runs')").Scan(&exists)
	require.NoError(t, err)
	assert.False(t, exists)
}
