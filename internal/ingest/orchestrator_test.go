package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

const (
	testRunID  = "c7a2f9d4-0b1e-4e6a-9f3c-2d8b5a1e0c4f"
	testCommit = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *database.Session) {
	t.Helper()
	session, err := database.Open(schema.SQLiteBackend, ":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	require.NoError(t, session.Migrate(-1))

	orch, err := NewOrchestrator(session)
	require.NoError(t, err)
	return orch, session
}

func testOptions() Options {
	return Options{
		CollectionID: "sweep-2026-03-14",
		RepoID:       "acme/widgets",
		Branch:       "main",
		Commit:       testCommit,
	}
}

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

func countRows(t *testing.T, session *database.Session, table string) int {
	t.Helper()
	var n int
	err := session.DB().QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestCollectionSweep(t *testing.T) {
	orch, session := newTestOrchestrator(t)
	ctx := context.Background()

	c, err := orch.BeginCollection(ctx, testOptions())
	require.NoError(t, err)

	_, err = orch.IngestPayload(ctx, c, envelope("layout-scanner", layoutData))
	require.NoError(t, err)
	_, err = orch.IngestPayload(ctx, c, envelope("scc", sccData))
	require.NoError(t, err)
	require.NoError(t, orch.FinishCollection(ctx, c, nil))

	rec, found, err := orch.runs.FindCollectionRun(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.RunCompleted, rec.Status)
	assert.NotNil(t, rec.EndedAt)
	assert.Equal(t, 1, countRows(t, session, "lz_scc_file_metrics"))
	assert.Equal(t, 2, countRows(t, session, "lz_tool_runs"))
}

func TestBeginCollectionRejectsDuplicate(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	c, err := orch.BeginCollection(ctx, testOptions())
	require.NoError(t, err)
	require.NoError(t, orch.FinishCollection(ctx, c, nil))

	_, err = orch.BeginCollection(ctx, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--replace")
}

func TestBeginCollectionRejectsCoveredCommit(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	c, err := orch.BeginCollection(ctx, testOptions())
	require.NoError(t, err)
	require.NoError(t, orch.FinishCollection(ctx, c, nil))

	// A fresh collection id does not make the same commit ingestable twice.
	opts := testOptions()
	opts.CollectionID = "sweep-2026-03-15"
	_, err = orch.BeginCollection(ctx, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already covered by collection")
	assert.Contains(t, err.Error(), c.ID)
}

func TestReplaceClearsPreviousFacts(t *testing.T) {
	orch, session := newTestOrchestrator(t)
	ctx := context.Background()

	c, err := orch.BeginCollection(ctx, testOptions())
	require.NoError(t, err)
	_, err = orch.IngestPayload(ctx, c, envelope("layout-scanner", layoutData))
	require.NoError(t, err)
	_, err = orch.IngestPayload(ctx, c, envelope("scc", sccData))
	require.NoError(t, err)
	require.NoError(t, orch.FinishCollection(ctx, c, nil))

	opts := testOptions()
	opts.Replace = true
	replacement, err := orch.BeginCollection(ctx, opts)
	require.NoError(t, err)
	assert.NotEqual(t, c.PK, replacement.PK)

	assert.Equal(t, 0, countRows(t, session, "lz_scc_file_metrics"))
	assert.Equal(t, 0, countRows(t, session, "lz_layout_files"))
	assert.Equal(t, 0, countRows(t, session, "lz_tool_runs"))
	assert.Equal(t, 1, countRows(t, session, "lz_collection_runs"))
}

func TestIngestDirOrdersCatalogFirst(t *testing.T) {
	orch, session := newTestOrchestrator(t)
	ctx := context.Background()

	dir := t.TempDir()
	// Named so plain file ordering would run the metrics payload first.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a-scc.json"), envelope("scc", sccData), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z-layout.json"), envelope("layout-scanner", layoutData), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	c, err := orch.BeginCollection(ctx, testOptions())
	require.NoError(t, err)
	require.NoError(t, orch.IngestDir(ctx, c, dir))
	require.NoError(t, orch.FinishCollection(ctx, c, nil))

	assert.Equal(t, 1, countRows(t, session, "lz_scc_file_metrics"))
}

func TestIngestDirReportsFailures(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "layout.json"), envelope("layout-scanner", layoutData), 0o644))
	bad := envelope("scc", `{"files": [{"path": "src/main.go", "lines_total": -1}]}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scc.json"), bad, 0o644))

	c, err := orch.BeginCollection(ctx, testOptions())
	require.NoError(t, err)
	err = orch.IngestDir(ctx, c, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scc.json")

	require.NoError(t, orch.FinishCollection(ctx, c, err))
	rec, found, ferr := orch.runs.FindCollectionRun(ctx, c.ID)
	require.NoError(t, ferr)
	require.True(t, found)
	assert.Equal(t, schema.RunFailed, rec.Status)
	require.NotNil(t, rec.ErrorMessage)
}

func TestResolveHead(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	path := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(path, []byte("widgets\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	head, err := ResolveHead(dir)
	require.NoError(t, err)
	assert.Equal(t, hash.String(), head.Commit)
	assert.Equal(t, "master", head.Branch)
}

func TestResolveHeadNotARepo(t *testing.T) {
	_, err := ResolveHead(t.TempDir())
	require.Error(t, err)
}
