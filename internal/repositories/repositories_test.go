package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/internal/validation"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

func openTestSession(t *testing.T) *database.Session {
	t.Helper()
	session, err := database.Open(schema.SQLiteBackend, ":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	require.NoError(t, session.Migrate(-1))
	return session
}

func ensureTables(t *testing.T, session *database.Session, specs ...schema.TableSpec) {
	t.Helper()
	manager := validation.NewTableManager(session)
	for _, spec := range specs {
		require.NoError(t, manager.Ensure(context.Background(), spec))
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int64) *int64   { return &i }
func boolPtr(b bool) *bool    { return &b }

const testCommit = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func newToolRun(runPK int64, tool string) *entities.ToolRun {
	return &entities.ToolRun{
		RunPK:      runPK,
		RunID:      "c7a2f9d4-0b1e-4e6a-9f3c-2d8b5a1e0c4f",
		RepoID:     "acme/widgets",
		ToolName:   tool,
		Commit:     testCommit,
		CapturedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Status:     string(schema.RunRunning),
	}
}

func TestAllocatePKIsMonotonic(t *testing.T) {
	session := openTestSession(t)
	runs := NewRunRepository(session)
	ctx := context.Background()

	first, err := runs.AllocatePK(ctx)
	require.NoError(t, err)
	second, err := runs.AllocatePK(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

func TestToolRunLifecycle(t *testing.T) {
	session := openTestSession(t)
	runs := NewRunRepository(session)
	ctx := context.Background()

	pk, err := runs.AllocatePK(ctx)
	require.NoError(t, err)
	require.NoError(t, runs.InsertToolRun(ctx, newToolRun(pk, "scc")))

	rec, found, err := runs.GetToolRun(ctx, pk)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.RunRunning, rec.Status)
	assert.Equal(t, "scc", rec.ToolName)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC), rec.CapturedAt.UTC())

	require.NoError(t, runs.MarkToolRun(ctx, pk, schema.RunCompleted, nil))
	rec, found, err = runs.GetToolRun(ctx, pk)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.RunCompleted, rec.Status)
	assert.Nil(t, rec.ErrorMessage)
}

func TestInsertToolRunDuplicateRejected(t *testing.T) {
	session := openTestSession(t)
	runs := NewRunRepository(session)
	ctx := context.Background()

	require.NoError(t, runs.InsertToolRun(ctx, newToolRun(1, "scc")))

	err := runs.InsertToolRun(ctx, newToolRun(2, "scc"))
	require.Error(t, err, "same run_id and tool must not land twice")

	// A different tool under the same run id is fine.
	require.NoError(t, runs.InsertToolRun(ctx, newToolRun(3, "lizard")))

	pk, found, err := runs.FindToolRunByRunID(ctx, "c7a2f9d4-0b1e-4e6a-9f3c-2d8b5a1e0c4f", "scc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(1), pk)

	_, found, err = runs.FindToolRunByRunID(ctx, "c7a2f9d4-0b1e-4e6a-9f3c-2d8b5a1e0c4f", "trivy")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInsertCollectionRunDuplicateCommitRejected(t *testing.T) {
	session := openTestSession(t)
	runs := NewRunRepository(session)
	ctx := context.Background()

	first := &entities.CollectionRun{
		CollectionPK: 1,
		CollectionID: "col-2026-03-14",
		RepoID:       "acme/widgets",
		Commit:       testCommit,
		StartedAt:    time.Now().UTC(),
		Status:       string(schema.RunRunning),
	}
	require.NoError(t, runs.InsertCollectionRun(ctx, first))

	second := &entities.CollectionRun{
		CollectionPK: 2,
		CollectionID: "col-2026-03-15",
		RepoID:       "acme/widgets",
		Commit:       testCommit,
		StartedAt:    time.Now().UTC(),
		Status:       string(schema.RunRunning),
	}
	require.Error(t, runs.InsertCollectionRun(ctx, second), "same repo and commit must not land twice")

	rec, found, err := runs.FindCollectionRunByCommit(ctx, "acme/widgets", testCommit)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "col-2026-03-14", rec.CollectionID)

	_, found, err = runs.FindCollectionRunByCommit(ctx, "acme/gadgets", testCommit)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMarkToolRunFailedKeepsMessage(t *testing.T) {
	session := openTestSession(t)
	runs := NewRunRepository(session)
	ctx := context.Background()

	pk, err := runs.AllocatePK(ctx)
	require.NoError(t, err)
	require.NoError(t, runs.InsertToolRun(ctx, newToolRun(pk, "gitleaks")))

	require.NoError(t, runs.MarkToolRun(ctx, pk, schema.RunFailed, strPtr("quality validation failed: 3 violations")))
	rec, found, err := runs.GetToolRun(ctx, pk)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.RunFailed, rec.Status)
	require.NotNil(t, rec.ErrorMessage)
	assert.Contains(t, *rec.ErrorMessage, "3 violations")
}

func TestMarkToolRunMissing(t *testing.T) {
	session := openTestSession(t)
	runs := NewRunRepository(session)

	err := runs.MarkToolRun(context.Background(), 999, schema.RunCompleted, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGetToolRunNotFound(t *testing.T) {
	session := openTestSession(t)
	runs := NewRunRepository(session)

	_, found, err := runs.GetToolRun(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindRunPKByTool(t *testing.T) {
	session := openTestSession(t)
	runs := NewRunRepository(session)
	ctx := context.Background()

	collection := &entities.CollectionRun{
		CollectionPK: 100,
		CollectionID: "col-2026-03-14",
		RepoID:       "acme/widgets",
		Commit:       testCommit,
		StartedAt:    time.Now().UTC(),
		Status:       string(schema.RunRunning),
	}
	require.NoError(t, runs.InsertCollectionRun(ctx, collection))

	layout := newToolRun(1, "layout-scanner")
	layout.CollectionRunPK = intPtr(100)
	require.NoError(t, runs.InsertToolRun(ctx, layout))

	scc := newToolRun(2, "scc")
	scc.CollectionRunPK = intPtr(100)
	require.NoError(t, runs.InsertToolRun(ctx, scc))

	pk, found, err := runs.FindRunPKByTool(ctx, 100, "layout-scanner")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(1), pk)

	_, found, err = runs.FindRunPKByTool(ctx, 100, "trivy")
	require.NoError(t, err)
	assert.False(t, found)

	pks, err := runs.CollectionRunPKs(ctx, 100)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, pks)
}

func TestCollectionReplaceCascade(t *testing.T) {
	session := openTestSession(t)
	runs := NewRunRepository(session)
	layout := NewLayoutRepository(session)
	ctx := context.Background()
	ensureTables(t, session, LayoutFilesTable, LayoutDirectoriesTable)

	collection := &entities.CollectionRun{
		CollectionPK: 7,
		CollectionID: "col-old",
		RepoID:       "acme/widgets",
		Commit:       testCommit,
		StartedAt:    time.Now().UTC(),
		Status:       string(schema.RunCompleted),
	}
	require.NoError(t, runs.InsertCollectionRun(ctx, collection))
	run := newToolRun(1, "layout-scanner")
	run.CollectionRunPK = intPtr(7)
	require.NoError(t, runs.InsertToolRun(ctx, run))
	require.NoError(t, layout.InsertFiles(ctx, session.DB(), []*entities.LayoutFile{
		{RunPK: 1, FileID: "f-1", RelativePath: "src/main.go", DirectoryID: "d-1", Filename: "main.go"},
	}))

	require.NoError(t, session.WithTx(ctx, func(tx *sql.Tx) error {
		if err := runs.DeleteByRunPKs(ctx, tx, LayoutFilesTable.Name, []int64{1}); err != nil {
			return err
		}
		if err := runs.DeleteToolRuns(ctx, tx, []int64{1}); err != nil {
			return err
		}
		return runs.DeleteCollectionRun(ctx, tx, 7)
	}))

	_, found, err := runs.GetToolRun(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = runs.FindCollectionRun(ctx, "col-old")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = layout.GetFileRecord(ctx, 1, "src/main.go")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLayoutCatalogLookup(t *testing.T) {
	session := openTestSession(t)
	layout := NewLayoutRepository(session)
	ctx := context.Background()
	ensureTables(t, session, LayoutFilesTable, LayoutDirectoriesTable)

	files := []*entities.LayoutFile{
		{RunPK: 1, FileID: "f-1", RelativePath: "src/main.go", DirectoryID: "d-1", Filename: "main.go",
			Extension: strPtr(".go"), Language: strPtr("Go"), SizeBytes: intPtr(1024), IsBinary: boolPtr(false)},
		{RunPK: 1, FileID: "f-2", RelativePath: "README.md", DirectoryID: "d-0", Filename: "README.md"},
	}
	require.NoError(t, layout.InsertFiles(ctx, session.DB(), files))
	require.NoError(t, layout.InsertDirectories(ctx, session.DB(), []*entities.LayoutDirectory{
		{RunPK: 1, DirectoryID: "d-0", RelativePath: ".", Depth: 0},
		{RunPK: 1, DirectoryID: "d-1", RelativePath: "src", ParentID: strPtr("d-0"), Depth: 1},
	}))

	rec, found, err := layout.GetFileRecord(ctx, 1, "src/main.go")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, FileRecord{FileID: "f-1", DirectoryID: "d-1"}, rec)

	_, found, err = layout.GetFileRecord(ctx, 1, "src/missing.go")
	require.NoError(t, err)
	assert.False(t, found)

	index, err := layout.FileIndex(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, index, 2)
	assert.Equal(t, "f-2", index["README.md"].FileID)
}

func TestInsertBulkRejectsInvalidRow(t *testing.T) {
	session := openTestSession(t)
	layout := NewLayoutRepository(session)
	ctx := context.Background()
	ensureTables(t, session, LayoutFilesTable)

	err := layout.InsertFiles(ctx, session.DB(), []*entities.LayoutFile{
		{RunPK: 1, FileID: "f-1", RelativePath: "/etc/passwd", DirectoryID: "d-1", Filename: "passwd"},
	})
	require.Error(t, err)

	index, err := layout.FileIndex(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, index)
}

func TestInsertBulkEmptySlice(t *testing.T) {
	session := openTestSession(t)
	layout := NewLayoutRepository(session)
	ensureTables(t, session, LayoutFilesTable)

	require.NoError(t, layout.InsertFiles(context.Background(), session.DB(), nil))
}

func TestStatusSummarizesLanding(t *testing.T) {
	session := openTestSession(t)
	runs := NewRunRepository(session)
	layout := NewLayoutRepository(session)
	ctx := context.Background()
	ensureTables(t, session, LayoutFilesTable)

	require.NoError(t, runs.InsertToolRun(ctx, newToolRun(1, "layout-scanner")))
	require.NoError(t, layout.InsertFiles(ctx, session.DB(), []*entities.LayoutFile{
		{RunPK: 1, FileID: "f-1", RelativePath: "src/main.go", DirectoryID: "d-1", Filename: "main.go"},
	}))

	status, err := runs.Status(ctx, []string{LayoutFilesTable.Name, "lz_not_created_yet"})
	require.NoError(t, err)
	assert.Equal(t, schema.SQLiteBackend, status.Backend)
	assert.Equal(t, int64(1), status.ToolRuns)
	require.NotNil(t, status.LastRunAt)
	require.Len(t, status.Tables, 1)
	assert.Equal(t, int64(1), status.Tables[0].Rows)
}

func TestFactTableNamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, name := range FactTableNames() {
		assert.False(t, seen[name], "duplicate table %s", name)
		seen[name] = true
	}
	assert.Len(t, seen, len(FactTables))
}
