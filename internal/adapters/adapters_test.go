package adapters

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/validation"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

const (
	testRunID  = "c7a2f9d4-0b1e-4e6a-9f3c-2d8b5a1e0c4f"
	testCommit = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

func openTestSession(t *testing.T, logger *zap.Logger) *database.Session {
	t.Helper()
	if logger == nil {
		logger = zaptest.NewLogger(t)
	}
	session, err := database.Open(schema.SQLiteBackend, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	require.NoError(t, session.Migrate(-1))
	return session
}

func newTestPipeline(t *testing.T, logger *zap.Logger) (*Pipeline, *database.Session) {
	t.Helper()
	session := openTestSession(t, logger)
	pipeline, err := NewPipeline(session)
	require.NoError(t, err)
	return pipeline, session
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
			"parent_directory_id": "d-src", "size_bytes": 420, "line_count": 30
		},
		"src/util.go": {
			"id": "f-util", "path": "src/util.go", "name": "util.go",
			"parent_directory_id": "d-src", "size_bytes": 120, "line_count": 12
		}
	},
	"directories": {
		"src": {"id": "d-src", "path": "src", "depth": 1, "recursive_file_count": 2}
	}
}`

func ingestCatalog(t *testing.T, p *Pipeline, session *database.Session) int64 {
	t.Helper()
	pk, err := p.Ingest(context.Background(), NewLayoutAdapter(session), envelope("layout-scanner", layoutData), nil)
	require.NoError(t, err)
	return pk
}

func countRows(t *testing.T, session *database.Session, table string) int {
	t.Helper()
	var n int
	err := session.DB().QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestIngestCatalogThenMetrics(t *testing.T) {
	p, session := newTestPipeline(t, nil)
	ctx := context.Background()

	layoutPK := ingestCatalog(t, p, session)
	assert.Equal(t, 2, countRows(t, session, "lz_layout_files"))
	assert.Equal(t, 1, countRows(t, session, "lz_layout_directories"))

	sccData := `{"files": [
		{"path": "src/main.go", "lines_total": 30, "code_lines": 20, "comment_lines": 6, "blank_lines": 4},
		{"path": "src/util.go", "lines_total": 12, "code_lines": 10, "comment_lines": 0, "blank_lines": 2}
	]}`
	sccPK, err := p.Ingest(ctx, NewSccAdapter(session), envelope("scc", sccData), nil)
	require.NoError(t, err)
	assert.Greater(t, sccPK, layoutPK)
	assert.Equal(t, 2, countRows(t, session, "lz_scc_file_metrics"))

	run, found, err := p.Runs().GetToolRun(ctx, sccPK)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.RunCompleted, run.Status)
	assert.Nil(t, run.ErrorMessage)
}

func TestIngestSchemaFailureWritesNoRun(t *testing.T) {
	p, session := newTestPipeline(t, nil)

	// rule_id is required for every finding.
	data := `{"findings": [{"path": "src/main.go"}]}`
	_, err := p.Ingest(context.Background(), NewSemgrepAdapter(session), envelope("semgrep", data), nil)
	require.Error(t, err)
	var schemaErr *validation.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "semgrep", schemaErr.Tool)

	assert.Equal(t, 0, countRows(t, session, "lz_tool_runs"))
}

func TestIngestQualityFailureMarksRunFailed(t *testing.T) {
	p, session := newTestPipeline(t, nil)
	ctx := context.Background()
	ingestCatalog(t, p, session)

	data := `{"files": [{"path": "src/main.go", "lines_total": -5}]}`
	pk, err := p.Ingest(ctx, NewSccAdapter(session), envelope("scc", data), nil)
	require.Error(t, err)
	var qualityErr *validation.QualityError
	require.ErrorAs(t, err, &qualityErr)

	run, found, err := p.Runs().GetToolRun(ctx, pk)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.RunFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Contains(t, *run.ErrorMessage, "lines_total")
	assert.Equal(t, 0, countRows(t, session, "lz_scc_file_metrics"))
}

func TestIngestWithoutCatalogFails(t *testing.T) {
	p, session := newTestPipeline(t, nil)
	ctx := context.Background()

	data := `{"files": [{"path": "src/main.go"}]}`
	pk, err := p.Ingest(ctx, NewSccAdapter(session), envelope("scc", data), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist layout-scanner output first")

	run, found, err := p.Runs().GetToolRun(ctx, pk)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.RunFailed, run.Status)
}

func TestStrictPolicyAbortsOnUnknownPath(t *testing.T) {
	p, session := newTestPipeline(t, nil)
	ctx := context.Background()
	ingestCatalog(t, p, session)

	data := `{"findings": [{"path": "src/ghost.go", "rule_id": "go.lang.maligned"}]}`
	pk, err := p.Ingest(ctx, NewSemgrepAdapter(session), envelope("semgrep", data), nil)
	require.Error(t, err)
	var refErr *validation.ReferentialError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "src/ghost.go", refErr.Path)

	run, found, err := p.Runs().GetToolRun(ctx, pk)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.RunFailed, run.Status)
	assert.Equal(t, 0, countRows(t, session, "lz_semgrep_smells"))
}

func TestLenientPolicySkipsUnknownPath(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p, session := newTestPipeline(t, zap.New(core))
	ctx := context.Background()
	ingestCatalog(t, p, session)

	data := `{"files": [
		{"path": "src/main.go", "lines_total": 30, "code_lines": 20, "comment_lines": 6, "blank_lines": 4},
		{"path": "src/ghost.go", "lines_total": 1, "code_lines": 1, "comment_lines": 0, "blank_lines": 0}
	]}`
	_, err := p.Ingest(ctx, NewSccAdapter(session), envelope("scc", data), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, session, "lz_scc_file_metrics"))

	skipped := logs.FilterMessage("path not in catalog, skipping record").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "src/ghost.go", skipped[0].ContextMap()["path"])
}

func TestDuplicateRecordsFirstWins(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p, session := newTestPipeline(t, zap.New(core))
	ctx := context.Background()
	ingestCatalog(t, p, session)

	data := `{"files": [
		{"path": "src/main.go", "complexity": 3},
		{"path": "src/main.go", "complexity": 9},
		{"path": "src/main.go", "complexity": 12}
	]}`
	_, err := p.Ingest(ctx, NewSccAdapter(session), envelope("scc", data), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, session, "lz_scc_file_metrics"))
	assert.Len(t, logs.FilterMessage("skipping duplicate record").All(), 2)

	var complexity int64
	err = session.DB().QueryRowContext(ctx,
		"SELECT complexity FROM lz_scc_file_metrics WHERE file_id = 'f-main'").Scan(&complexity)
	require.NoError(t, err)
	assert.Equal(t, int64(3), complexity)
}

func TestRepeatedRunIDRejected(t *testing.T) {
	p, session := newTestPipeline(t, nil)
	ctx := context.Background()
	ingestCatalog(t, p, session)

	data := `{"files": [{"path": "src/main.go", "lines_total": 30, "code_lines": 20, "comment_lines": 6, "blank_lines": 4}]}`
	_, err := p.Ingest(ctx, NewSccAdapter(session), envelope("scc", data), nil)
	require.NoError(t, err)

	_, err = p.Ingest(ctx, NewSccAdapter(session), envelope("scc", data), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already ingested")

	assert.Equal(t, 2, countRows(t, session, "lz_tool_runs"), "catalog plus one scc run")
	assert.Equal(t, 1, countRows(t, session, "lz_scc_file_metrics"), "first run's facts survive untouched")
}

func TestGitleaksMissingRuleIDFailsQualityGate(t *testing.T) {
	p, session := newTestPipeline(t, nil)
	ctx := context.Background()
	ingestCatalog(t, p, session)

	data := `{"findings": [{"path": "src/main.go", "severity": "HIGH"}]}`
	pk, err := p.Ingest(ctx, NewGitleaksAdapter(session), envelope("gitleaks", data), nil)
	require.Error(t, err)
	var qualityErr *validation.QualityError
	require.ErrorAs(t, err, &qualityErr, "a blank rule_id is a data problem, not a schema one")

	run, found, err := p.Runs().GetToolRun(ctx, pk)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.RunFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Contains(t, *run.ErrorMessage, "rule_id")
	assert.Equal(t, 0, countRows(t, session, "lz_gitleaks_secrets"))
}

func TestGitFameBusFactorBoundedByAuthors(t *testing.T) {
	p, session := newTestPipeline(t, nil)
	ctx := context.Background()
	ingestCatalog(t, p, session)

	data := `{
		"authors": [
			{"name": "Ada", "surviving_loc": 700, "ownership_pct": 70, "commit_count": 40},
			{"name": "Grace", "surviving_loc": 200, "ownership_pct": 20, "commit_count": 12},
			{"name": "Edsger", "surviving_loc": 100, "ownership_pct": 10, "commit_count": 5}
		],
		"summary": {
			"author_count": 3, "total_loc": 1000, "hhi_index": 0.54,
			"bus_factor": 50, "top_author_pct": 70, "top_two_pct": 90
		}
	}`
	pk, err := p.Ingest(ctx, NewGitFameAdapter(session), envelope("git-fame", data), nil)
	require.Error(t, err)
	var qualityErr *validation.QualityError
	require.ErrorAs(t, err, &qualityErr)

	run, found, err := p.Runs().GetToolRun(ctx, pk)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.RunFailed, run.Status)
	assert.Equal(t, 0, countRows(t, session, "lz_git_fame_summary"))
}

func TestRegistryCoversAllTools(t *testing.T) {
	session := openTestSession(t, nil)
	registry := NewRegistry(session)

	tools := registry.Tools()
	assert.Len(t, tools, 17)
	for _, tool := range tools {
		adapter, err := registry.Get(tool)
		require.NoError(t, err)
		assert.Equal(t, tool, adapter.Name())
		assert.NotEmpty(t, adapter.Tables())
	}

	_, err := registry.Get("pylint")
	assert.Error(t, err)
}

func TestTrivyTargetKeyIsStable(t *testing.T) {
	iac := "iac"
	assert.Equal(t, targetKey("go.mod", nil), targetKey("go.mod", nil))
	assert.NotEqual(t, targetKey("go.mod", nil), targetKey("go.mod", &iac))
	assert.Len(t, targetKey("go.mod", nil), 16)
}

func TestTrivySentinelLines(t *testing.T) {
	zero := int64(0)
	five := int64(5)
	assert.Equal(t, int64(-1), *sentinelLine(nil))
	assert.Equal(t, int64(-1), *sentinelLine(&zero))
	assert.Equal(t, int64(5), *sentinelLine(&five))
}
