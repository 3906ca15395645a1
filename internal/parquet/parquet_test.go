package parquet

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

func TestToolRunStructTags(t *testing.T) {
	parquetSchema := parquet.SchemaOf(new(ToolRun))
	require.NotNil(t, parquetSchema)

	expectedColumns := []string{
		"run_pk",
		"run_id",
		"repo_id",
		"tool_name",
		"tool_version",
		"schema_version",
		"branch",
		"commit_sha",
		"captured_at",
		"status",
		"error_message",
		"collection_run_pk",
	}
	for _, colName := range expectedColumns {
		_, ok := parquetSchema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestLayoutFileStructTags(t *testing.T) {
	parquetSchema := parquet.SchemaOf(new(LayoutFile))
	require.NotNil(t, parquetSchema)

	expectedColumns := []string{
		"run_pk",
		"file_id",
		"relative_path",
		"directory_id",
		"filename",
		"extension",
		"language",
		"category",
		"size_bytes",
		"line_count",
		"is_binary",
	}
	for _, colName := range expectedColumns {
		_, ok := parquetSchema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestWriteAndReadToolRuns(t *testing.T) {
	version := "1.2.0"
	rows := []ToolRun{
		{
			RunPK:       1,
			RunID:       "c7a2f9d4-0b1e-4e6a-9f3c-2d8b5a1e0c4f",
			RepoID:      "acme/widgets",
			ToolName:    "layout-scanner",
			ToolVersion: &version,
			Commit:      "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			CapturedAt:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			Status:      "completed",
		},
		{
			RunPK:      2,
			RunID:      "c7a2f9d4-0b1e-4e6a-9f3c-2d8b5a1e0c4f",
			RepoID:     "acme/widgets",
			ToolName:   "scc",
			Commit:     "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			CapturedAt: time.Date(2026, 3, 14, 9, 31, 0, 0, time.UTC),
			Status:     "failed",
		},
	}

	path := filepath.Join(t.TempDir(), "tool_runs.parquet")
	require.NoError(t, WriteToolRunsParquet(rows, path))

	readBack, err := parquet.ReadFile[ToolRun](path)
	require.NoError(t, err)
	require.Len(t, readBack, 2)
	assert.Equal(t, "layout-scanner", readBack[0].ToolName)
	require.NotNil(t, readBack[0].ToolVersion)
	assert.Equal(t, "1.2.0", *readBack[0].ToolVersion)
	assert.Nil(t, readBack[1].ToolVersion)
	assert.Equal(t, "failed", readBack[1].Status)
}

func TestConvertToolRunRecords(t *testing.T) {
	branch := "main"
	records := []schema.ToolRunRecord{
		{
			RunPK:    7,
			RunID:    "c7a2f9d4-0b1e-4e6a-9f3c-2d8b5a1e0c4f",
			RepoID:   "acme/widgets",
			ToolName: "gitleaks",
			Branch:   &branch,
			Commit:   "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			Status:   schema.RunCompleted,
		},
	}

	rows := ConvertToolRunRecords(records)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0].RunPK)
	assert.Equal(t, "gitleaks", rows[0].ToolName)
	assert.Equal(t, "completed", rows[0].Status)
	require.NotNil(t, rows[0].Branch)
	assert.Equal(t, "main", *rows[0].Branch)
}

func TestConvertLayoutFiles(t *testing.T) {
	lang := "Go"
	size := int64(420)
	rows := ConvertLayoutFiles([]entities.LayoutFile{
		{
			RunPK:        1,
			FileID:       "f-main",
			RelativePath: "src/main.go",
			DirectoryID:  "d-src",
			Filename:     "main.go",
			Language:     &lang,
			SizeBytes:    &size,
		},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "src/main.go", rows[0].RelativePath)
	require.NotNil(t, rows[0].Language)
	assert.Equal(t, "Go", *rows[0].Language)

	path := filepath.Join(t.TempDir(), "layout_files.parquet")
	require.NoError(t, WriteLayoutFilesParquet(rows, path))
	readBack, err := parquet.ReadFile[LayoutFile](path)
	require.NoError(t, err)
	require.Len(t, readBack, 1)
	assert.Equal(t, "f-main", readBack[0].FileID)
}
