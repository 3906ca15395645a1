// Package parquet exports landing zone tables to Parquet files for
// downstream analytics using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// ToolRun is the Parquet row shape for lz_tool_runs.
type ToolRun struct {
	RunPK           int64     `parquet:"run_pk,snappy"`
	RunID           string    `parquet:"run_id,snappy"`
	RepoID          string    `parquet:"repo_id,snappy"`
	ToolName        string    `parquet:"tool_name,snappy"`
	ToolVersion     *string   `parquet:"tool_version,optional,snappy"`
	SchemaVersion   *string   `parquet:"schema_version,optional,snappy"`
	Branch          *string   `parquet:"branch,optional,snappy"`
	Commit          string    `parquet:"commit_sha,snappy"`
	CapturedAt      time.Time `parquet:"captured_at,snappy"`
	Status          string    `parquet:"status,snappy"`
	ErrorMessage    *string   `parquet:"error_message,optional,snappy"`
	CollectionRunPK *int64    `parquet:"collection_run_pk,optional,snappy"`
}

// LayoutFile is the Parquet row shape for lz_layout_files.
type LayoutFile struct {
	RunPK        int64   `parquet:"run_pk,snappy"`
	FileID       string  `parquet:"file_id,snappy"`
	RelativePath string  `parquet:"relative_path,snappy"`
	DirectoryID  string  `parquet:"directory_id,snappy"`
	Filename     string  `parquet:"filename,snappy"`
	Extension    *string `parquet:"extension,optional,snappy"`
	Language     *string `parquet:"language,optional,snappy"`
	Category     *string `parquet:"category,optional,snappy"`
	SizeBytes    *int64  `parquet:"size_bytes,optional,snappy"`
	LineCount    *int64  `parquet:"line_count,optional,snappy"`
	IsBinary     *bool   `parquet:"is_binary,optional,snappy"`
}

// WriteToolRunsParquet writes tool run rows to a Parquet file.
func WriteToolRunsParquet(data []ToolRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteLayoutFilesParquet writes catalog rows to a Parquet file.
func WriteLayoutFilesParquet(data []LayoutFile, outputPath string) error {
	return writeParquet(data, outputPath)
}

func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Schema inference from struct tags.
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertToolRunRecords converts database records for Parquet export.
func ConvertToolRunRecords(records []schema.ToolRunRecord) []ToolRun {
	result := make([]ToolRun, len(records))
	for i, record := range records {
		result[i] = ToolRun{
			RunPK:           record.RunPK,
			RunID:           record.RunID,
			RepoID:          record.RepoID,
			ToolName:        record.ToolName,
			ToolVersion:     record.ToolVersion,
			SchemaVersion:   record.SchemaVersion,
			Branch:          record.Branch,
			Commit:          record.Commit,
			CapturedAt:      record.CapturedAt,
			Status:          string(record.Status),
			ErrorMessage:    record.ErrorMessage,
			CollectionRunPK: record.CollectionRunPK,
		}
	}
	return result
}

// ConvertLayoutFiles converts catalog rows for Parquet export.
func ConvertLayoutFiles(rows []entities.LayoutFile) []LayoutFile {
	result := make([]LayoutFile, len(rows))
	for i, row := range rows {
		result[i] = LayoutFile{
			RunPK:        row.RunPK,
			FileID:       row.FileID,
			RelativePath: row.RelativePath,
			DirectoryID:  row.DirectoryID,
			Filename:     row.Filename,
			Extension:    row.Extension,
			Language:     row.Language,
			Category:     row.Category,
			SizeBytes:    row.SizeBytes,
			LineCount:    row.LineCount,
			IsBinary:     row.IsBinary,
		}
	}
	return result
}
