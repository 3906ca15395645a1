package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// LayoutFilesTable declares lz_layout_files, the file catalog.
var LayoutFilesTable = schema.TableSpec{
	Name: "lz_layout_files",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "filename", Type: "TEXT"},
		{Name: "extension", Type: "TEXT", Nullable: true},
		{Name: "language", Type: "TEXT", Nullable: true},
		{Name: "category", Type: "TEXT", Nullable: true},
		{Name: "size_bytes", Type: "BIGINT", Nullable: true},
		{Name: "line_count", Type: "BIGINT", Nullable: true},
		{Name: "is_binary", Type: "BOOLEAN", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "file_id"},
}

// LayoutDirectoriesTable declares lz_layout_directories.
var LayoutDirectoriesTable = schema.TableSpec{
	Name: "lz_layout_directories",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "parent_id", Type: "TEXT", Nullable: true},
		{Name: "depth", Type: "BIGINT"},
		{Name: "file_count", Type: "BIGINT", Nullable: true},
		{Name: "total_size_bytes", Type: "BIGINT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "directory_id"},
}

// FileRecord is a catalog hit: the identifiers fact rows join on.
type FileRecord struct {
	FileID      string
	DirectoryID string
}

// LayoutRepository manages the file and directory catalog.
type LayoutRepository struct {
	session *database.Session
}

// NewLayoutRepository creates a layout repository bound to one session.
func NewLayoutRepository(session *database.Session) *LayoutRepository {
	return &LayoutRepository{session: session}
}

// InsertFiles bulk-writes catalog file rows.
func (r *LayoutRepository) InsertFiles(ctx context.Context, db database.DBTX, rows []*entities.LayoutFile) error {
	return InsertBulk(ctx, r.session, db, LayoutFilesTable.Name, LayoutFilesTable.ColumnNames(), rows,
		func(f *entities.LayoutFile) []any {
			return []any{
				f.RunPK, f.FileID, f.RelativePath, f.DirectoryID, f.Filename,
				f.Extension, f.Language, f.Category, f.SizeBytes, f.LineCount, f.IsBinary,
			}
		})
}

// InsertDirectories bulk-writes catalog directory rows.
func (r *LayoutRepository) InsertDirectories(ctx context.Context, db database.DBTX, rows []*entities.LayoutDirectory) error {
	return InsertBulk(ctx, r.session, db, LayoutDirectoriesTable.Name, LayoutDirectoriesTable.ColumnNames(), rows,
		func(d *entities.LayoutDirectory) []any {
			return []any{
				d.RunPK, d.DirectoryID, d.RelativePath, d.ParentID, d.Depth,
				d.FileCount, d.TotalSizeBytes,
			}
		})
}

// GetFileRecord resolves one path against the catalog of a layout run.
// The second return is false when the path is not cataloged.
func (r *LayoutRepository) GetFileRecord(ctx context.Context, runPK int64, relativePath string) (FileRecord, bool, error) {
	query := r.session.Rebind(`
		SELECT file_id, directory_id FROM lz_layout_files
		WHERE run_pk = ? AND relative_path = ?`)
	var rec FileRecord
	err := r.session.DB().QueryRowContext(ctx, query, runPK, relativePath).Scan(&rec.FileID, &rec.DirectoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return FileRecord{}, false, nil
	}
	if err != nil {
		return FileRecord{}, false, fmt.Errorf("failed to resolve %q in layout run %d: %w", relativePath, runPK, err)
	}
	return rec, true, nil
}

// ListFiles returns the full catalog rows of a layout run, ordered by
// path. Exporters read the catalog through this.
func (r *LayoutRepository) ListFiles(ctx context.Context, runPK int64) ([]entities.LayoutFile, error) {
	query := r.session.Rebind(`
		SELECT run_pk, file_id, relative_path, directory_id, filename,
		       extension, language, category, size_bytes, line_count, is_binary
		FROM lz_layout_files WHERE run_pk = ? ORDER BY relative_path`)
	rows, err := r.session.DB().QueryContext(ctx, query, runPK)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog files for run %d: %w", runPK, err)
	}
	defer func() { _ = rows.Close() }()

	var files []entities.LayoutFile
	for rows.Next() {
		var f entities.LayoutFile
		if err := rows.Scan(
			&f.RunPK, &f.FileID, &f.RelativePath, &f.DirectoryID, &f.Filename,
			&f.Extension, &f.Language, &f.Category, &f.SizeBytes, &f.LineCount, &f.IsBinary); err != nil {
			return nil, fmt.Errorf("failed to scan catalog file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// FileIndex loads the whole catalog of a layout run into memory, keyed
// by relative path. Adapters use it to resolve thousands of paths
// without a query per row.
func (r *LayoutRepository) FileIndex(ctx context.Context, runPK int64) (map[string]FileRecord, error) {
	query := r.session.Rebind(
		"SELECT relative_path, file_id, directory_id FROM lz_layout_files WHERE run_pk = ?")
	rows, err := r.session.DB().QueryContext(ctx, query, runPK)
	if err != nil {
		return nil, fmt.Errorf("failed to load file index for run %d: %w", runPK, err)
	}
	defer func() { _ = rows.Close() }()

	index := make(map[string]FileRecord)
	for rows.Next() {
		var path string
		var rec FileRecord
		if err := rows.Scan(&path, &rec.FileID, &rec.DirectoryID); err != nil {
			return nil, fmt.Errorf("failed to scan file index row: %w", err)
		}
		index[path] = rec
	}
	return index, rows.Err()
}
