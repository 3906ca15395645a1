package repositories

import (
	"context"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// ScancodeFileLicensesTable declares lz_scancode_file_licenses.
var ScancodeFileLicensesTable = schema.TableSpec{
	Name: "lz_scancode_file_licenses",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "spdx_id", Type: "TEXT"},
		{Name: "category", Type: "TEXT"},
		{Name: "confidence", Type: "DOUBLE PRECISION"},
		{Name: "match_type", Type: "TEXT"},
		{Name: "line_number", Type: "BIGINT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "file_id", "spdx_id"},
}

// ScancodeSummaryTable declares lz_scancode_summary. One row per run.
var ScancodeSummaryTable = schema.TableSpec{
	Name: "lz_scancode_summary",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "total_files_scanned", Type: "BIGINT"},
		{Name: "files_with_licenses", Type: "BIGINT"},
		{Name: "overall_risk", Type: "TEXT"},
		{Name: "has_permissive", Type: "BOOLEAN"},
		{Name: "has_weak_copyleft", Type: "BOOLEAN"},
		{Name: "has_copyleft", Type: "BOOLEAN"},
		{Name: "has_unknown", Type: "BOOLEAN"},
	},
	PrimaryKey: []string{"run_pk"},
}

// ScancodeRepository manages the scancode landing tables.
type ScancodeRepository struct {
	session *database.Session
}

// NewScancodeRepository creates a scancode repository bound to one session.
func NewScancodeRepository(session *database.Session) *ScancodeRepository {
	return &ScancodeRepository{session: session}
}

// InsertFileLicenses bulk-writes per-file license detections.
func (r *ScancodeRepository) InsertFileLicenses(ctx context.Context, db database.DBTX, rows []*entities.ScancodeFileLicense) error {
	return InsertBulk(ctx, r.session, db, ScancodeFileLicensesTable.Name, ScancodeFileLicensesTable.ColumnNames(), rows,
		func(l *entities.ScancodeFileLicense) []any {
			return []any{
				l.RunPK, l.FileID, l.DirectoryID, l.RelativePath, l.SpdxID,
				l.Category, l.Confidence, l.MatchType, l.LineNumber,
			}
		})
}

// InsertSummary bulk-writes the repository-level license summary.
func (r *ScancodeRepository) InsertSummary(ctx context.Context, db database.DBTX, rows []*entities.ScancodeSummary) error {
	return InsertBulk(ctx, r.session, db, ScancodeSummaryTable.Name, ScancodeSummaryTable.ColumnNames(), rows,
		func(s *entities.ScancodeSummary) []any {
			return []any{
				s.RunPK, s.TotalFilesScanned, s.FilesWithLicenses, s.OverallRisk,
				s.HasPermissive, s.HasWeakCopyleft, s.HasCopyleft, s.HasUnknown,
			}
		})
}
