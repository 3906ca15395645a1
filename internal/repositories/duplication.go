package repositories

import (
	"context"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// PmdCpdFileMetricsTable declares lz_pmd_cpd_file_metrics.
var PmdCpdFileMetricsTable = schema.TableSpec{
	Name: "lz_pmd_cpd_file_metrics",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "language", Type: "TEXT", Nullable: true},
		{Name: "total_lines", Type: "BIGINT"},
		{Name: "duplicate_lines", Type: "BIGINT"},
		{Name: "duplicate_blocks", Type: "BIGINT"},
		{Name: "duplication_percentage", Type: "DOUBLE PRECISION"},
	},
	PrimaryKey: []string{"run_pk", "file_id"},
}

// PmdCpdDuplicationsTable declares lz_pmd_cpd_duplications. One row per
// clone group.
var PmdCpdDuplicationsTable = schema.TableSpec{
	Name: "lz_pmd_cpd_duplications",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "clone_id", Type: "TEXT"},
		{Name: "lines", Type: "BIGINT"},
		{Name: "tokens", Type: "BIGINT"},
		{Name: "occurrence_count", Type: "BIGINT"},
		{Name: "is_cross_file", Type: "BOOLEAN"},
		{Name: "code_fragment", Type: "TEXT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "clone_id"},
}

// PmdCpdOccurrencesTable declares lz_pmd_cpd_occurrences. One row per
// clone location.
var PmdCpdOccurrencesTable = schema.TableSpec{
	Name: "lz_pmd_cpd_occurrences",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "clone_id", Type: "TEXT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "line_start", Type: "BIGINT"},
		{Name: "line_end", Type: "BIGINT"},
		{Name: "column_start", Type: "BIGINT", Nullable: true},
		{Name: "column_end", Type: "BIGINT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "clone_id", "file_id", "line_start"},
}

// PmdCpdRepository manages the pmd-cpd landing tables.
type PmdCpdRepository struct {
	session *database.Session
}

// NewPmdCpdRepository creates a pmd-cpd repository bound to one session.
func NewPmdCpdRepository(session *database.Session) *PmdCpdRepository {
	return &PmdCpdRepository{session: session}
}

// InsertFileMetrics bulk-writes per-file duplication rollups.
func (r *PmdCpdRepository) InsertFileMetrics(ctx context.Context, db database.DBTX, rows []*entities.PmdCpdFileMetric) error {
	return InsertBulk(ctx, r.session, db, PmdCpdFileMetricsTable.Name, PmdCpdFileMetricsTable.ColumnNames(), rows,
		func(m *entities.PmdCpdFileMetric) []any {
			return []any{
				m.RunPK, m.FileID, m.DirectoryID, m.RelativePath, m.Language,
				m.TotalLines, m.DuplicateLines, m.DuplicateBlocks, m.DuplicationPercentage,
			}
		})
}

// InsertDuplications bulk-writes clone groups.
func (r *PmdCpdRepository) InsertDuplications(ctx context.Context, db database.DBTX, rows []*entities.PmdCpdDuplication) error {
	return InsertBulk(ctx, r.session, db, PmdCpdDuplicationsTable.Name, PmdCpdDuplicationsTable.ColumnNames(), rows,
		func(d *entities.PmdCpdDuplication) []any {
			return []any{
				d.RunPK, d.CloneID, d.Lines, d.Tokens, d.OccurrenceCount,
				d.IsCrossFile, d.CodeFragment,
			}
		})
}

// InsertOccurrences bulk-writes clone locations.
func (r *PmdCpdRepository) InsertOccurrences(ctx context.Context, db database.DBTX, rows []*entities.PmdCpdOccurrence) error {
	return InsertBulk(ctx, r.session, db, PmdCpdOccurrencesTable.Name, PmdCpdOccurrencesTable.ColumnNames(), rows,
		func(o *entities.PmdCpdOccurrence) []any {
			return []any{
				o.RunPK, o.CloneID, o.FileID, o.DirectoryID, o.RelativePath,
				o.LineStart, o.LineEnd, o.ColumnStart, o.ColumnEnd,
			}
		})
}
