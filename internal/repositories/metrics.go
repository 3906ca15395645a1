package repositories

import (
	"context"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// SccFileMetricsTable declares lz_scc_file_metrics.
var SccFileMetricsTable = schema.TableSpec{
	Name: "lz_scc_file_metrics",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "filename", Type: "TEXT", Nullable: true},
		{Name: "extension", Type: "TEXT", Nullable: true},
		{Name: "language", Type: "TEXT", Nullable: true},
		{Name: "lines_total", Type: "BIGINT", Nullable: true},
		{Name: "code_lines", Type: "BIGINT", Nullable: true},
		{Name: "comment_lines", Type: "BIGINT", Nullable: true},
		{Name: "blank_lines", Type: "BIGINT", Nullable: true},
		{Name: "bytes", Type: "BIGINT", Nullable: true},
		{Name: "complexity", Type: "BIGINT", Nullable: true},
		{Name: "uloc", Type: "BIGINT", Nullable: true},
		{Name: "comment_ratio", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "blank_ratio", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "code_ratio", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "complexity_density", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "dryness", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "bytes_per_loc", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "is_minified", Type: "BOOLEAN", Nullable: true},
		{Name: "is_generated", Type: "BOOLEAN", Nullable: true},
		{Name: "is_binary", Type: "BOOLEAN", Nullable: true},
		{Name: "classification", Type: "TEXT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "file_id"},
}

// LizardFileMetricsTable declares lz_lizard_file_metrics.
var LizardFileMetricsTable = schema.TableSpec{
	Name: "lz_lizard_file_metrics",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "language", Type: "TEXT", Nullable: true},
		{Name: "nloc", Type: "BIGINT", Nullable: true},
		{Name: "function_count", Type: "BIGINT", Nullable: true},
		{Name: "total_ccn", Type: "BIGINT", Nullable: true},
		{Name: "avg_ccn", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "max_ccn", Type: "BIGINT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "file_id"},
}

// LizardFunctionMetricsTable declares lz_lizard_function_metrics.
var LizardFunctionMetricsTable = schema.TableSpec{
	Name: "lz_lizard_function_metrics",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "function_name", Type: "TEXT"},
		{Name: "long_name", Type: "TEXT", Nullable: true},
		{Name: "ccn", Type: "BIGINT", Nullable: true},
		{Name: "nloc", Type: "BIGINT", Nullable: true},
		{Name: "params", Type: "BIGINT", Nullable: true},
		{Name: "token_count", Type: "BIGINT", Nullable: true},
		{Name: "line_start", Type: "BIGINT", Nullable: true},
		{Name: "line_end", Type: "BIGINT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "file_id", "function_name", "line_start"},
}

// SccRepository manages lz_scc_file_metrics.
type SccRepository struct {
	session *database.Session
}

// NewSccRepository creates an scc repository bound to one session.
func NewSccRepository(session *database.Session) *SccRepository {
	return &SccRepository{session: session}
}

// InsertFileMetrics bulk-writes per-file size metrics.
func (r *SccRepository) InsertFileMetrics(ctx context.Context, db database.DBTX, rows []*entities.SccFileMetric) error {
	return InsertBulk(ctx, r.session, db, SccFileMetricsTable.Name, SccFileMetricsTable.ColumnNames(), rows,
		func(m *entities.SccFileMetric) []any {
			return []any{
				m.RunPK, m.FileID, m.DirectoryID, m.RelativePath, m.Filename,
				m.Extension, m.Language, m.LinesTotal, m.CodeLines, m.CommentLines,
				m.BlankLines, m.Bytes, m.Complexity, m.Uloc, m.CommentRatio, m.BlankRatio,
				m.CodeRatio, m.ComplexityDensity, m.Dryness, m.BytesPerLoc,
				m.IsMinified, m.IsGenerated, m.IsBinary, m.Classification,
			}
		})
}

// LizardRepository manages the lizard metric tables.
type LizardRepository struct {
	session *database.Session
}

// NewLizardRepository creates a lizard repository bound to one session.
func NewLizardRepository(session *database.Session) *LizardRepository {
	return &LizardRepository{session: session}
}

// InsertFileMetrics bulk-writes per-file complexity metrics.
func (r *LizardRepository) InsertFileMetrics(ctx context.Context, db database.DBTX, rows []*entities.LizardFileMetric) error {
	return InsertBulk(ctx, r.session, db, LizardFileMetricsTable.Name, LizardFileMetricsTable.ColumnNames(), rows,
		func(m *entities.LizardFileMetric) []any {
			return []any{
				m.RunPK, m.FileID, m.RelativePath, m.Language, m.Nloc,
				m.FunctionCount, m.TotalCcn, m.AvgCcn, m.MaxCcn,
			}
		})
}

// InsertFunctionMetrics bulk-writes per-function complexity metrics.
func (r *LizardRepository) InsertFunctionMetrics(ctx context.Context, db database.DBTX, rows []*entities.LizardFunctionMetric) error {
	return InsertBulk(ctx, r.session, db, LizardFunctionMetricsTable.Name, LizardFunctionMetricsTable.ColumnNames(), rows,
		func(m *entities.LizardFunctionMetric) []any {
			return []any{
				m.RunPK, m.FileID, m.FunctionName, m.LongName, m.Ccn, m.Nloc,
				m.Params, m.TokenCount, m.LineStart, m.LineEnd,
			}
		})
}
