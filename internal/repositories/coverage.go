package repositories

import (
	"context"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// DotcoverAssemblyCoverageTable declares lz_dotcover_assembly_coverage.
var DotcoverAssemblyCoverageTable = schema.TableSpec{
	Name: "lz_dotcover_assembly_coverage",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "assembly_name", Type: "TEXT"},
		{Name: "covered_statements", Type: "BIGINT"},
		{Name: "total_statements", Type: "BIGINT"},
		{Name: "statement_coverage_pct", Type: "DOUBLE PRECISION"},
	},
	PrimaryKey: []string{"run_pk", "assembly_name"},
}

// DotcoverTypeCoverageTable declares lz_dotcover_type_coverage. The file
// columns stay NULL when a type has no source mapping.
var DotcoverTypeCoverageTable = schema.TableSpec{
	Name: "lz_dotcover_type_coverage",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT", Nullable: true},
		{Name: "directory_id", Type: "TEXT", Nullable: true},
		{Name: "relative_path", Type: "TEXT", Nullable: true},
		{Name: "assembly_name", Type: "TEXT"},
		{Name: "namespace", Type: "TEXT", Nullable: true},
		{Name: "type_name", Type: "TEXT"},
		{Name: "covered_statements", Type: "BIGINT"},
		{Name: "total_statements", Type: "BIGINT"},
		{Name: "statement_coverage_pct", Type: "DOUBLE PRECISION"},
	},
	PrimaryKey: []string{"run_pk", "assembly_name", "type_name"},
}

// DotcoverMethodCoverageTable declares lz_dotcover_method_coverage.
var DotcoverMethodCoverageTable = schema.TableSpec{
	Name: "lz_dotcover_method_coverage",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "assembly_name", Type: "TEXT"},
		{Name: "type_name", Type: "TEXT"},
		{Name: "method_name", Type: "TEXT"},
		{Name: "covered_statements", Type: "BIGINT"},
		{Name: "total_statements", Type: "BIGINT"},
		{Name: "statement_coverage_pct", Type: "DOUBLE PRECISION"},
	},
	PrimaryKey: []string{"run_pk", "assembly_name", "type_name", "method_name"},
}

// DotcoverRepository manages the dotcover landing tables.
type DotcoverRepository struct {
	session *database.Session
}

// NewDotcoverRepository creates a dotcover repository bound to one session.
func NewDotcoverRepository(session *database.Session) *DotcoverRepository {
	return &DotcoverRepository{session: session}
}

// InsertAssemblyCoverage bulk-writes assembly-level coverage rows.
func (r *DotcoverRepository) InsertAssemblyCoverage(ctx context.Context, db database.DBTX, rows []*entities.DotcoverAssemblyCoverage) error {
	return InsertBulk(ctx, r.session, db, DotcoverAssemblyCoverageTable.Name, DotcoverAssemblyCoverageTable.ColumnNames(), rows,
		func(c *entities.DotcoverAssemblyCoverage) []any {
			return []any{
				c.RunPK, c.AssemblyName, c.CoveredStatements, c.TotalStatements,
				c.StatementCoveragePct,
			}
		})
}

// InsertTypeCoverage bulk-writes type-level coverage rows.
func (r *DotcoverRepository) InsertTypeCoverage(ctx context.Context, db database.DBTX, rows []*entities.DotcoverTypeCoverage) error {
	return InsertBulk(ctx, r.session, db, DotcoverTypeCoverageTable.Name, DotcoverTypeCoverageTable.ColumnNames(), rows,
		func(c *entities.DotcoverTypeCoverage) []any {
			return []any{
				c.RunPK, c.FileID, c.DirectoryID, c.RelativePath, c.AssemblyName,
				c.Namespace, c.TypeName, c.CoveredStatements, c.TotalStatements,
				c.StatementCoveragePct,
			}
		})
}

// InsertMethodCoverage bulk-writes method-level coverage rows.
func (r *DotcoverRepository) InsertMethodCoverage(ctx context.Context, db database.DBTX, rows []*entities.DotcoverMethodCoverage) error {
	return InsertBulk(ctx, r.session, db, DotcoverMethodCoverageTable.Name, DotcoverMethodCoverageTable.ColumnNames(), rows,
		func(c *entities.DotcoverMethodCoverage) []any {
			return []any{
				c.RunPK, c.AssemblyName, c.TypeName, c.MethodName,
				c.CoveredStatements, c.TotalStatements, c.StatementCoveragePct,
			}
		})
}
