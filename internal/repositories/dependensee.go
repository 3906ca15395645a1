package repositories

import (
	"context"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// DependenseeProjectsTable declares lz_dependensee_projects.
var DependenseeProjectsTable = schema.TableSpec{
	Name: "lz_dependensee_projects",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "project_path", Type: "TEXT"},
		{Name: "project_name", Type: "TEXT"},
		{Name: "target_framework", Type: "TEXT", Nullable: true},
		{Name: "project_reference_count", Type: "BIGINT"},
		{Name: "package_reference_count", Type: "BIGINT"},
	},
	PrimaryKey: []string{"run_pk", "project_path"},
}

// DependenseeProjectRefsTable declares lz_dependensee_project_refs.
var DependenseeProjectRefsTable = schema.TableSpec{
	Name: "lz_dependensee_project_refs",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "source_project_path", Type: "TEXT"},
		{Name: "target_project_path", Type: "TEXT"},
	},
	PrimaryKey: []string{"run_pk", "source_project_path", "target_project_path"},
}

// DependenseePackageRefsTable declares lz_dependensee_package_refs.
var DependenseePackageRefsTable = schema.TableSpec{
	Name: "lz_dependensee_package_refs",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "project_path", Type: "TEXT"},
		{Name: "package_name", Type: "TEXT"},
		{Name: "package_version", Type: "TEXT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "project_path", "package_name"},
}

// DependenseeRepository manages the dependensee landing tables.
type DependenseeRepository struct {
	session *database.Session
}

// NewDependenseeRepository creates a dependensee repository bound to one session.
func NewDependenseeRepository(session *database.Session) *DependenseeRepository {
	return &DependenseeRepository{session: session}
}

// InsertProjects bulk-writes project rows.
func (r *DependenseeRepository) InsertProjects(ctx context.Context, db database.DBTX, rows []*entities.DependenseeProject) error {
	return InsertBulk(ctx, r.session, db, DependenseeProjectsTable.Name, DependenseeProjectsTable.ColumnNames(), rows,
		func(p *entities.DependenseeProject) []any {
			return []any{
				p.RunPK, p.ProjectPath, p.ProjectName, p.TargetFramework,
				p.ProjectReferenceCount, p.PackageReferenceCount,
			}
		})
}

// InsertProjectReferences bulk-writes project-to-project edges.
func (r *DependenseeRepository) InsertProjectReferences(ctx context.Context, db database.DBTX, rows []*entities.DependenseeProjectReference) error {
	return InsertBulk(ctx, r.session, db, DependenseeProjectRefsTable.Name, DependenseeProjectRefsTable.ColumnNames(), rows,
		func(p *entities.DependenseeProjectReference) []any {
			return []any{p.RunPK, p.SourceProjectPath, p.TargetProjectPath}
		})
}

// InsertPackageReferences bulk-writes NuGet package edges.
func (r *DependenseeRepository) InsertPackageReferences(ctx context.Context, db database.DBTX, rows []*entities.DependenseePackageReference) error {
	return InsertBulk(ctx, r.session, db, DependenseePackageRefsTable.Name, DependenseePackageRefsTable.ColumnNames(), rows,
		func(p *entities.DependenseePackageReference) []any {
			return []any{p.RunPK, p.ProjectPath, p.PackageName, p.PackageVersion}
		})
}
