package repositories

import (
	"context"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// TrivyTargetsTable declares lz_trivy_targets.
var TrivyTargetsTable = schema.TableSpec{
	Name: "lz_trivy_targets",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "target_key", Type: "TEXT"},
		{Name: "file_id", Type: "TEXT", Nullable: true},
		{Name: "directory_id", Type: "TEXT", Nullable: true},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "target_type", Type: "TEXT", Nullable: true},
		{Name: "vulnerability_count", Type: "BIGINT"},
		{Name: "critical_count", Type: "BIGINT"},
		{Name: "high_count", Type: "BIGINT"},
		{Name: "medium_count", Type: "BIGINT"},
		{Name: "low_count", Type: "BIGINT"},
	},
	PrimaryKey: []string{"run_pk", "target_key"},
}

// TrivyVulnerabilitiesTable declares lz_trivy_vulnerabilities.
var TrivyVulnerabilitiesTable = schema.TableSpec{
	Name: "lz_trivy_vulnerabilities",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "target_key", Type: "TEXT"},
		{Name: "vulnerability_id", Type: "TEXT"},
		{Name: "package_name", Type: "TEXT"},
		{Name: "installed_version", Type: "TEXT", Nullable: true},
		{Name: "fixed_version", Type: "TEXT", Nullable: true},
		{Name: "severity", Type: "TEXT", Nullable: true},
		{Name: "cvss_score", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "title", Type: "TEXT", Nullable: true},
		{Name: "published_date", Type: "TEXT", Nullable: true},
		{Name: "age_days", Type: "BIGINT", Nullable: true},
		{Name: "fix_available", Type: "BOOLEAN", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "target_key", "vulnerability_id", "package_name"},
}

// TrivyIacMisconfigsTable declares lz_trivy_iac_misconfigs.
var TrivyIacMisconfigsTable = schema.TableSpec{
	Name: "lz_trivy_iac_misconfigs",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT", Nullable: true},
		{Name: "directory_id", Type: "TEXT", Nullable: true},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "misconfig_id", Type: "TEXT"},
		{Name: "severity", Type: "TEXT", Nullable: true},
		{Name: "title", Type: "TEXT", Nullable: true},
		{Name: "description", Type: "TEXT", Nullable: true},
		{Name: "resolution", Type: "TEXT", Nullable: true},
		{Name: "target_type", Type: "TEXT", Nullable: true},
		{Name: "start_line", Type: "BIGINT", Nullable: true},
		{Name: "end_line", Type: "BIGINT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "relative_path", "misconfig_id", "start_line"},
}

// TrivyRepository manages the trivy landing tables.
type TrivyRepository struct {
	session *database.Session
}

// NewTrivyRepository creates a trivy repository bound to one session.
func NewTrivyRepository(session *database.Session) *TrivyRepository {
	return &TrivyRepository{session: session}
}

// InsertTargets bulk-writes scan target rows.
func (r *TrivyRepository) InsertTargets(ctx context.Context, db database.DBTX, rows []*entities.TrivyTarget) error {
	return InsertBulk(ctx, r.session, db, TrivyTargetsTable.Name, TrivyTargetsTable.ColumnNames(), rows,
		func(t *entities.TrivyTarget) []any {
			return []any{
				t.RunPK, t.TargetKey, t.FileID, t.DirectoryID, t.RelativePath,
				t.TargetType, t.VulnerabilityCount, t.CriticalCount,
				t.HighCount, t.MediumCount, t.LowCount,
			}
		})
}

// InsertVulnerabilities bulk-writes vulnerability rows.
func (r *TrivyRepository) InsertVulnerabilities(ctx context.Context, db database.DBTX, rows []*entities.TrivyVulnerability) error {
	return InsertBulk(ctx, r.session, db, TrivyVulnerabilitiesTable.Name, TrivyVulnerabilitiesTable.ColumnNames(), rows,
		func(v *entities.TrivyVulnerability) []any {
			return []any{
				v.RunPK, v.TargetKey, v.VulnerabilityID, v.PackageName,
				v.InstalledVersion, v.FixedVersion, v.Severity, v.CvssScore,
				v.Title, v.PublishedDate, v.AgeDays, v.FixAvailable,
			}
		})
}

// InsertIacMisconfigs bulk-writes IaC misconfiguration rows.
func (r *TrivyRepository) InsertIacMisconfigs(ctx context.Context, db database.DBTX, rows []*entities.TrivyIacMisconfig) error {
	return InsertBulk(ctx, r.session, db, TrivyIacMisconfigsTable.Name, TrivyIacMisconfigsTable.ColumnNames(), rows,
		func(m *entities.TrivyIacMisconfig) []any {
			return []any{
				m.RunPK, m.FileID, m.DirectoryID, m.RelativePath, m.MisconfigID,
				m.Severity, m.Title, m.Description, m.Resolution, m.TargetType,
				m.StartLine, m.EndLine,
			}
		})
}
