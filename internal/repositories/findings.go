package repositories

import (
	"context"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// SemgrepSmellsTable declares lz_semgrep_smells.
var SemgrepSmellsTable = schema.TableSpec{
	Name: "lz_semgrep_smells",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "rule_id", Type: "TEXT"},
		{Name: "dd_smell_id", Type: "TEXT", Nullable: true},
		{Name: "dd_category", Type: "TEXT", Nullable: true},
		{Name: "severity", Type: "TEXT", Nullable: true},
		{Name: "line_start", Type: "BIGINT", Nullable: true},
		{Name: "line_end", Type: "BIGINT", Nullable: true},
		{Name: "column_start", Type: "BIGINT", Nullable: true},
		{Name: "column_end", Type: "BIGINT", Nullable: true},
		{Name: "message", Type: "TEXT", Nullable: true},
		{Name: "code_snippet", Type: "TEXT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "file_id", "rule_id", "line_start"},
}

// GitleaksSecretsTable declares lz_gitleaks_secrets.
var GitleaksSecretsTable = schema.TableSpec{
	Name: "lz_gitleaks_secrets",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "rule_id", Type: "TEXT"},
		{Name: "secret_type", Type: "TEXT", Nullable: true},
		{Name: "severity", Type: "TEXT", Nullable: true},
		{Name: "line_number", Type: "BIGINT", Nullable: true},
		{Name: "commit_hash", Type: "TEXT", Nullable: true},
		{Name: "commit_author", Type: "TEXT", Nullable: true},
		{Name: "commit_date", Type: "TEXT", Nullable: true},
		{Name: "fingerprint", Type: "TEXT", Nullable: true},
		{Name: "in_current_head", Type: "BOOLEAN", Nullable: true},
		{Name: "entropy", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "description", Type: "TEXT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "file_id", "rule_id", "line_number"},
}

// RoslynViolationsTable declares lz_roslyn_violations.
var RoslynViolationsTable = schema.TableSpec{
	Name: "lz_roslyn_violations",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "rule_id", Type: "TEXT"},
		{Name: "dd_category", Type: "TEXT"},
		{Name: "severity", Type: "TEXT"},
		{Name: "message", Type: "TEXT", Nullable: true},
		{Name: "line_start", Type: "BIGINT", Nullable: true},
		{Name: "line_end", Type: "BIGINT", Nullable: true},
		{Name: "column_start", Type: "BIGINT", Nullable: true},
		{Name: "column_end", Type: "BIGINT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "file_id", "rule_id", "line_start"},
}

// DevskimFindingsTable declares lz_devskim_findings.
var DevskimFindingsTable = schema.TableSpec{
	Name: "lz_devskim_findings",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "rule_id", Type: "TEXT"},
		{Name: "dd_category", Type: "TEXT", Nullable: true},
		{Name: "severity", Type: "TEXT", Nullable: true},
		{Name: "line_start", Type: "BIGINT", Nullable: true},
		{Name: "line_end", Type: "BIGINT", Nullable: true},
		{Name: "column_start", Type: "BIGINT", Nullable: true},
		{Name: "column_end", Type: "BIGINT", Nullable: true},
		{Name: "message", Type: "TEXT", Nullable: true},
		{Name: "code_snippet", Type: "TEXT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "file_id", "rule_id", "line_start"},
}

// SonarqubeIssuesTable declares lz_sonarqube_issues.
var SonarqubeIssuesTable = schema.TableSpec{
	Name: "lz_sonarqube_issues",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "issue_key", Type: "TEXT"},
		{Name: "rule_id", Type: "TEXT"},
		{Name: "issue_type", Type: "TEXT", Nullable: true},
		{Name: "severity", Type: "TEXT", Nullable: true},
		{Name: "message", Type: "TEXT", Nullable: true},
		{Name: "line_start", Type: "BIGINT", Nullable: true},
		{Name: "line_end", Type: "BIGINT", Nullable: true},
		{Name: "effort", Type: "TEXT", Nullable: true},
		{Name: "status", Type: "TEXT", Nullable: true},
		{Name: "tags", Type: "TEXT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "file_id", "issue_key"},
}

// SonarqubeMetricsTable declares lz_sonarqube_metrics.
var SonarqubeMetricsTable = schema.TableSpec{
	Name: "lz_sonarqube_metrics",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "ncloc", Type: "BIGINT", Nullable: true},
		{Name: "complexity", Type: "BIGINT", Nullable: true},
		{Name: "cognitive_complexity", Type: "BIGINT", Nullable: true},
		{Name: "duplicated_lines", Type: "BIGINT", Nullable: true},
		{Name: "duplicated_lines_density", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "code_smells", Type: "BIGINT", Nullable: true},
		{Name: "bugs", Type: "BIGINT", Nullable: true},
		{Name: "vulnerabilities", Type: "BIGINT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "file_id"},
}

// SemgrepRepository manages lz_semgrep_smells.
type SemgrepRepository struct {
	session *database.Session
}

// NewSemgrepRepository creates a semgrep repository bound to one session.
func NewSemgrepRepository(session *database.Session) *SemgrepRepository {
	return &SemgrepRepository{session: session}
}

// InsertSmells bulk-writes smell rows.
func (r *SemgrepRepository) InsertSmells(ctx context.Context, db database.DBTX, rows []*entities.SemgrepSmell) error {
	return InsertBulk(ctx, r.session, db, SemgrepSmellsTable.Name, SemgrepSmellsTable.ColumnNames(), rows,
		func(s *entities.SemgrepSmell) []any {
			return []any{
				s.RunPK, s.FileID, s.DirectoryID, s.RelativePath, s.RuleID,
				s.SmellID, s.Category, s.Severity, s.LineStart, s.LineEnd,
				s.ColumnStart, s.ColumnEnd, s.Message, s.CodeSnippet,
			}
		})
}

// GitleaksRepository manages lz_gitleaks_secrets.
type GitleaksRepository struct {
	session *database.Session
}

// NewGitleaksRepository creates a gitleaks repository bound to one session.
func NewGitleaksRepository(session *database.Session) *GitleaksRepository {
	return &GitleaksRepository{session: session}
}

// InsertSecrets bulk-writes secret findings.
func (r *GitleaksRepository) InsertSecrets(ctx context.Context, db database.DBTX, rows []*entities.GitleaksSecret) error {
	return InsertBulk(ctx, r.session, db, GitleaksSecretsTable.Name, GitleaksSecretsTable.ColumnNames(), rows,
		func(s *entities.GitleaksSecret) []any {
			return []any{
				s.RunPK, s.FileID, s.DirectoryID, s.RelativePath, s.RuleID,
				s.SecretType, s.Severity, s.LineNumber, s.CommitHash, s.CommitAuthor,
				s.CommitDate, s.Fingerprint, s.InCurrentHead, s.Entropy, s.Description,
			}
		})
}

// RoslynRepository manages lz_roslyn_violations.
type RoslynRepository struct {
	session *database.Session
}

// NewRoslynRepository creates a roslyn repository bound to one session.
func NewRoslynRepository(session *database.Session) *RoslynRepository {
	return &RoslynRepository{session: session}
}

// InsertViolations bulk-writes analyzer violations.
func (r *RoslynRepository) InsertViolations(ctx context.Context, db database.DBTX, rows []*entities.RoslynViolation) error {
	return InsertBulk(ctx, r.session, db, RoslynViolationsTable.Name, RoslynViolationsTable.ColumnNames(), rows,
		func(v *entities.RoslynViolation) []any {
			return []any{
				v.RunPK, v.FileID, v.DirectoryID, v.RelativePath, v.RuleID,
				v.Category, v.Severity, v.Message, v.LineStart, v.LineEnd,
				v.ColumnStart, v.ColumnEnd,
			}
		})
}

// DevskimRepository manages lz_devskim_findings.
type DevskimRepository struct {
	session *database.Session
}

// NewDevskimRepository creates a devskim repository bound to one session.
func NewDevskimRepository(session *database.Session) *DevskimRepository {
	return &DevskimRepository{session: session}
}

// InsertFindings bulk-writes security findings.
func (r *DevskimRepository) InsertFindings(ctx context.Context, db database.DBTX, rows []*entities.DevskimFinding) error {
	return InsertBulk(ctx, r.session, db, DevskimFindingsTable.Name, DevskimFindingsTable.ColumnNames(), rows,
		func(f *entities.DevskimFinding) []any {
			return []any{
				f.RunPK, f.FileID, f.DirectoryID, f.RelativePath, f.RuleID,
				f.Category, f.Severity, f.LineStart, f.LineEnd,
				f.ColumnStart, f.ColumnEnd, f.Message, f.CodeSnippet,
			}
		})
}

// SonarqubeRepository manages the sonarqube issue and metric tables.
type SonarqubeRepository struct {
	session *database.Session
}

// NewSonarqubeRepository creates a sonarqube repository bound to one session.
func NewSonarqubeRepository(session *database.Session) *SonarqubeRepository {
	return &SonarqubeRepository{session: session}
}

// InsertIssues bulk-writes issue rows.
func (r *SonarqubeRepository) InsertIssues(ctx context.Context, db database.DBTX, rows []*entities.SonarqubeIssue) error {
	return InsertBulk(ctx, r.session, db, SonarqubeIssuesTable.Name, SonarqubeIssuesTable.ColumnNames(), rows,
		func(i *entities.SonarqubeIssue) []any {
			return []any{
				i.RunPK, i.FileID, i.DirectoryID, i.RelativePath, i.IssueKey,
				i.RuleID, i.IssueType, i.Severity, i.Message, i.LineStart, i.LineEnd,
				i.Effort, i.Status, i.Tags,
			}
		})
}

// InsertMetrics bulk-writes per-file metric rows.
func (r *SonarqubeRepository) InsertMetrics(ctx context.Context, db database.DBTX, rows []*entities.SonarqubeMetric) error {
	return InsertBulk(ctx, r.session, db, SonarqubeMetricsTable.Name, SonarqubeMetricsTable.ColumnNames(), rows,
		func(m *entities.SonarqubeMetric) []any {
			return []any{
				m.RunPK, m.FileID, m.DirectoryID, m.RelativePath, m.Ncloc,
				m.Complexity, m.CognitiveComplexity, m.DuplicatedLines,
				m.DuplicatedLinesDensity, m.CodeSmells, m.Bugs, m.Vulnerabilities,
			}
		})
}
