package repositories

import (
	"context"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// GitSizerMetricsTable declares lz_git_sizer_metrics.
var GitSizerMetricsTable = schema.TableSpec{
	Name: "lz_git_sizer_metrics",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "repo_id", Type: "TEXT"},
		{Name: "health_grade", Type: "TEXT"},
		{Name: "duration_ms", Type: "BIGINT"},
		{Name: "commit_count", Type: "BIGINT"},
		{Name: "commit_total_size", Type: "BIGINT"},
		{Name: "max_commit_size", Type: "BIGINT"},
		{Name: "max_history_depth", Type: "BIGINT"},
		{Name: "max_parent_count", Type: "BIGINT"},
		{Name: "tree_count", Type: "BIGINT"},
		{Name: "tree_total_size", Type: "BIGINT"},
		{Name: "tree_total_entries", Type: "BIGINT"},
		{Name: "max_tree_entries", Type: "BIGINT"},
		{Name: "blob_count", Type: "BIGINT"},
		{Name: "blob_total_size", Type: "BIGINT"},
		{Name: "max_blob_size", Type: "BIGINT"},
		{Name: "tag_count", Type: "BIGINT"},
		{Name: "max_tag_depth", Type: "BIGINT"},
		{Name: "reference_count", Type: "BIGINT"},
		{Name: "branch_count", Type: "BIGINT"},
		{Name: "max_path_depth", Type: "BIGINT"},
		{Name: "max_path_length", Type: "BIGINT"},
		{Name: "expanded_tree_count", Type: "BIGINT"},
		{Name: "expanded_blob_count", Type: "BIGINT"},
		{Name: "expanded_blob_size", Type: "BIGINT"},
	},
	PrimaryKey: []string{"run_pk"},
}

// GitSizerViolationsTable declares lz_git_sizer_violations.
var GitSizerViolationsTable = schema.TableSpec{
	Name: "lz_git_sizer_violations",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "metric", Type: "TEXT"},
		{Name: "value_display", Type: "TEXT"},
		{Name: "raw_value", Type: "BIGINT"},
		{Name: "level", Type: "BIGINT"},
		{Name: "object_ref", Type: "TEXT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "metric"},
}

// GitSizerLfsCandidatesTable declares lz_git_sizer_lfs_candidates.
var GitSizerLfsCandidatesTable = schema.TableSpec{
	Name: "lz_git_sizer_lfs_candidates",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_path", Type: "TEXT"},
	},
	PrimaryKey: []string{"run_pk", "file_path"},
}

// GitFameAuthorsTable declares lz_git_fame_authors.
var GitFameAuthorsTable = schema.TableSpec{
	Name: "lz_git_fame_authors",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "author_name", Type: "TEXT"},
		{Name: "author_email", Type: "TEXT", Nullable: true},
		{Name: "surviving_loc", Type: "BIGINT"},
		{Name: "ownership_pct", Type: "DOUBLE PRECISION"},
		{Name: "insertions_total", Type: "BIGINT"},
		{Name: "deletions_total", Type: "BIGINT"},
		{Name: "commit_count", Type: "BIGINT"},
		{Name: "files_touched", Type: "BIGINT"},
	},
	PrimaryKey: []string{"run_pk", "author_name"},
}

// GitFameSummaryTable declares lz_git_fame_summary.
var GitFameSummaryTable = schema.TableSpec{
	Name: "lz_git_fame_summary",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "repo_id", Type: "TEXT"},
		{Name: "author_count", Type: "BIGINT"},
		{Name: "total_loc", Type: "BIGINT"},
		{Name: "hhi_index", Type: "DOUBLE PRECISION"},
		{Name: "bus_factor", Type: "BIGINT"},
		{Name: "top_author_pct", Type: "DOUBLE PRECISION"},
		{Name: "top_two_pct", Type: "DOUBLE PRECISION"},
	},
	PrimaryKey: []string{"run_pk"},
}

// GitBlameSummaryTable declares lz_git_blame_summary.
var GitBlameSummaryTable = schema.TableSpec{
	Name: "lz_git_blame_summary",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "total_lines", Type: "BIGINT"},
		{Name: "unique_authors", Type: "BIGINT"},
		{Name: "top_author", Type: "TEXT"},
		{Name: "top_author_lines", Type: "BIGINT"},
		{Name: "top_author_pct", Type: "DOUBLE PRECISION"},
		{Name: "last_modified", Type: "TEXT", Nullable: true},
		{Name: "churn_30d", Type: "BIGINT"},
		{Name: "churn_90d", Type: "BIGINT"},
	},
	PrimaryKey: []string{"run_pk", "file_id"},
}

// GitBlameAuthorStatsTable declares lz_git_blame_author_stats.
var GitBlameAuthorStatsTable = schema.TableSpec{
	Name: "lz_git_blame_author_stats",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "author_email", Type: "TEXT"},
		{Name: "total_files", Type: "BIGINT"},
		{Name: "total_lines", Type: "BIGINT"},
		{Name: "exclusive_files", Type: "BIGINT"},
		{Name: "avg_ownership_pct", Type: "DOUBLE PRECISION"},
	},
	PrimaryKey: []string{"run_pk", "author_email"},
}

// GitSizerRepository manages the git-sizer landing tables.
type GitSizerRepository struct {
	session *database.Session
}

// NewGitSizerRepository creates a git-sizer repository bound to one session.
func NewGitSizerRepository(session *database.Session) *GitSizerRepository {
	return &GitSizerRepository{session: session}
}

// InsertMetrics writes the repository-level metric row.
func (r *GitSizerRepository) InsertMetrics(ctx context.Context, db database.DBTX, rows []*entities.GitSizerMetric) error {
	return InsertBulk(ctx, r.session, db, GitSizerMetricsTable.Name, GitSizerMetricsTable.ColumnNames(), rows,
		func(m *entities.GitSizerMetric) []any {
			return []any{
				m.RunPK, m.RepoID, m.HealthGrade, m.DurationMs,
				m.CommitCount, m.CommitTotalSize, m.MaxCommitSize,
				m.MaxHistoryDepth, m.MaxParentCount,
				m.TreeCount, m.TreeTotalSize, m.TreeTotalEntries, m.MaxTreeEntries,
				m.BlobCount, m.BlobTotalSize, m.MaxBlobSize,
				m.TagCount, m.MaxTagDepth,
				m.ReferenceCount, m.BranchCount,
				m.MaxPathDepth, m.MaxPathLength,
				m.ExpandedTreeCount, m.ExpandedBlobCount, m.ExpandedBlobSize,
			}
		})
}

// InsertViolations bulk-writes threshold violations.
func (r *GitSizerRepository) InsertViolations(ctx context.Context, db database.DBTX, rows []*entities.GitSizerViolation) error {
	return InsertBulk(ctx, r.session, db, GitSizerViolationsTable.Name, GitSizerViolationsTable.ColumnNames(), rows,
		func(v *entities.GitSizerViolation) []any {
			return []any{v.RunPK, v.Metric, v.ValueDisplay, v.RawValue, v.Level, v.ObjectRef}
		})
}

// InsertLfsCandidates bulk-writes LFS migration candidates.
func (r *GitSizerRepository) InsertLfsCandidates(ctx context.Context, db database.DBTX, rows []*entities.GitSizerLfsCandidate) error {
	return InsertBulk(ctx, r.session, db, GitSizerLfsCandidatesTable.Name, GitSizerLfsCandidatesTable.ColumnNames(), rows,
		func(c *entities.GitSizerLfsCandidate) []any {
			return []any{c.RunPK, c.FilePath}
		})
}

// GitFameRepository manages the git-fame landing tables.
type GitFameRepository struct {
	session *database.Session
}

// NewGitFameRepository creates a git-fame repository bound to one session.
func NewGitFameRepository(session *database.Session) *GitFameRepository {
	return &GitFameRepository{session: session}
}

// InsertAuthors bulk-writes per-author authorship metrics.
func (r *GitFameRepository) InsertAuthors(ctx context.Context, db database.DBTX, rows []*entities.GitFameAuthor) error {
	return InsertBulk(ctx, r.session, db, GitFameAuthorsTable.Name, GitFameAuthorsTable.ColumnNames(), rows,
		func(a *entities.GitFameAuthor) []any {
			return []any{
				a.RunPK, a.AuthorName, a.AuthorEmail, a.SurvivingLoc,
				a.OwnershipPct, a.InsertionsTotal, a.DeletionsTotal,
				a.CommitCount, a.FilesTouched,
			}
		})
}

// InsertSummary writes the repository-level summary row.
func (r *GitFameRepository) InsertSummary(ctx context.Context, db database.DBTX, rows []*entities.GitFameSummary) error {
	return InsertBulk(ctx, r.session, db, GitFameSummaryTable.Name, GitFameSummaryTable.ColumnNames(), rows,
		func(s *entities.GitFameSummary) []any {
			return []any{
				s.RunPK, s.RepoID, s.AuthorCount, s.TotalLoc,
				s.HhiIndex, s.BusFactor, s.TopAuthorPct, s.TopTwoPct,
			}
		})
}

// GitBlameRepository manages the git-blame-scanner landing tables.
type GitBlameRepository struct {
	session *database.Session
}

// NewGitBlameRepository creates a git-blame repository bound to one session.
func NewGitBlameRepository(session *database.Session) *GitBlameRepository {
	return &GitBlameRepository{session: session}
}

// InsertFileSummaries bulk-writes per-file authorship summaries.
func (r *GitBlameRepository) InsertFileSummaries(ctx context.Context, db database.DBTX, rows []*entities.GitBlameFileSummary) error {
	return InsertBulk(ctx, r.session, db, GitBlameSummaryTable.Name, GitBlameSummaryTable.ColumnNames(), rows,
		func(s *entities.GitBlameFileSummary) []any {
			return []any{
				s.RunPK, s.FileID, s.DirectoryID, s.RelativePath,
				s.TotalLines, s.UniqueAuthors, s.TopAuthor, s.TopAuthorLines,
				s.TopAuthorPct, s.LastModified, s.Churn30d, s.Churn90d,
			}
		})
}

// InsertAuthorStats bulk-writes per-author aggregates.
func (r *GitBlameRepository) InsertAuthorStats(ctx context.Context, db database.DBTX, rows []*entities.GitBlameAuthorStats) error {
	return InsertBulk(ctx, r.session, db, GitBlameAuthorStatsTable.Name, GitBlameAuthorStatsTable.ColumnNames(), rows,
		func(s *entities.GitBlameAuthorStats) []any {
			return []any{
				s.RunPK, s.AuthorEmail, s.TotalFiles, s.TotalLines,
				s.ExclusiveFiles, s.AvgOwnershipPct,
			}
		})
}
