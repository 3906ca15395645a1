package entities

import "fmt"

// GitFameAuthor is one row in lz_git_fame_authors.
type GitFameAuthor struct {
	RunPK           int64
	AuthorName      string
	AuthorEmail     *string
	SurvivingLoc    int64
	OwnershipPct    float64
	InsertionsTotal int64
	DeletionsTotal  int64
	CommitCount     int64
	FilesTouched    int64
}

// Validate implements Entity.
func (a *GitFameAuthor) Validate() error {
	return firstError(
		requirePK(a.RunPK),
		requireString("author_name", a.AuthorName),
		nonNegInt("surviving_loc", a.SurvivingLoc),
		bounded("ownership_pct", a.OwnershipPct, 0, 100),
		nonNegInt("insertions_total", a.InsertionsTotal),
		nonNegInt("deletions_total", a.DeletionsTotal),
		nonNegInt("commit_count", a.CommitCount),
		nonNegInt("files_touched", a.FilesTouched),
	)
}

// GitFameSummary is the single repository-level row in lz_git_fame_summary.
type GitFameSummary struct {
	RunPK        int64
	RepoID       string
	AuthorCount  int64
	TotalLoc     int64
	HhiIndex     float64
	BusFactor    int64
	TopAuthorPct float64
	TopTwoPct    float64
}

// Validate implements Entity.
func (s *GitFameSummary) Validate() error {
	if err := firstError(
		requirePK(s.RunPK),
		requireIdent("repo_id", s.RepoID),
		nonNegInt("author_count", s.AuthorCount),
		nonNegInt("total_loc", s.TotalLoc),
		bounded("hhi_index", s.HhiIndex, 0, 1),
		nonNegInt("bus_factor", s.BusFactor),
		bounded("top_author_pct", s.TopAuthorPct, 0, 100),
		bounded("top_two_pct", s.TopTwoPct, 0, 100),
	); err != nil {
		return err
	}
	if s.BusFactor > s.AuthorCount {
		return fmt.Errorf("bus_factor %d exceeds author_count %d", s.BusFactor, s.AuthorCount)
	}
	return nil
}

// GitBlameFileSummary is one row in lz_git_blame_summary.
type GitBlameFileSummary struct {
	RunPK          int64
	FileID         string
	DirectoryID    string
	RelativePath   string
	TotalLines     int64
	UniqueAuthors  int64
	TopAuthor      string
	TopAuthorLines int64
	TopAuthorPct   float64
	LastModified   *string // YYYY-MM-DD
	Churn30d       int64
	Churn90d       int64
}

// Validate implements Entity.
func (s *GitBlameFileSummary) Validate() error {
	if err := firstError(
		requirePK(s.RunPK),
		requireIdent("file_id", s.FileID),
		requirePath("relative_path", s.RelativePath),
		nonNegInt("total_lines", s.TotalLines),
		nonNegInt("top_author_lines", s.TopAuthorLines),
		bounded("top_author_pct", s.TopAuthorPct, 0, 100),
		nonNegInt("churn_30d", s.Churn30d),
		nonNegInt("churn_90d", s.Churn90d),
	); err != nil {
		return err
	}
	if s.UniqueAuthors < 1 {
		return fmt.Errorf("unique_authors must be >= 1, got %d", s.UniqueAuthors)
	}
	if s.Churn30d > s.Churn90d {
		return fmt.Errorf("churn_30d %d cannot exceed churn_90d %d", s.Churn30d, s.Churn90d)
	}
	return nil
}

// GitBlameAuthorStats is one row in lz_git_blame_author_stats.
type GitBlameAuthorStats struct {
	RunPK           int64
	AuthorEmail     string
	TotalFiles      int64
	TotalLines      int64
	ExclusiveFiles  int64
	AvgOwnershipPct float64
}

// Validate implements Entity.
func (s *GitBlameAuthorStats) Validate() error {
	if err := firstError(
		requirePK(s.RunPK),
		requireString("author_email", s.AuthorEmail),
		nonNegInt("total_files", s.TotalFiles),
		nonNegInt("total_lines", s.TotalLines),
		nonNegInt("exclusive_files", s.ExclusiveFiles),
		bounded("avg_ownership_pct", s.AvgOwnershipPct, 0, 100),
	); err != nil {
		return err
	}
	if s.ExclusiveFiles > s.TotalFiles {
		return fmt.Errorf("exclusive_files %d cannot exceed total_files %d", s.ExclusiveFiles, s.TotalFiles)
	}
	return nil
}
