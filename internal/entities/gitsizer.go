package entities

import "fmt"

// GitSizerMetric is the single repository-level row in lz_git_sizer_metrics.
type GitSizerMetric struct {
	RunPK       int64
	RepoID      string
	HealthGrade string
	DurationMs  int64

	CommitCount     int64
	CommitTotalSize int64
	MaxCommitSize   int64
	MaxHistoryDepth int64
	MaxParentCount  int64

	TreeCount        int64
	TreeTotalSize    int64
	TreeTotalEntries int64
	MaxTreeEntries   int64

	BlobCount     int64
	BlobTotalSize int64
	MaxBlobSize   int64

	TagCount    int64
	MaxTagDepth int64

	ReferenceCount int64
	BranchCount    int64

	MaxPathDepth  int64
	MaxPathLength int64

	ExpandedTreeCount int64
	ExpandedBlobCount int64
	ExpandedBlobSize  int64
}

// Validate implements Entity.
func (m *GitSizerMetric) Validate() error {
	if err := firstError(
		requirePK(m.RunPK),
		requireIdent("repo_id", m.RepoID),
		oneOf("health_grade", m.HealthGrade, HealthGrades),
	); err != nil {
		return err
	}
	counters := map[string]int64{
		"duration_ms":         m.DurationMs,
		"commit_count":        m.CommitCount,
		"commit_total_size":   m.CommitTotalSize,
		"max_commit_size":     m.MaxCommitSize,
		"max_history_depth":   m.MaxHistoryDepth,
		"max_parent_count":    m.MaxParentCount,
		"tree_count":          m.TreeCount,
		"tree_total_size":     m.TreeTotalSize,
		"tree_total_entries":  m.TreeTotalEntries,
		"max_tree_entries":    m.MaxTreeEntries,
		"blob_count":          m.BlobCount,
		"blob_total_size":     m.BlobTotalSize,
		"max_blob_size":       m.MaxBlobSize,
		"tag_count":           m.TagCount,
		"max_tag_depth":       m.MaxTagDepth,
		"reference_count":     m.ReferenceCount,
		"branch_count":        m.BranchCount,
		"max_path_depth":      m.MaxPathDepth,
		"max_path_length":     m.MaxPathLength,
		"expanded_tree_count": m.ExpandedTreeCount,
		"expanded_blob_count": m.ExpandedBlobCount,
		"expanded_blob_size":  m.ExpandedBlobSize,
	}
	for field, v := range counters {
		if err := nonNegInt(field, v); err != nil {
			return err
		}
	}
	return nil
}

// GitSizerViolation is one row in lz_git_sizer_violations.
type GitSizerViolation struct {
	RunPK        int64
	Metric       string
	ValueDisplay string
	RawValue     int64
	Level        int64
	ObjectRef    *string
}

// Validate implements Entity.
func (v *GitSizerViolation) Validate() error {
	if err := firstError(
		requirePK(v.RunPK),
		requireString("metric", v.Metric),
	); err != nil {
		return err
	}
	if v.Level < 1 || v.Level > 4 {
		return fmt.Errorf("level must be 1-4, got %d", v.Level)
	}
	return nil
}

// GitSizerLfsCandidate is one row in lz_git_sizer_lfs_candidates.
type GitSizerLfsCandidate struct {
	RunPK    int64
	FilePath string
}

// Validate implements Entity.
func (c *GitSizerLfsCandidate) Validate() error {
	return firstError(
		requirePK(c.RunPK),
		requirePath("file_path", c.FilePath),
	)
}
