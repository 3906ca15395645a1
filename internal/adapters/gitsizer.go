package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/internal/pathutil"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/internal/validation"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// GitSizerAdapter ingests repository-level git-sizer health metrics. The
// payload carries no source paths, so it never consults the file catalog.
type GitSizerAdapter struct {
	repo *repositories.GitSizerRepository
}

// NewGitSizerAdapter creates the git-sizer adapter.
func NewGitSizerAdapter(session *database.Session) *GitSizerAdapter {
	return &GitSizerAdapter{repo: repositories.NewGitSizerRepository(session)}
}

var _ Adapter = &GitSizerAdapter{}

func (a *GitSizerAdapter) Name() string { return "git-sizer" }

func (a *GitSizerAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{
		repositories.GitSizerMetricsTable,
		repositories.GitSizerViolationsTable,
		repositories.GitSizerLfsCandidatesTable,
	}
}

func (a *GitSizerAdapter) Policy() schema.ReferentialPolicy { return schema.LenientPolicy }

type gitSizerViolation struct {
	Metric       string  `json:"metric"`
	ValueDisplay string  `json:"value_display"`
	RawValue     int64   `json:"raw_value"`
	Level        int64   `json:"level"`
	ObjectRef    *string `json:"object_ref"`
}

type gitSizerPayload struct {
	HealthGrade   string              `json:"health_grade"`
	DurationMs    int64               `json:"duration_ms"`
	Metrics       map[string]int64    `json:"metrics"`
	Violations    []gitSizerViolation `json:"violations"`
	LfsCandidates []string            `json:"lfs_candidates"`
}

func (a *GitSizerAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload gitSizerPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode git-sizer data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	m := payload.Metrics
	metric := &entities.GitSizerMetric{
		RunPK:       rc.RunPK,
		RepoID:      rc.Metadata.RepoID,
		HealthGrade: payload.HealthGrade,
		DurationMs:  payload.DurationMs,

		CommitCount:     m["commit_count"],
		CommitTotalSize: m["commit_total_size"],
		MaxCommitSize:   m["max_commit_size"],
		MaxHistoryDepth: m["max_history_depth"],
		MaxParentCount:  m["max_parent_count"],

		TreeCount:        m["tree_count"],
		TreeTotalSize:    m["tree_total_size"],
		TreeTotalEntries: m["tree_total_entries"],
		MaxTreeEntries:   m["max_tree_entries"],

		BlobCount:     m["blob_count"],
		BlobTotalSize: m["blob_total_size"],
		MaxBlobSize:   m["max_blob_size"],

		TagCount:    m["tag_count"],
		MaxTagDepth: m["max_tag_depth"],

		ReferenceCount: m["reference_count"],
		BranchCount:    m["branch_count"],

		MaxPathDepth:  m["max_path_depth"],
		MaxPathLength: m["max_path_length"],

		ExpandedTreeCount: m["expanded_tree_count"],
		ExpandedBlobCount: m["expanded_blob_count"],
		ExpandedBlobSize:  m["expanded_blob_size"],
	}

	violations := make([]*entities.GitSizerViolation, 0, len(payload.Violations))
	for _, v := range payload.Violations {
		violations = append(violations, &entities.GitSizerViolation{
			RunPK:        rc.RunPK,
			Metric:       v.Metric,
			ValueDisplay: v.ValueDisplay,
			RawValue:     v.RawValue,
			Level:        v.Level,
			ObjectRef:    v.ObjectRef,
		})
	}

	seen := newDedupSet[string](a.Name(), p.logger)
	candidates := make([]*entities.GitSizerLfsCandidate, 0, len(payload.LfsCandidates))
	for _, raw := range payload.LfsCandidates {
		path := pathutil.NormalizeFilePath(raw)
		if !seen.claim(path, fmt.Sprintf("lfs candidate %s", path)) {
			continue
		}
		candidates = append(candidates, &entities.GitSizerLfsCandidate{
			RunPK:    rc.RunPK,
			FilePath: path,
		})
	}

	if err := a.repo.InsertMetrics(ctx, tx, []*entities.GitSizerMetric{metric}); err != nil {
		return err
	}
	if err := a.repo.InsertViolations(ctx, tx, violations); err != nil {
		return err
	}
	return a.repo.InsertLfsCandidates(ctx, tx, candidates)
}

func (a *GitSizerAdapter) checkQuality(payload gitSizerPayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	c.OneOf("health_grade", payload.HealthGrade, entities.HealthGrades)
	c.NonNegative("duration_ms", payload.DurationMs)
	for name, v := range payload.Metrics {
		c.NonNegative("metrics."+name, v)
	}
	for i, v := range payload.Violations {
		c.NonEmpty(fmt.Sprintf("violation[%d].metric", i), v.Metric)
		c.Checkf(v.Level >= 1 && v.Level <= 4, "violation[%d] level out of range: %d", i, v.Level)
	}
	for i, path := range payload.LfsCandidates {
		c.NonEmpty(fmt.Sprintf("lfs_candidate[%d]", i), path)
	}
	return c.Err(p.logger)
}
