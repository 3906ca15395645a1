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

// GitBlameAdapter ingests per-file blame summaries and per-author
// aggregates.
type GitBlameAdapter struct {
	repo *repositories.GitBlameRepository
}

// NewGitBlameAdapter creates the git-blame-scanner adapter.
func NewGitBlameAdapter(session *database.Session) *GitBlameAdapter {
	return &GitBlameAdapter{repo: repositories.NewGitBlameRepository(session)}
}

var _ Adapter = &GitBlameAdapter{}

func (a *GitBlameAdapter) Name() string { return "git-blame-scanner" }

func (a *GitBlameAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{
		repositories.GitBlameSummaryTable,
		repositories.GitBlameAuthorStatsTable,
	}
}

func (a *GitBlameAdapter) Policy() schema.ReferentialPolicy { return schema.LenientPolicy }

type gitBlameFile struct {
	Path           string  `json:"path"`
	TotalLines     int64   `json:"total_lines"`
	UniqueAuthors  int64   `json:"unique_authors"`
	TopAuthor      string  `json:"top_author"`
	TopAuthorLines int64   `json:"top_author_lines"`
	TopAuthorPct   float64 `json:"top_author_pct"`
	LastModified   *string `json:"last_modified"`
	Churn30d       int64   `json:"churn_30d"`
	Churn90d       int64   `json:"churn_90d"`
}

type gitBlameAuthor struct {
	AuthorEmail     string  `json:"author_email"`
	TotalFiles      int64   `json:"total_files"`
	TotalLines      int64   `json:"total_lines"`
	ExclusiveFiles  int64   `json:"exclusive_files"`
	AvgOwnershipPct float64 `json:"avg_ownership_pct"`
}

type gitBlamePayload struct {
	Files   []gitBlameFile   `json:"files"`
	Authors []gitBlameAuthor `json:"authors"`
}

func (a *GitBlameAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload gitBlamePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode git-blame-scanner data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	resolver := NewResolver(p, rc, a)

	seenFiles := newDedupSet[string](a.Name(), p.logger)
	files := make([]*entities.GitBlameFileSummary, 0, len(payload.Files))
	for _, f := range payload.Files {
		rec, path, ok, err := resolver.Resolve(f.Path)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if !seenFiles.claim(rec.FileID, fmt.Sprintf("blame summary for %s", path)) {
			continue
		}
		files = append(files, &entities.GitBlameFileSummary{
			RunPK:          rc.RunPK,
			FileID:         rec.FileID,
			DirectoryID:    rec.DirectoryID,
			RelativePath:   path,
			TotalLines:     f.TotalLines,
			UniqueAuthors:  f.UniqueAuthors,
			TopAuthor:      f.TopAuthor,
			TopAuthorLines: f.TopAuthorLines,
			TopAuthorPct:   f.TopAuthorPct,
			LastModified:   f.LastModified,
			Churn30d:       f.Churn30d,
			Churn90d:       f.Churn90d,
		})
	}

	seenAuthors := newDedupSet[string](a.Name(), p.logger)
	authors := make([]*entities.GitBlameAuthorStats, 0, len(payload.Authors))
	for _, au := range payload.Authors {
		if !seenAuthors.claim(au.AuthorEmail, fmt.Sprintf("author %s", au.AuthorEmail)) {
			continue
		}
		authors = append(authors, &entities.GitBlameAuthorStats{
			RunPK:           rc.RunPK,
			AuthorEmail:     au.AuthorEmail,
			TotalFiles:      au.TotalFiles,
			TotalLines:      au.TotalLines,
			ExclusiveFiles:  au.ExclusiveFiles,
			AvgOwnershipPct: au.AvgOwnershipPct,
		})
	}

	if err := a.repo.InsertFileSummaries(ctx, tx, files); err != nil {
		return err
	}
	return a.repo.InsertAuthorStats(ctx, tx, authors)
}

func (a *GitBlameAdapter) checkQuality(payload gitBlamePayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, f := range payload.Files {
		path := pathutil.NormalizeFilePath(f.Path)
		c.Checkf(pathutil.IsRepoRelative(path), "file[%d] path invalid: %s", i, f.Path)
		c.NonNegative(fmt.Sprintf("file[%d].total_lines", i), f.TotalLines)
		c.Checkf(f.UniqueAuthors >= 1, "file[%d] unique_authors must be >= 1, got %d", i, f.UniqueAuthors)
		c.NonEmpty(fmt.Sprintf("file[%d].top_author", i), f.TopAuthor)
		c.Percent(fmt.Sprintf("file[%d].top_author_pct", i), f.TopAuthorPct)
		c.Checkf(f.TopAuthorLines <= f.TotalLines,
			"file[%d] top_author_lines %d exceeds total_lines %d", i, f.TopAuthorLines, f.TotalLines)
		c.Checkf(f.Churn30d >= 0 && f.Churn90d >= 0 && f.Churn30d <= f.Churn90d,
			"file[%d] churn window mismatch: 30d=%d 90d=%d", i, f.Churn30d, f.Churn90d)
	}
	for i, au := range payload.Authors {
		c.NonEmpty(fmt.Sprintf("author[%d].author_email", i), au.AuthorEmail)
		c.NonNegative(fmt.Sprintf("author[%d].total_files", i), au.TotalFiles)
		c.NonNegative(fmt.Sprintf("author[%d].total_lines", i), au.TotalLines)
		c.Checkf(au.ExclusiveFiles >= 0 && au.ExclusiveFiles <= au.TotalFiles,
			"author[%d] exclusive_files %d exceeds total_files %d", i, au.ExclusiveFiles, au.TotalFiles)
		c.Percent(fmt.Sprintf("author[%d].avg_ownership_pct", i), au.AvgOwnershipPct)
	}
	return c.Err(p.logger)
}
