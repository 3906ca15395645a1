package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/internal/validation"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// GitFameAdapter ingests per-author surviving-line ownership and the
// repository concentration summary.
type GitFameAdapter struct {
	repo *repositories.GitFameRepository
}

// NewGitFameAdapter creates the git-fame adapter.
func NewGitFameAdapter(session *database.Session) *GitFameAdapter {
	return &GitFameAdapter{repo: repositories.NewGitFameRepository(session)}
}

var _ Adapter = &GitFameAdapter{}

func (a *GitFameAdapter) Name() string { return "git-fame" }

func (a *GitFameAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{
		repositories.GitFameAuthorsTable,
		repositories.GitFameSummaryTable,
	}
}

func (a *GitFameAdapter) Policy() schema.ReferentialPolicy { return schema.LenientPolicy }

type gitFameAuthor struct {
	Name            string  `json:"name"`
	Email           *string `json:"email"`
	SurvivingLoc    int64   `json:"surviving_loc"`
	OwnershipPct    float64 `json:"ownership_pct"`
	InsertionsTotal int64   `json:"insertions_total"`
	DeletionsTotal  int64   `json:"deletions_total"`
	CommitCount     int64   `json:"commit_count"`
	FilesTouched    int64   `json:"files_touched"`
}

type gitFamePayload struct {
	Authors []gitFameAuthor `json:"authors"`
	Summary struct {
		AuthorCount  int64   `json:"author_count"`
		TotalLoc     int64   `json:"total_loc"`
		HhiIndex     float64 `json:"hhi_index"`
		BusFactor    int64   `json:"bus_factor"`
		TopAuthorPct float64 `json:"top_author_pct"`
		TopTwoPct    float64 `json:"top_two_pct"`
	} `json:"summary"`
}

func (a *GitFameAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload gitFamePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode git-fame data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	seen := newDedupSet[string](a.Name(), p.logger)
	authors := make([]*entities.GitFameAuthor, 0, len(payload.Authors))
	for _, au := range payload.Authors {
		if !seen.claim(au.Name, fmt.Sprintf("author %s", au.Name)) {
			continue
		}
		authors = append(authors, &entities.GitFameAuthor{
			RunPK:           rc.RunPK,
			AuthorName:      au.Name,
			AuthorEmail:     au.Email,
			SurvivingLoc:    au.SurvivingLoc,
			OwnershipPct:    au.OwnershipPct,
			InsertionsTotal: au.InsertionsTotal,
			DeletionsTotal:  au.DeletionsTotal,
			CommitCount:     au.CommitCount,
			FilesTouched:    au.FilesTouched,
		})
	}

	summary := &entities.GitFameSummary{
		RunPK:        rc.RunPK,
		RepoID:       rc.Metadata.RepoID,
		AuthorCount:  payload.Summary.AuthorCount,
		TotalLoc:     payload.Summary.TotalLoc,
		HhiIndex:     payload.Summary.HhiIndex,
		BusFactor:    payload.Summary.BusFactor,
		TopAuthorPct: payload.Summary.TopAuthorPct,
		TopTwoPct:    payload.Summary.TopTwoPct,
	}

	if err := a.repo.InsertAuthors(ctx, tx, authors); err != nil {
		return err
	}
	return a.repo.InsertSummary(ctx, tx, []*entities.GitFameSummary{summary})
}

func (a *GitFameAdapter) checkQuality(payload gitFamePayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	var totalPct float64
	for i, au := range payload.Authors {
		c.NonEmpty(fmt.Sprintf("author[%d].name", i), au.Name)
		c.NonNegative(fmt.Sprintf("author[%d].surviving_loc", i), au.SurvivingLoc)
		c.Percent(fmt.Sprintf("author[%d].ownership_pct", i), au.OwnershipPct)
		c.NonNegative(fmt.Sprintf("author[%d].commit_count", i), au.CommitCount)
		totalPct += au.OwnershipPct
	}
	// Rounding in the producer can push the sum slightly off 100. A
	// truncated roster only bounds the sum from above.
	if len(payload.Authors) > 0 && payload.Summary.AuthorCount == int64(len(payload.Authors)) {
		c.SumEquals("ownership_pct", totalPct, 100, 0.5)
	} else {
		c.Checkf(totalPct <= 100.5, "ownership_pct sums to %.2f", totalPct)
	}
	c.NonNegative("summary.author_count", payload.Summary.AuthorCount)
	c.NonNegative("summary.total_loc", payload.Summary.TotalLoc)
	c.Ratio("summary.hhi_index", payload.Summary.HhiIndex)
	c.NonNegative("summary.bus_factor", payload.Summary.BusFactor)
	c.Checkf(payload.Summary.BusFactor <= payload.Summary.AuthorCount,
		"summary.bus_factor %d exceeds author_count %d",
		payload.Summary.BusFactor, payload.Summary.AuthorCount)
	c.Percent("summary.top_author_pct", payload.Summary.TopAuthorPct)
	c.Percent("summary.top_two_pct", payload.Summary.TopTwoPct)
	return c.Err(p.logger)
}
