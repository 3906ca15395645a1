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

// SccAdapter ingests scc line and complexity metrics.
type SccAdapter struct {
	repo *repositories.SccRepository
}

// NewSccAdapter creates the scc adapter.
func NewSccAdapter(session *database.Session) *SccAdapter {
	return &SccAdapter{repo: repositories.NewSccRepository(session)}
}

var _ Adapter = &SccAdapter{}

func (a *SccAdapter) Name() string { return "scc" }

func (a *SccAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{repositories.SccFileMetricsTable}
}

func (a *SccAdapter) Policy() schema.ReferentialPolicy { return schema.LenientPolicy }

type sccFileEntry struct {
	Path              string   `json:"path"`
	Filename          *string  `json:"filename"`
	Extension         *string  `json:"extension"`
	Language          *string  `json:"language"`
	LinesTotal        *int64   `json:"lines_total"`
	CodeLines         *int64   `json:"code_lines"`
	CommentLines      *int64   `json:"comment_lines"`
	BlankLines        *int64   `json:"blank_lines"`
	Bytes             *int64   `json:"bytes"`
	Complexity        *int64   `json:"complexity"`
	Uloc              *int64   `json:"uloc"`
	CommentRatio      *float64 `json:"comment_ratio"`
	BlankRatio        *float64 `json:"blank_ratio"`
	CodeRatio         *float64 `json:"code_ratio"`
	ComplexityDensity *float64 `json:"complexity_density"`
	Dryness           *float64 `json:"dryness"`
	BytesPerLoc       *float64 `json:"bytes_per_loc"`
	IsMinified        *bool    `json:"is_minified"`
	IsGenerated       *bool    `json:"is_generated"`
	IsBinary          *bool    `json:"is_binary"`
	Classification    *string  `json:"classification"`
}

type sccPayload struct {
	Files []sccFileEntry `json:"files"`
}

func (a *SccAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload sccPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode scc data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	resolver := NewResolver(p, rc, a)

	seen := newDedupSet[string](a.Name(), p.logger)
	metrics := make([]*entities.SccFileMetric, 0, len(payload.Files))
	for _, entry := range payload.Files {
		rec, path, ok, err := resolver.Resolve(entry.Path)
		if err != nil {
			return err
		}
		if !ok || !seen.claim(rec.FileID, path) {
			continue
		}
		metrics = append(metrics, &entities.SccFileMetric{
			RunPK:             rc.RunPK,
			FileID:            rec.FileID,
			DirectoryID:       rec.DirectoryID,
			RelativePath:      path,
			Filename:          entry.Filename,
			Extension:         entry.Extension,
			Language:          entry.Language,
			LinesTotal:        entry.LinesTotal,
			CodeLines:         entry.CodeLines,
			CommentLines:      entry.CommentLines,
			BlankLines:        entry.BlankLines,
			Bytes:             entry.Bytes,
			Complexity:        entry.Complexity,
			Uloc:              entry.Uloc,
			CommentRatio:      entry.CommentRatio,
			BlankRatio:        entry.BlankRatio,
			CodeRatio:         entry.CodeRatio,
			ComplexityDensity: entry.ComplexityDensity,
			Dryness:           entry.Dryness,
			BytesPerLoc:       entry.BytesPerLoc,
			IsMinified:        entry.IsMinified,
			IsGenerated:       entry.IsGenerated,
			IsBinary:          entry.IsBinary,
			Classification:    entry.Classification,
		})
	}
	return a.repo.InsertFileMetrics(ctx, tx, metrics)
}

func (a *SccAdapter) checkQuality(payload sccPayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, entry := range payload.Files {
		path := pathutil.NormalizeFilePath(entry.Path)
		c.Checkf(pathutil.IsRepoRelative(path), "file[%d] path invalid: %s", i, entry.Path)
		for field, v := range map[string]*int64{
			"lines_total":   entry.LinesTotal,
			"code_lines":    entry.CodeLines,
			"comment_lines": entry.CommentLines,
			"blank_lines":   entry.BlankLines,
			"bytes":         entry.Bytes,
			"complexity":    entry.Complexity,
			"uloc":          entry.Uloc,
		} {
			if v != nil {
				c.NonNegative(fmt.Sprintf("file[%d].%s", i, field), *v)
			}
		}
		for field, v := range map[string]*float64{
			"comment_ratio": entry.CommentRatio,
			"blank_ratio":   entry.BlankRatio,
			"code_ratio":    entry.CodeRatio,
			"dryness":       entry.Dryness,
		} {
			if v != nil {
				c.Ratio(fmt.Sprintf("file[%d].%s", i, field), *v)
			}
		}
		if entry.LinesTotal != nil && entry.CodeLines != nil && entry.CommentLines != nil && entry.BlankLines != nil {
			sum := *entry.CodeLines + *entry.CommentLines + *entry.BlankLines
			c.Checkf(sum == *entry.LinesTotal,
				"file[%d] line counts do not sum: %d+%d+%d != %d",
				i, *entry.CodeLines, *entry.CommentLines, *entry.BlankLines, *entry.LinesTotal)
		}
	}
	return c.Err(p.logger)
}
