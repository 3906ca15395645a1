package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/internal/pathutil"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/internal/validation"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// PmdCpdAdapter ingests copy-paste detection results: per-file duplication
// metrics plus clone groups with their occurrences. A clone group survives
// only if at least two of its occurrences resolve against the catalog.
type PmdCpdAdapter struct {
	repo *repositories.PmdCpdRepository
}

// NewPmdCpdAdapter creates the pmd-cpd adapter.
func NewPmdCpdAdapter(session *database.Session) *PmdCpdAdapter {
	return &PmdCpdAdapter{repo: repositories.NewPmdCpdRepository(session)}
}

var _ Adapter = &PmdCpdAdapter{}

func (a *PmdCpdAdapter) Name() string { return "pmd-cpd" }

func (a *PmdCpdAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{
		repositories.PmdCpdFileMetricsTable,
		repositories.PmdCpdDuplicationsTable,
		repositories.PmdCpdOccurrencesTable,
	}
}

func (a *PmdCpdAdapter) Policy() schema.ReferentialPolicy { return schema.LenientPolicy }

type pmdCpdFile struct {
	Path                  string  `json:"path"`
	Language              *string `json:"language"`
	TotalLines            int64   `json:"total_lines"`
	DuplicateLines        int64   `json:"duplicate_lines"`
	DuplicateBlocks       int64   `json:"duplicate_blocks"`
	DuplicationPercentage float64 `json:"duplication_percentage"`
}

type pmdCpdOccurrence struct {
	File        string `json:"file"`
	LineStart   int64  `json:"line_start"`
	LineEnd     int64  `json:"line_end"`
	ColumnStart *int64 `json:"column_start"`
	ColumnEnd   *int64 `json:"column_end"`
}

type pmdCpdDuplication struct {
	CloneID      string             `json:"clone_id"`
	Lines        int64              `json:"lines"`
	Tokens       int64              `json:"tokens"`
	CodeFragment *string            `json:"code_fragment"`
	Occurrences  []pmdCpdOccurrence `json:"occurrences"`
}

type pmdCpdPayload struct {
	Files        []pmdCpdFile        `json:"files"`
	Duplications []pmdCpdDuplication `json:"duplications"`
}

func (a *PmdCpdAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload pmdCpdPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode pmd-cpd data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	resolver := NewResolver(p, rc, a)

	metrics, err := a.mapFileMetrics(payload, rc, resolver, p)
	if err != nil {
		return err
	}
	duplications, occurrences, err := a.mapDuplications(payload, rc, resolver, p)
	if err != nil {
		return err
	}

	if err := a.repo.InsertFileMetrics(ctx, tx, metrics); err != nil {
		return err
	}
	if err := a.repo.InsertDuplications(ctx, tx, duplications); err != nil {
		return err
	}
	return a.repo.InsertOccurrences(ctx, tx, occurrences)
}

func (a *PmdCpdAdapter) mapFileMetrics(payload pmdCpdPayload, rc RunContext, resolver *Resolver, p *Pipeline) ([]*entities.PmdCpdFileMetric, error) {
	seen := newDedupSet[string](a.Name(), p.logger)
	metrics := make([]*entities.PmdCpdFileMetric, 0, len(payload.Files))
	for _, f := range payload.Files {
		rec, path, ok, err := resolver.Resolve(f.Path)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if !seen.claim(rec.FileID, fmt.Sprintf("metrics for %s", path)) {
			continue
		}
		metrics = append(metrics, &entities.PmdCpdFileMetric{
			RunPK:                 rc.RunPK,
			FileID:                rec.FileID,
			DirectoryID:           rec.DirectoryID,
			RelativePath:          path,
			Language:              f.Language,
			TotalLines:            f.TotalLines,
			DuplicateLines:        f.DuplicateLines,
			DuplicateBlocks:       f.DuplicateBlocks,
			DuplicationPercentage: f.DuplicationPercentage,
		})
	}
	return metrics, nil
}

func (a *PmdCpdAdapter) mapDuplications(payload pmdCpdPayload, rc RunContext, resolver *Resolver, p *Pipeline) ([]*entities.PmdCpdDuplication, []*entities.PmdCpdOccurrence, error) {
	seen := newDedupSet[string](a.Name(), p.logger)
	duplications := make([]*entities.PmdCpdDuplication, 0, len(payload.Duplications))
	occurrences := make([]*entities.PmdCpdOccurrence, 0)
	for _, d := range payload.Duplications {
		if !seen.claim(d.CloneID, fmt.Sprintf("clone %s", d.CloneID)) {
			continue
		}
		rows := make([]*entities.PmdCpdOccurrence, 0, len(d.Occurrences))
		files := make(map[string]struct{}, len(d.Occurrences))
		for _, occ := range d.Occurrences {
			rec, path, ok, err := resolver.Resolve(occ.File)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				continue
			}
			rows = append(rows, &entities.PmdCpdOccurrence{
				RunPK:        rc.RunPK,
				CloneID:      d.CloneID,
				FileID:       rec.FileID,
				DirectoryID:  rec.DirectoryID,
				RelativePath: path,
				LineStart:    occ.LineStart,
				LineEnd:      occ.LineEnd,
				ColumnStart:  occ.ColumnStart,
				ColumnEnd:    occ.ColumnEnd,
			})
			files[rec.FileID] = struct{}{}
		}
		if len(rows) < 2 {
			p.logger.Warn("clone group has fewer than two resolvable occurrences, skipping record",
				zap.String("tool", a.Name()),
				zap.String("clone_id", d.CloneID),
				zap.Int("resolved", len(rows)))
			continue
		}
		duplications = append(duplications, &entities.PmdCpdDuplication{
			RunPK:           rc.RunPK,
			CloneID:         d.CloneID,
			Lines:           d.Lines,
			Tokens:          d.Tokens,
			OccurrenceCount: int64(len(rows)),
			IsCrossFile:     len(files) > 1,
			CodeFragment:    d.CodeFragment,
		})
		occurrences = append(occurrences, rows...)
	}
	return duplications, occurrences, nil
}

func (a *PmdCpdAdapter) checkQuality(payload pmdCpdPayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, f := range payload.Files {
		path := pathutil.NormalizeFilePath(f.Path)
		c.Checkf(pathutil.IsRepoRelative(path), "file[%d] path invalid: %s", i, f.Path)
		c.NonNegative(fmt.Sprintf("file[%d].total_lines", i), f.TotalLines)
		c.NonNegative(fmt.Sprintf("file[%d].duplicate_lines", i), f.DuplicateLines)
		c.NonNegative(fmt.Sprintf("file[%d].duplicate_blocks", i), f.DuplicateBlocks)
		c.Percent(fmt.Sprintf("file[%d].duplication_percentage", i), f.DuplicationPercentage)
		c.Checkf(f.DuplicateLines <= f.TotalLines,
			"file[%d] duplicate_lines %d exceeds total_lines %d", i, f.DuplicateLines, f.TotalLines)
	}
	for i, d := range payload.Duplications {
		c.NonEmpty(fmt.Sprintf("duplication[%d].clone_id", i), d.CloneID)
		c.NonNegative(fmt.Sprintf("duplication[%d].lines", i), d.Lines)
		c.NonNegative(fmt.Sprintf("duplication[%d].tokens", i), d.Tokens)
		c.Checkf(len(d.Occurrences) >= 2,
			"duplication[%d] needs at least two occurrences, got %d", i, len(d.Occurrences))
		for j, occ := range d.Occurrences {
			c.NonEmpty(fmt.Sprintf("duplication[%d].occurrence[%d].file", i, j), occ.File)
			c.LineRange(fmt.Sprintf("duplication[%d].occurrence[%d]", i, j), occ.LineStart, occ.LineEnd)
		}
	}
	return c.Err(p.logger)
}
