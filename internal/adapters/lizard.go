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

// LizardAdapter ingests lizard complexity metrics at file and function
// granularity.
type LizardAdapter struct {
	repo *repositories.LizardRepository
}

// NewLizardAdapter creates the lizard adapter.
func NewLizardAdapter(session *database.Session) *LizardAdapter {
	return &LizardAdapter{repo: repositories.NewLizardRepository(session)}
}

var _ Adapter = &LizardAdapter{}

func (a *LizardAdapter) Name() string { return "lizard" }

func (a *LizardAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{repositories.LizardFileMetricsTable, repositories.LizardFunctionMetricsTable}
}

func (a *LizardAdapter) Policy() schema.ReferentialPolicy { return schema.LenientPolicy }

type lizardFunctionEntry struct {
	Name           string  `json:"name"`
	LongName       *string `json:"long_name"`
	Ccn            *int64  `json:"ccn"`
	Nloc           *int64  `json:"nloc"`
	Params         *int64  `json:"params"`
	ParameterCount *int64  `json:"parameter_count"`
	TokenCount     *int64  `json:"token_count"`
	LineStart      *int64  `json:"line_start"`
	LineEnd        *int64  `json:"line_end"`
	StartLine      *int64  `json:"start_line"`
	EndLine        *int64  `json:"end_line"`
}

// lineStart prefers the canonical key and falls back to the legacy one.
func (f *lizardFunctionEntry) lineStart() *int64 {
	if f.LineStart != nil {
		return f.LineStart
	}
	return f.StartLine
}

func (f *lizardFunctionEntry) lineEnd() *int64 {
	if f.LineEnd != nil {
		return f.LineEnd
	}
	return f.EndLine
}

func (f *lizardFunctionEntry) params() *int64 {
	if f.Params != nil {
		return f.Params
	}
	return f.ParameterCount
}

type lizardFileEntry struct {
	Path          string                `json:"path"`
	Language      *string               `json:"language"`
	Nloc          *int64                `json:"nloc"`
	FunctionCount *int64                `json:"function_count"`
	TotalCcn      *int64                `json:"total_ccn"`
	AvgCcn        *float64              `json:"avg_ccn"`
	MaxCcn        *int64                `json:"max_ccn"`
	Functions     []lizardFunctionEntry `json:"functions"`
}

type lizardPayload struct {
	Files []lizardFileEntry `json:"files"`
}

func (a *LizardAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload lizardPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode lizard data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	resolver := NewResolver(p, rc, a)

	type funcKey struct {
		fileID string
		name   string
		line   int64
	}
	seenFiles := newDedupSet[string](a.Name(), p.logger)
	seenFuncs := newDedupSet[funcKey](a.Name(), p.logger)

	var fileMetrics []*entities.LizardFileMetric
	var functionMetrics []*entities.LizardFunctionMetric
	for _, entry := range payload.Files {
		rec, path, ok, err := resolver.Resolve(entry.Path)
		if err != nil {
			return err
		}
		if !ok || !seenFiles.claim(rec.FileID, path) {
			continue
		}
		fileMetrics = append(fileMetrics, &entities.LizardFileMetric{
			RunPK:         rc.RunPK,
			FileID:        rec.FileID,
			RelativePath:  path,
			Language:      entry.Language,
			Nloc:          entry.Nloc,
			FunctionCount: entry.FunctionCount,
			TotalCcn:      entry.TotalCcn,
			AvgCcn:        entry.AvgCcn,
			MaxCcn:        entry.MaxCcn,
		})

		for _, fn := range entry.Functions {
			lineStart := fn.lineStart()
			// lizard emits pseudo-functions such as *global* with line
			// numbers below 1. They describe scope, not code.
			if lineStart != nil && *lineStart < 1 {
				p.logger.Warn("skipping pseudo-function",
					zap.String("tool", a.Name()),
					zap.String("function", fn.Name),
					zap.Int64("line_start", *lineStart))
				continue
			}
			var lineKey int64
			if lineStart != nil {
				lineKey = *lineStart
			}
			key := funcKey{fileID: rec.FileID, name: fn.Name, line: lineKey}
			if !seenFuncs.claim(key, fmt.Sprintf("%s at %s:%d", fn.Name, path, lineKey)) {
				continue
			}
			functionMetrics = append(functionMetrics, &entities.LizardFunctionMetric{
				RunPK:        rc.RunPK,
				FileID:       rec.FileID,
				FunctionName: fn.Name,
				LongName:     fn.LongName,
				Ccn:          fn.Ccn,
				Nloc:         fn.Nloc,
				Params:       fn.params(),
				TokenCount:   fn.TokenCount,
				LineStart:    lineStart,
				LineEnd:      fn.lineEnd(),
			})
		}
	}

	if err := a.repo.InsertFileMetrics(ctx, tx, fileMetrics); err != nil {
		return err
	}
	return a.repo.InsertFunctionMetrics(ctx, tx, functionMetrics)
}

func (a *LizardAdapter) checkQuality(payload lizardPayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, entry := range payload.Files {
		path := pathutil.NormalizeFilePath(entry.Path)
		c.Checkf(pathutil.IsRepoRelative(path), "file[%d] path invalid: %s", i, entry.Path)
		if entry.Language != nil {
			c.NonEmpty(fmt.Sprintf("file[%d].language", i), *entry.Language)
		}
		for field, v := range map[string]*int64{
			"nloc":           entry.Nloc,
			"function_count": entry.FunctionCount,
			"total_ccn":      entry.TotalCcn,
			"max_ccn":        entry.MaxCcn,
		} {
			if v != nil {
				c.NonNegative(fmt.Sprintf("file[%d].%s", i, field), *v)
			}
		}
		if entry.AvgCcn != nil && entry.MaxCcn != nil {
			c.Checkf(*entry.AvgCcn <= float64(*entry.MaxCcn), "file[%d] avg_ccn exceeds max_ccn", i)
		}
		for j, fn := range entry.Functions {
			c.NonEmpty(fmt.Sprintf("file[%d].functions[%d].name", i, j), fn.Name)
			if fn.Ccn != nil {
				c.NonNegative(fmt.Sprintf("file[%d].functions[%d].ccn", i, j), *fn.Ccn)
			}
			if fn.Nloc != nil {
				c.NonNegative(fmt.Sprintf("file[%d].functions[%d].nloc", i, j), *fn.Nloc)
			}
			start, end := fn.lineStart(), fn.lineEnd()
			if start != nil && end != nil && *start >= 1 {
				c.Checkf(*end >= *start, "file[%d].functions[%d] line_start > line_end", i, j)
			}
		}
	}
	return c.Err(p.logger)
}
