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

// RoslynAdapter ingests roslyn-analyzers diagnostics.
type RoslynAdapter struct {
	repo *repositories.RoslynRepository
}

// NewRoslynAdapter creates the roslyn-analyzers adapter.
func NewRoslynAdapter(session *database.Session) *RoslynAdapter {
	return &RoslynAdapter{repo: repositories.NewRoslynRepository(session)}
}

var _ Adapter = &RoslynAdapter{}

func (a *RoslynAdapter) Name() string { return "roslyn-analyzers" }

func (a *RoslynAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{repositories.RoslynViolationsTable}
}

func (a *RoslynAdapter) Policy() schema.ReferentialPolicy { return schema.StrictPolicy }

type roslynViolation struct {
	Path        string  `json:"path"`
	RuleID      string  `json:"rule_id"`
	Category    string  `json:"category"`
	Severity    string  `json:"severity"`
	Message     *string `json:"message"`
	LineStart   *int64  `json:"line_start"`
	LineEnd     *int64  `json:"line_end"`
	ColumnStart *int64  `json:"column_start"`
	ColumnEnd   *int64  `json:"column_end"`
}

type roslynPayload struct {
	Violations []roslynViolation `json:"violations"`
}

func (a *RoslynAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload roslynPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode roslyn-analyzers data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	resolver := NewResolver(p, rc, a)

	type violationKey struct {
		fileID string
		ruleID string
		line   int64
	}
	seen := newDedupSet[violationKey](a.Name(), p.logger)
	violations := make([]*entities.RoslynViolation, 0, len(payload.Violations))
	for _, v := range payload.Violations {
		rec, path, ok, err := resolver.Resolve(v.Path)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		var line int64
		if v.LineStart != nil {
			line = *v.LineStart
		}
		key := violationKey{fileID: rec.FileID, ruleID: v.RuleID, line: line}
		if !seen.claim(key, fmt.Sprintf("%s at %s:%d", v.RuleID, path, line)) {
			continue
		}
		violations = append(violations, &entities.RoslynViolation{
			RunPK:        rc.RunPK,
			FileID:       rec.FileID,
			DirectoryID:  rec.DirectoryID,
			RelativePath: path,
			RuleID:       v.RuleID,
			Category:     v.Category,
			Severity:     v.Severity,
			Message:      v.Message,
			LineStart:    v.LineStart,
			LineEnd:      v.LineEnd,
			ColumnStart:  v.ColumnStart,
			ColumnEnd:    v.ColumnEnd,
		})
	}
	return a.repo.InsertViolations(ctx, tx, violations)
}

func (a *RoslynAdapter) checkQuality(payload roslynPayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, v := range payload.Violations {
		path := pathutil.NormalizeFilePath(v.Path)
		c.Checkf(pathutil.IsRepoRelative(path), "violation[%d] path invalid: %s", i, v.Path)
		c.NonEmpty(fmt.Sprintf("violation[%d].rule_id", i), v.RuleID)
		c.NonEmpty(fmt.Sprintf("violation[%d].category", i), v.Category)
		c.NonEmpty(fmt.Sprintf("violation[%d].severity", i), v.Severity)
		if v.LineStart != nil && v.LineEnd != nil {
			c.LineRange(fmt.Sprintf("violation[%d]", i), *v.LineStart, *v.LineEnd)
		}
	}
	return c.Err(p.logger)
}
