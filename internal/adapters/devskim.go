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

// DevskimAdapter ingests devskim security findings.
type DevskimAdapter struct {
	repo *repositories.DevskimRepository
}

// NewDevskimAdapter creates the devskim adapter.
func NewDevskimAdapter(session *database.Session) *DevskimAdapter {
	return &DevskimAdapter{repo: repositories.NewDevskimRepository(session)}
}

var _ Adapter = &DevskimAdapter{}

func (a *DevskimAdapter) Name() string { return "devskim" }

func (a *DevskimAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{repositories.DevskimFindingsTable}
}

func (a *DevskimAdapter) Policy() schema.ReferentialPolicy { return schema.StrictPolicy }

type devskimFinding struct {
	Path        string  `json:"path"`
	RuleID      string  `json:"rule_id"`
	Category    *string `json:"category"`
	Severity    *string `json:"severity"`
	LineStart   *int64  `json:"line_start"`
	LineEnd     *int64  `json:"line_end"`
	ColumnStart *int64  `json:"column_start"`
	ColumnEnd   *int64  `json:"column_end"`
	Message     *string `json:"message"`
	CodeSnippet *string `json:"code_snippet"`
}

type devskimPayload struct {
	Findings []devskimFinding `json:"findings"`
}

func (a *DevskimAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload devskimPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode devskim data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	resolver := NewResolver(p, rc, a)

	type findingKey struct {
		fileID string
		ruleID string
		line   int64
	}
	seen := newDedupSet[findingKey](a.Name(), p.logger)
	findings := make([]*entities.DevskimFinding, 0, len(payload.Findings))
	for _, f := range payload.Findings {
		rec, path, ok, err := resolver.Resolve(f.Path)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		var line int64
		if f.LineStart != nil {
			line = *f.LineStart
		}
		key := findingKey{fileID: rec.FileID, ruleID: f.RuleID, line: line}
		if !seen.claim(key, fmt.Sprintf("%s at %s:%d", f.RuleID, path, line)) {
			continue
		}
		findings = append(findings, &entities.DevskimFinding{
			RunPK:        rc.RunPK,
			FileID:       rec.FileID,
			DirectoryID:  rec.DirectoryID,
			RelativePath: path,
			RuleID:       f.RuleID,
			Category:     f.Category,
			Severity:     upperPtr(f.Severity),
			LineStart:    f.LineStart,
			LineEnd:      f.LineEnd,
			ColumnStart:  f.ColumnStart,
			ColumnEnd:    f.ColumnEnd,
			Message:      f.Message,
			CodeSnippet:  f.CodeSnippet,
		})
	}
	return a.repo.InsertFindings(ctx, tx, findings)
}

func (a *DevskimAdapter) checkQuality(payload devskimPayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, f := range payload.Findings {
		path := pathutil.NormalizeFilePath(f.Path)
		c.Checkf(pathutil.IsRepoRelative(path), "finding[%d] path invalid: %s", i, f.Path)
		c.NonEmpty(fmt.Sprintf("finding[%d].rule_id", i), f.RuleID)
		if f.LineStart != nil && f.LineEnd != nil {
			c.LineRange(fmt.Sprintf("finding[%d]", i), *f.LineStart, *f.LineEnd)
		}
	}
	return c.Err(p.logger)
}
