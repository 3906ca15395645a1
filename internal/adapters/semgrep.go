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

// SemgrepAdapter ingests semgrep code smell findings. A style linter is
// expected to cover every tracked file, so unresolved paths are fatal.
type SemgrepAdapter struct {
	repo *repositories.SemgrepRepository
}

// NewSemgrepAdapter creates the semgrep adapter.
func NewSemgrepAdapter(session *database.Session) *SemgrepAdapter {
	return &SemgrepAdapter{repo: repositories.NewSemgrepRepository(session)}
}

var _ Adapter = &SemgrepAdapter{}

func (a *SemgrepAdapter) Name() string { return "semgrep" }

func (a *SemgrepAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{repositories.SemgrepSmellsTable}
}

func (a *SemgrepAdapter) Policy() schema.ReferentialPolicy { return schema.StrictPolicy }

type semgrepFinding struct {
	Path        string  `json:"path"`
	RuleID      string  `json:"rule_id"`
	SmellID     *string `json:"dd_smell_id"`
	Category    *string `json:"dd_category"`
	Severity    *string `json:"severity"`
	LineStart   *int64  `json:"line_start"`
	LineEnd     *int64  `json:"line_end"`
	ColumnStart *int64  `json:"column_start"`
	ColumnEnd   *int64  `json:"column_end"`
	Message     *string `json:"message"`
	CodeSnippet *string `json:"code_snippet"`
}

type semgrepPayload struct {
	Findings []semgrepFinding `json:"findings"`
}

func (a *SemgrepAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload semgrepPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode semgrep data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	resolver := NewResolver(p, rc, a)

	type smellKey struct {
		fileID string
		ruleID string
		line   int64
	}
	seen := newDedupSet[smellKey](a.Name(), p.logger)
	smells := make([]*entities.SemgrepSmell, 0, len(payload.Findings))
	for _, finding := range payload.Findings {
		rec, path, ok, err := resolver.Resolve(finding.Path)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		var line int64
		if finding.LineStart != nil {
			line = *finding.LineStart
		}
		key := smellKey{fileID: rec.FileID, ruleID: finding.RuleID, line: line}
		if !seen.claim(key, fmt.Sprintf("%s at %s:%d", finding.RuleID, path, line)) {
			continue
		}
		smells = append(smells, &entities.SemgrepSmell{
			RunPK:        rc.RunPK,
			FileID:       rec.FileID,
			DirectoryID:  rec.DirectoryID,
			RelativePath: path,
			RuleID:       finding.RuleID,
			SmellID:      finding.SmellID,
			Category:     finding.Category,
			Severity:     finding.Severity,
			LineStart:    finding.LineStart,
			LineEnd:      finding.LineEnd,
			ColumnStart:  finding.ColumnStart,
			ColumnEnd:    finding.ColumnEnd,
			Message:      finding.Message,
			CodeSnippet:  finding.CodeSnippet,
		})
	}
	return a.repo.InsertSmells(ctx, tx, smells)
}

func (a *SemgrepAdapter) checkQuality(payload semgrepPayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, finding := range payload.Findings {
		path := pathutil.NormalizeFilePath(finding.Path)
		c.Checkf(pathutil.IsRepoRelative(path), "finding[%d] path invalid: %s", i, finding.Path)
		c.NonEmpty(fmt.Sprintf("finding[%d].rule_id", i), finding.RuleID)
		if finding.LineStart != nil && finding.LineEnd != nil {
			c.LineRange(fmt.Sprintf("finding[%d]", i), *finding.LineStart, *finding.LineEnd)
		}
	}
	return c.Err(p.logger)
}
