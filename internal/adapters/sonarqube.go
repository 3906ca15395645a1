package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/internal/validation"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// SonarqubeAdapter ingests sonarqube issues and per-file measures. The
// payload mirrors the sonarqube web API: issues reference components by key,
// and measures arrive as string values keyed by metric name.
type SonarqubeAdapter struct {
	repo *repositories.SonarqubeRepository
}

// NewSonarqubeAdapter creates the sonarqube adapter.
func NewSonarqubeAdapter(session *database.Session) *SonarqubeAdapter {
	return &SonarqubeAdapter{repo: repositories.NewSonarqubeRepository(session)}
}

var _ Adapter = &SonarqubeAdapter{}

func (a *SonarqubeAdapter) Name() string { return "sonarqube" }

func (a *SonarqubeAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{
		repositories.SonarqubeIssuesTable,
		repositories.SonarqubeMetricsTable,
	}
}

func (a *SonarqubeAdapter) Policy() schema.ReferentialPolicy { return schema.StrictPolicy }

type sonarqubeTextRange struct {
	StartLine *int64 `json:"start_line"`
	EndLine   *int64 `json:"end_line"`
}

type sonarqubeIssue struct {
	Key       string              `json:"key"`
	Rule      string              `json:"rule"`
	Component string              `json:"component"`
	Type      *string             `json:"type"`
	Severity  *string             `json:"severity"`
	Message   *string             `json:"message"`
	Line      *int64              `json:"line"`
	TextRange *sonarqubeTextRange `json:"text_range"`
	Effort    *string             `json:"effort"`
	Status    *string             `json:"status"`
	Tags      []string            `json:"tags"`
}

type sonarqubeComponent struct {
	Path      string `json:"path"`
	Qualifier string `json:"qualifier"`
}

type sonarqubeMeasure struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

type sonarqubePayload struct {
	Results struct {
		Issues struct {
			Items []sonarqubeIssue `json:"items"`
		} `json:"issues"`
		Components struct {
			ByKey map[string]sonarqubeComponent `json:"by_key"`
		} `json:"components"`
		Measures struct {
			ByComponentKey map[string]struct {
				Measures []sonarqubeMeasure `json:"measures"`
			} `json:"by_component_key"`
		} `json:"measures"`
	} `json:"results"`
}

func (a *SonarqubeAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload sonarqubePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode sonarqube data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	resolver := NewResolver(p, rc, a)

	issues, err := a.mapIssues(payload, rc, resolver, p)
	if err != nil {
		return err
	}
	metrics, err := a.mapMetrics(payload, rc, resolver, p)
	if err != nil {
		return err
	}

	if err := a.repo.InsertIssues(ctx, tx, issues); err != nil {
		return err
	}
	return a.repo.InsertMetrics(ctx, tx, metrics)
}

func (a *SonarqubeAdapter) mapIssues(payload sonarqubePayload, rc RunContext, resolver *Resolver, p *Pipeline) ([]*entities.SonarqubeIssue, error) {
	components := payload.Results.Components.ByKey
	seen := newDedupSet[string](a.Name(), p.logger)
	issues := make([]*entities.SonarqubeIssue, 0, len(payload.Results.Issues.Items))
	for _, item := range payload.Results.Issues.Items {
		comp, known := components[item.Component]
		if !known || comp.Path == "" {
			p.logger.Warn("issue component has no path, skipping record",
				zap.String("tool", a.Name()),
				zap.String("issue_key", item.Key),
				zap.String("component", item.Component))
			continue
		}
		rec, path, ok, err := resolver.Resolve(comp.Path)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if !seen.claim(item.Key, fmt.Sprintf("issue %s at %s", item.Key, path)) {
			continue
		}
		lineStart := item.Line
		lineEnd := item.Line
		if item.TextRange != nil {
			if item.TextRange.StartLine != nil {
				lineStart = item.TextRange.StartLine
			}
			if item.TextRange.EndLine != nil {
				lineEnd = item.TextRange.EndLine
			}
		}
		var tags *string
		if len(item.Tags) > 0 {
			joined := strings.Join(item.Tags, ",")
			tags = &joined
		}
		issues = append(issues, &entities.SonarqubeIssue{
			RunPK:        rc.RunPK,
			FileID:       rec.FileID,
			DirectoryID:  rec.DirectoryID,
			RelativePath: path,
			IssueKey:     item.Key,
			RuleID:       item.Rule,
			IssueType:    item.Type,
			Severity:     upperPtr(item.Severity),
			Message:      item.Message,
			LineStart:    lineStart,
			LineEnd:      lineEnd,
			Effort:       item.Effort,
			Status:       item.Status,
			Tags:         tags,
		})
	}
	return issues, nil
}

func (a *SonarqubeAdapter) mapMetrics(payload sonarqubePayload, rc RunContext, resolver *Resolver, p *Pipeline) ([]*entities.SonarqubeMetric, error) {
	components := payload.Results.Components.ByKey
	seen := newDedupSet[string](a.Name(), p.logger)
	metrics := make([]*entities.SonarqubeMetric, 0, len(payload.Results.Measures.ByComponentKey))
	for key, entry := range payload.Results.Measures.ByComponentKey {
		comp, known := components[key]
		if !known || comp.Path == "" || comp.Qualifier != "FIL" {
			continue
		}
		rec, path, ok, err := resolver.Resolve(comp.Path)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if !seen.claim(rec.FileID, fmt.Sprintf("measures for %s", path)) {
			continue
		}
		m := &entities.SonarqubeMetric{
			RunPK:        rc.RunPK,
			FileID:       rec.FileID,
			DirectoryID:  rec.DirectoryID,
			RelativePath: path,
		}
		for _, measure := range entry.Measures {
			switch measure.Metric {
			case "ncloc":
				m.Ncloc = parseMeasureInt(measure.Value)
			case "complexity":
				m.Complexity = parseMeasureInt(measure.Value)
			case "cognitive_complexity":
				m.CognitiveComplexity = parseMeasureInt(measure.Value)
			case "duplicated_lines":
				m.DuplicatedLines = parseMeasureInt(measure.Value)
			case "duplicated_lines_density":
				m.DuplicatedLinesDensity = parseMeasureFloat(measure.Value)
			case "code_smells":
				m.CodeSmells = parseMeasureInt(measure.Value)
			case "bugs":
				m.Bugs = parseMeasureInt(measure.Value)
			case "vulnerabilities":
				m.Vulnerabilities = parseMeasureInt(measure.Value)
			}
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

// parseMeasureInt converts a sonarqube measure value. Values arrive as
// strings and may carry a decimal point even for integer metrics.
func parseMeasureInt(value string) *int64 {
	if value == "" {
		return nil
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		n := int64(f)
		return &n
	}
	return nil
}

func parseMeasureFloat(value string) *float64 {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

func (a *SonarqubeAdapter) checkQuality(payload sonarqubePayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, item := range payload.Results.Issues.Items {
		c.NonEmpty(fmt.Sprintf("issue[%d].key", i), item.Key)
		c.NonEmpty(fmt.Sprintf("issue[%d].rule", i), item.Rule)
		if item.TextRange != nil && item.TextRange.StartLine != nil && item.TextRange.EndLine != nil {
			c.LineRange(fmt.Sprintf("issue[%d].text_range", i), *item.TextRange.StartLine, *item.TextRange.EndLine)
		}
	}
	return c.Err(p.logger)
}
