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

// GitleaksAdapter ingests gitleaks secret findings. Secrets found only in
// history may reference paths that no longer exist, so unresolved paths are
// skipped rather than aborting the run.
type GitleaksAdapter struct {
	repo *repositories.GitleaksRepository
}

// NewGitleaksAdapter creates the gitleaks adapter.
func NewGitleaksAdapter(session *database.Session) *GitleaksAdapter {
	return &GitleaksAdapter{repo: repositories.NewGitleaksRepository(session)}
}

var _ Adapter = &GitleaksAdapter{}

func (a *GitleaksAdapter) Name() string { return "gitleaks" }

func (a *GitleaksAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{repositories.GitleaksSecretsTable}
}

func (a *GitleaksAdapter) Policy() schema.ReferentialPolicy { return schema.LenientPolicy }

type gitleaksFinding struct {
	Path          string   `json:"path"`
	RuleID        string   `json:"rule_id"`
	SecretType    *string  `json:"secret_type"`
	Severity      *string  `json:"severity"`
	LineNumber    *int64   `json:"line_number"`
	CommitHash    *string  `json:"commit_hash"`
	CommitAuthor  *string  `json:"commit_author"`
	CommitDate    *string  `json:"commit_date"`
	Fingerprint   *string  `json:"fingerprint"`
	InCurrentHead *bool    `json:"in_current_head"`
	Entropy       *float64 `json:"entropy"`
	Description   *string  `json:"description"`
}

type gitleaksPayload struct {
	Findings []gitleaksFinding `json:"findings"`
}

func (a *GitleaksAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload gitleaksPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode gitleaks data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	resolver := NewResolver(p, rc, a)

	type secretKey struct {
		fileID string
		ruleID string
		line   int64
	}
	seen := newDedupSet[secretKey](a.Name(), p.logger)
	secrets := make([]*entities.GitleaksSecret, 0, len(payload.Findings))
	for _, f := range payload.Findings {
		rec, path, ok, err := resolver.Resolve(f.Path)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		var line int64
		if f.LineNumber != nil {
			line = *f.LineNumber
		}
		key := secretKey{fileID: rec.FileID, ruleID: f.RuleID, line: line}
		if !seen.claim(key, fmt.Sprintf("%s at %s:%d", f.RuleID, path, line)) {
			continue
		}
		secrets = append(secrets, &entities.GitleaksSecret{
			RunPK:         rc.RunPK,
			FileID:        rec.FileID,
			DirectoryID:   rec.DirectoryID,
			RelativePath:  path,
			RuleID:        f.RuleID,
			SecretType:    f.SecretType,
			Severity:      upperPtr(f.Severity),
			LineNumber:    f.LineNumber,
			CommitHash:    f.CommitHash,
			CommitAuthor:  f.CommitAuthor,
			CommitDate:    f.CommitDate,
			Fingerprint:   f.Fingerprint,
			InCurrentHead: f.InCurrentHead,
			Entropy:       f.Entropy,
			Description:   f.Description,
		})
	}
	return a.repo.InsertSecrets(ctx, tx, secrets)
}

func (a *GitleaksAdapter) checkQuality(payload gitleaksPayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, f := range payload.Findings {
		path := pathutil.NormalizeFilePath(f.Path)
		c.Checkf(pathutil.IsRepoRelative(path), "finding[%d] path invalid: %s", i, f.Path)
		c.NonEmpty(fmt.Sprintf("finding[%d].rule_id", i), f.RuleID)
		if f.LineNumber != nil {
			c.NonNegative(fmt.Sprintf("finding[%d].line_number", i), *f.LineNumber)
		}
		if f.Entropy != nil {
			c.Bounded(fmt.Sprintf("finding[%d].entropy", i), *f.Entropy, 0, 8)
		}
	}
	return c.Err(p.logger)
}
