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

// ScancodeAdapter ingests per-file license detections and the repository
// license risk summary. Nested license lists are flattened to one row per
// file and SPDX identifier.
type ScancodeAdapter struct {
	repo *repositories.ScancodeRepository
}

// NewScancodeAdapter creates the scancode adapter.
func NewScancodeAdapter(session *database.Session) *ScancodeAdapter {
	return &ScancodeAdapter{repo: repositories.NewScancodeRepository(session)}
}

var _ Adapter = &ScancodeAdapter{}

func (a *ScancodeAdapter) Name() string { return "scancode" }

func (a *ScancodeAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{
		repositories.ScancodeFileLicensesTable,
		repositories.ScancodeSummaryTable,
	}
}

func (a *ScancodeAdapter) Policy() schema.ReferentialPolicy { return schema.LenientPolicy }

type scancodeLicense struct {
	SpdxID     string  `json:"spdx_id"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	MatchType  string  `json:"match_type"`
	LineNumber *int64  `json:"line_number"`
}

type scancodeFile struct {
	Path     string            `json:"path"`
	Licenses []scancodeLicense `json:"licenses"`
}

type scancodePayload struct {
	Files   []scancodeFile `json:"files"`
	Summary struct {
		TotalFilesScanned int64  `json:"total_files_scanned"`
		FilesWithLicenses int64  `json:"files_with_licenses"`
		OverallRisk       string `json:"overall_risk"`
		HasPermissive     bool   `json:"has_permissive"`
		HasWeakCopyleft   bool   `json:"has_weak_copyleft"`
		HasCopyleft       bool   `json:"has_copyleft"`
		HasUnknown        bool   `json:"has_unknown"`
	} `json:"summary"`
}

func (a *ScancodeAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload scancodePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode scancode data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	resolver := NewResolver(p, rc, a)

	type licenseKey struct {
		fileID string
		spdxID string
	}
	seen := newDedupSet[licenseKey](a.Name(), p.logger)
	licenses := make([]*entities.ScancodeFileLicense, 0, len(payload.Files))
	for _, f := range payload.Files {
		rec, path, ok, err := resolver.Resolve(f.Path)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		for _, lic := range f.Licenses {
			key := licenseKey{fileID: rec.FileID, spdxID: lic.SpdxID}
			if !seen.claim(key, fmt.Sprintf("%s in %s", lic.SpdxID, path)) {
				continue
			}
			licenses = append(licenses, &entities.ScancodeFileLicense{
				RunPK:        rc.RunPK,
				FileID:       rec.FileID,
				DirectoryID:  rec.DirectoryID,
				RelativePath: path,
				SpdxID:       lic.SpdxID,
				Category:     lic.Category,
				Confidence:   lic.Confidence,
				MatchType:    lic.MatchType,
				LineNumber:   lic.LineNumber,
			})
		}
	}

	summary := &entities.ScancodeSummary{
		RunPK:             rc.RunPK,
		TotalFilesScanned: payload.Summary.TotalFilesScanned,
		FilesWithLicenses: payload.Summary.FilesWithLicenses,
		OverallRisk:       payload.Summary.OverallRisk,
		HasPermissive:     payload.Summary.HasPermissive,
		HasWeakCopyleft:   payload.Summary.HasWeakCopyleft,
		HasCopyleft:       payload.Summary.HasCopyleft,
		HasUnknown:        payload.Summary.HasUnknown,
	}

	if err := a.repo.InsertFileLicenses(ctx, tx, licenses); err != nil {
		return err
	}
	return a.repo.InsertSummary(ctx, tx, []*entities.ScancodeSummary{summary})
}

func (a *ScancodeAdapter) checkQuality(payload scancodePayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, f := range payload.Files {
		path := pathutil.NormalizeFilePath(f.Path)
		c.Checkf(pathutil.IsRepoRelative(path), "file[%d] path invalid: %s", i, f.Path)
		for j, lic := range f.Licenses {
			c.NonEmpty(fmt.Sprintf("file[%d].license[%d].spdx_id", i, j), lic.SpdxID)
			c.OneOf(fmt.Sprintf("file[%d].license[%d].category", i, j), lic.Category, entities.LicenseCategories)
			c.Bounded(fmt.Sprintf("file[%d].license[%d].confidence", i, j), lic.Confidence, 0, 1)
			c.OneOf(fmt.Sprintf("file[%d].license[%d].match_type", i, j), lic.MatchType, entities.LicenseMatchTypes)
		}
	}
	c.NonNegative("summary.total_files_scanned", payload.Summary.TotalFilesScanned)
	c.NonNegative("summary.files_with_licenses", payload.Summary.FilesWithLicenses)
	c.Checkf(payload.Summary.FilesWithLicenses <= payload.Summary.TotalFilesScanned,
		"summary.files_with_licenses %d exceeds total_files_scanned %d",
		payload.Summary.FilesWithLicenses, payload.Summary.TotalFilesScanned)
	c.OneOf("summary.overall_risk", payload.Summary.OverallRisk, entities.RiskLevels)
	return c.Err(p.logger)
}
