package adapters

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/internal/pathutil"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/internal/validation"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// TrivyAdapter ingests trivy scan targets, vulnerabilities, and IaC
// misconfigurations. Targets are dependency manifests rather than source
// files, so vulnerabilities key on a derived target hash instead of the
// file catalog.
type TrivyAdapter struct {
	repo *repositories.TrivyRepository
}

// NewTrivyAdapter creates the trivy adapter.
func NewTrivyAdapter(session *database.Session) *TrivyAdapter {
	return &TrivyAdapter{repo: repositories.NewTrivyRepository(session)}
}

var _ Adapter = &TrivyAdapter{}

func (a *TrivyAdapter) Name() string { return "trivy" }

func (a *TrivyAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{
		repositories.TrivyTargetsTable,
		repositories.TrivyVulnerabilitiesTable,
		repositories.TrivyIacMisconfigsTable,
	}
}

func (a *TrivyAdapter) Policy() schema.ReferentialPolicy { return schema.LenientPolicy }

// cvssScore accepts both JSON numbers and numeric strings.
type cvssScore struct {
	value *float64
}

func (s *cvssScore) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		s.value = nil
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		s.value = &f
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("cvss_score must be a number or string, got %s", b)
	}
	if raw == "" {
		s.value = nil
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("cvss_score %q is not numeric: %w", raw, err)
	}
	s.value = &f
	return nil
}

type trivyVulnerability struct {
	ID               string    `json:"id"`
	Package          string    `json:"package"`
	Target           string    `json:"target"`
	TargetType       *string   `json:"target_type"`
	InstalledVersion *string   `json:"installed_version"`
	FixedVersion     *string   `json:"fixed_version"`
	Severity         *string   `json:"severity"`
	CvssScore        cvssScore `json:"cvss_score"`
	Title            *string   `json:"title"`
	PublishedDate    *string   `json:"published_date"`
	AgeDays          *int64    `json:"age_days"`
	FixAvailable     *bool     `json:"fix_available"`
}

type trivyTarget struct {
	Path               string  `json:"path"`
	TargetType         *string `json:"target_type"`
	VulnerabilityCount int64   `json:"vulnerability_count"`
	CriticalCount      int64   `json:"critical_count"`
	HighCount          int64   `json:"high_count"`
	MediumCount        int64   `json:"medium_count"`
	LowCount           int64   `json:"low_count"`
}

type trivyMisconfig struct {
	Target      string  `json:"target"`
	TargetType  *string `json:"target_type"`
	ID          string  `json:"id"`
	Severity    *string `json:"severity"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Resolution  *string `json:"resolution"`
	StartLine   *int64  `json:"start_line"`
	EndLine     *int64  `json:"end_line"`
}

type trivyIacSection struct {
	Misconfigurations []trivyMisconfig `json:"misconfigurations"`
}

type trivyPayload struct {
	Targets              []trivyTarget        `json:"targets"`
	Vulnerabilities      []trivyVulnerability `json:"vulnerabilities"`
	IacMisconfigurations trivyIacSection      `json:"iac_misconfigurations"`
}

// targetKey derives a stable identifier for a scan target from its path
// and type, matching the key used by the vulnerability rows.
func targetKey(path string, targetType *string) string {
	t := "unknown"
	if targetType != nil && *targetType != "" {
		t = *targetType
	}
	sum := sha256.Sum256([]byte(path + ":" + t))
	return hex.EncodeToString(sum[:])[:16]
}

// sentinelLine maps 0 or absent line numbers to the -1 file-level sentinel.
func sentinelLine(v *int64) *int64 {
	if v == nil || *v == 0 {
		s := int64(-1)
		return &s
	}
	return v
}

func (a *TrivyAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload trivyPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode trivy data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	resolver := NewResolver(p, rc, a)

	targets, knownKeys, err := a.mapTargets(payload, rc, resolver, p)
	if err != nil {
		return err
	}
	vulns := a.mapVulnerabilities(payload, rc, knownKeys, p)
	misconfigs, err := a.mapMisconfigs(payload, rc, resolver, p)
	if err != nil {
		return err
	}

	if err := a.repo.InsertTargets(ctx, tx, targets); err != nil {
		return err
	}
	if err := a.repo.InsertVulnerabilities(ctx, tx, vulns); err != nil {
		return err
	}
	return a.repo.InsertIacMisconfigs(ctx, tx, misconfigs)
}

func (a *TrivyAdapter) mapTargets(payload trivyPayload, rc RunContext, resolver *Resolver, p *Pipeline) ([]*entities.TrivyTarget, map[string]bool, error) {
	seen := newDedupSet[string](a.Name(), p.logger)
	targets := make([]*entities.TrivyTarget, 0, len(payload.Targets))
	known := make(map[string]bool, len(payload.Targets))
	for _, t := range payload.Targets {
		path := pathutil.NormalizeFilePath(t.Path)
		key := targetKey(path, t.TargetType)
		if !seen.claim(key, fmt.Sprintf("target %s", path)) {
			continue
		}
		known[key] = true
		row := &entities.TrivyTarget{
			RunPK:              rc.RunPK,
			TargetKey:          key,
			RelativePath:       path,
			TargetType:         t.TargetType,
			VulnerabilityCount: t.VulnerabilityCount,
			CriticalCount:      t.CriticalCount,
			HighCount:          t.HighCount,
			MediumCount:        t.MediumCount,
			LowCount:           t.LowCount,
		}
		// Manifest paths usually exist in the catalog; container images
		// and other synthetic targets do not, so the catalog columns
		// stay null for those.
		rec, _, ok, err := resolver.Resolve(t.Path)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			fileID := rec.FileID
			dirID := rec.DirectoryID
			row.FileID = &fileID
			row.DirectoryID = &dirID
		}
		targets = append(targets, row)
	}
	return targets, known, nil
}

func (a *TrivyAdapter) mapVulnerabilities(payload trivyPayload, rc RunContext, knownKeys map[string]bool, p *Pipeline) []*entities.TrivyVulnerability {
	type vulnKey struct {
		target  string
		id      string
		pkg     string
		version string
	}
	seen := newDedupSet[vulnKey](a.Name(), p.logger)
	vulns := make([]*entities.TrivyVulnerability, 0, len(payload.Vulnerabilities))
	for _, v := range payload.Vulnerabilities {
		path := pathutil.NormalizeFilePath(v.Target)
		tk := targetKey(path, v.TargetType)
		if !knownKeys[tk] {
			p.logger.Warn("vulnerability references unknown target, skipping record",
				zap.String("tool", a.Name()),
				zap.String("vulnerability_id", v.ID),
				zap.String("target", path))
			continue
		}
		version := ""
		if v.InstalledVersion != nil {
			version = *v.InstalledVersion
		}
		key := vulnKey{target: tk, id: v.ID, pkg: v.Package, version: version}
		if !seen.claim(key, fmt.Sprintf("%s in %s@%s", v.ID, v.Package, version)) {
			continue
		}
		vulns = append(vulns, &entities.TrivyVulnerability{
			RunPK:            rc.RunPK,
			TargetKey:        tk,
			VulnerabilityID:  v.ID,
			PackageName:      v.Package,
			InstalledVersion: v.InstalledVersion,
			FixedVersion:     v.FixedVersion,
			Severity:         upperPtr(v.Severity),
			CvssScore:        v.CvssScore.value,
			Title:            v.Title,
			PublishedDate:    v.PublishedDate,
			AgeDays:          v.AgeDays,
			FixAvailable:     v.FixAvailable,
		})
	}
	return vulns
}

func (a *TrivyAdapter) mapMisconfigs(payload trivyPayload, rc RunContext, resolver *Resolver, p *Pipeline) ([]*entities.TrivyIacMisconfig, error) {
	type misconfigKey struct {
		path string
		id   string
		line int64
	}
	seen := newDedupSet[misconfigKey](a.Name(), p.logger)
	items := payload.IacMisconfigurations.Misconfigurations
	misconfigs := make([]*entities.TrivyIacMisconfig, 0, len(items))
	for _, m := range items {
		path := pathutil.NormalizeFilePath(m.Target)
		start := sentinelLine(m.StartLine)
		key := misconfigKey{path: path, id: m.ID, line: *start}
		if !seen.claim(key, fmt.Sprintf("%s at %s:%d", m.ID, path, *start)) {
			continue
		}
		row := &entities.TrivyIacMisconfig{
			RunPK:        rc.RunPK,
			RelativePath: path,
			MisconfigID:  m.ID,
			Severity:     upperPtr(m.Severity),
			Title:        m.Title,
			Description:  m.Description,
			Resolution:   m.Resolution,
			TargetType:   m.TargetType,
			StartLine:    start,
			EndLine:      sentinelLine(m.EndLine),
		}
		rec, _, ok, err := resolver.Resolve(m.Target)
		if err != nil {
			return nil, err
		}
		if ok {
			fileID := rec.FileID
			dirID := rec.DirectoryID
			row.FileID = &fileID
			row.DirectoryID = &dirID
		}
		misconfigs = append(misconfigs, row)
	}
	return misconfigs, nil
}

func (a *TrivyAdapter) checkQuality(payload trivyPayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, t := range payload.Targets {
		c.NonEmpty(fmt.Sprintf("target[%d].path", i), t.Path)
		c.NonNegative(fmt.Sprintf("target[%d].vulnerability_count", i), t.VulnerabilityCount)
		c.NonNegative(fmt.Sprintf("target[%d].critical_count", i), t.CriticalCount)
		c.NonNegative(fmt.Sprintf("target[%d].high_count", i), t.HighCount)
		c.NonNegative(fmt.Sprintf("target[%d].medium_count", i), t.MediumCount)
		c.NonNegative(fmt.Sprintf("target[%d].low_count", i), t.LowCount)
	}
	for i, v := range payload.Vulnerabilities {
		c.NonEmpty(fmt.Sprintf("vulnerability[%d].id", i), v.ID)
		c.NonEmpty(fmt.Sprintf("vulnerability[%d].package", i), v.Package)
		if v.CvssScore.value != nil {
			c.Bounded(fmt.Sprintf("vulnerability[%d].cvss_score", i), *v.CvssScore.value, 0, 10)
		}
		if v.AgeDays != nil {
			c.NonNegative(fmt.Sprintf("vulnerability[%d].age_days", i), *v.AgeDays)
		}
	}
	for i, m := range payload.IacMisconfigurations.Misconfigurations {
		c.NonEmpty(fmt.Sprintf("misconfiguration[%d].target", i), m.Target)
		c.NonEmpty(fmt.Sprintf("misconfiguration[%d].id", i), m.ID)
	}
	return c.Err(p.logger)
}
