package entities

import "fmt"

// TrivyVulnerability is one row in lz_trivy_vulnerabilities.
type TrivyVulnerability struct {
	RunPK            int64
	TargetKey        string
	VulnerabilityID  string
	PackageName      string
	InstalledVersion *string
	FixedVersion     *string
	Severity         *string
	CvssScore        *float64
	Title            *string
	PublishedDate    *string
	AgeDays          *int64
	FixAvailable     *bool
}

// Validate implements Entity.
func (v *TrivyVulnerability) Validate() error {
	return firstError(
		requirePK(v.RunPK),
		requireString("target_key", v.TargetKey),
		requireString("vulnerability_id", v.VulnerabilityID),
		requireString("package_name", v.PackageName),
		oneOfPtr("severity", v.Severity, TrivySeverities),
		boundedPtr("cvss_score", v.CvssScore, 0, 10),
		nonNegIntPtr("age_days", v.AgeDays),
	)
}

// TrivyTarget is one row in lz_trivy_targets.
type TrivyTarget struct {
	RunPK              int64
	TargetKey          string
	FileID             *string
	DirectoryID        *string
	RelativePath       string
	TargetType         *string
	VulnerabilityCount int64
	CriticalCount      int64
	HighCount          int64
	MediumCount        int64
	LowCount           int64
}

// Validate implements Entity.
func (t *TrivyTarget) Validate() error {
	return firstError(
		requirePK(t.RunPK),
		requireString("target_key", t.TargetKey),
		requirePath("relative_path", t.RelativePath),
		nonNegInt("vulnerability_count", t.VulnerabilityCount),
		nonNegInt("critical_count", t.CriticalCount),
		nonNegInt("high_count", t.HighCount),
		nonNegInt("medium_count", t.MediumCount),
		nonNegInt("low_count", t.LowCount),
	)
}

// TrivyIacMisconfig is one row in lz_trivy_iac_misconfigs. Line numbers
// use -1 as the sentinel for file-level findings; 0 is never valid.
type TrivyIacMisconfig struct {
	RunPK        int64
	FileID       *string
	DirectoryID  *string
	RelativePath string
	MisconfigID  string
	Severity     *string
	Title        *string
	Description  *string
	Resolution   *string
	TargetType   *string
	StartLine    *int64
	EndLine      *int64
}

// Validate implements Entity.
func (m *TrivyIacMisconfig) Validate() error {
	return firstError(
		requirePK(m.RunPK),
		requirePath("relative_path", m.RelativePath),
		requireString("misconfig_id", m.MisconfigID),
		oneOfPtr("severity", m.Severity, Severities),
		sentinelLine("start_line", m.StartLine),
		sentinelLine("end_line", m.EndLine),
	)
}

func sentinelLine(field string, v *int64) error {
	if v == nil {
		return nil
	}
	if *v < -1 {
		return fmt.Errorf("%s must be >= -1, got %d", field, *v)
	}
	if *v == 0 {
		return fmt.Errorf("%s cannot be 0; use -1 for file-level findings", field)
	}
	return nil
}
