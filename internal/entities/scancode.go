package entities

import "fmt"

// ScancodeFileLicense is one row in lz_scancode_file_licenses.
type ScancodeFileLicense struct {
	RunPK        int64
	FileID       string
	DirectoryID  string
	RelativePath string
	SpdxID       string
	Category     string
	Confidence   float64
	MatchType    string
	LineNumber   *int64
}

// Validate implements Entity.
func (l *ScancodeFileLicense) Validate() error {
	if err := firstError(
		requirePK(l.RunPK),
		requireIdent("file_id", l.FileID),
		requirePath("relative_path", l.RelativePath),
		requireString("spdx_id", l.SpdxID),
		oneOf("category", l.Category, LicenseCategories),
		bounded("confidence", l.Confidence, 0, 1),
		oneOf("match_type", l.MatchType, LicenseMatchTypes),
	); err != nil {
		return err
	}
	if l.LineNumber != nil && *l.LineNumber < 1 {
		return fmt.Errorf("line_number must be >= 1, got %d", *l.LineNumber)
	}
	return nil
}

// ScancodeSummary is the single repository-level row in lz_scancode_summary.
type ScancodeSummary struct {
	RunPK             int64
	TotalFilesScanned int64
	FilesWithLicenses int64
	OverallRisk       string
	HasPermissive     bool
	HasWeakCopyleft   bool
	HasCopyleft       bool
	HasUnknown        bool
}

// Validate implements Entity.
func (s *ScancodeSummary) Validate() error {
	return firstError(
		requirePK(s.RunPK),
		nonNegInt("total_files_scanned", s.TotalFilesScanned),
		nonNegInt("files_with_licenses", s.FilesWithLicenses),
		oneOf("overall_risk", s.OverallRisk, RiskLevels),
	)
}
