package entities

import "fmt"

// PmdCpdFileMetric is one row in lz_pmd_cpd_file_metrics.
type PmdCpdFileMetric struct {
	RunPK                 int64
	FileID                string
	DirectoryID           string
	RelativePath          string
	Language              *string
	TotalLines            int64
	DuplicateLines        int64
	DuplicateBlocks       int64
	DuplicationPercentage float64
}

// Validate implements Entity.
func (m *PmdCpdFileMetric) Validate() error {
	return firstError(
		requirePK(m.RunPK),
		requireIdent("file_id", m.FileID),
		requirePath("relative_path", m.RelativePath),
		nonNegInt("total_lines", m.TotalLines),
		nonNegInt("duplicate_lines", m.DuplicateLines),
		nonNegInt("duplicate_blocks", m.DuplicateBlocks),
		bounded("duplication_percentage", m.DuplicationPercentage, 0, 100),
	)
}

// PmdCpdDuplication is one clone group row in lz_pmd_cpd_duplications.
type PmdCpdDuplication struct {
	RunPK           int64
	CloneID         string
	Lines           int64
	Tokens          int64
	OccurrenceCount int64
	IsCrossFile     bool
	CodeFragment    *string
}

// Validate implements Entity.
func (d *PmdCpdDuplication) Validate() error {
	if err := firstError(
		requirePK(d.RunPK),
		requireString("clone_id", d.CloneID),
		nonNegInt("lines", d.Lines),
		nonNegInt("tokens", d.Tokens),
	); err != nil {
		return err
	}
	if d.OccurrenceCount < 2 {
		return fmt.Errorf("occurrence_count must be >= 2 for a valid duplication, got %d", d.OccurrenceCount)
	}
	return nil
}

// PmdCpdOccurrence is one clone location row in lz_pmd_cpd_occurrences.
type PmdCpdOccurrence struct {
	RunPK        int64
	CloneID      string
	FileID       string
	DirectoryID  string
	RelativePath string
	LineStart    int64
	LineEnd      int64
	ColumnStart  *int64
	ColumnEnd    *int64
}

// Validate implements Entity.
func (o *PmdCpdOccurrence) Validate() error {
	start, end := o.LineStart, o.LineEnd
	return firstError(
		requirePK(o.RunPK),
		requireString("clone_id", o.CloneID),
		requireIdent("file_id", o.FileID),
		requirePath("relative_path", o.RelativePath),
		lineRange(&start, &end),
	)
}
