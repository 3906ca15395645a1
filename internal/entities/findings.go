package entities

// SemgrepSmell is one row in lz_semgrep_smells.
type SemgrepSmell struct {
	RunPK        int64
	FileID       string
	DirectoryID  string
	RelativePath string
	RuleID       string
	SmellID      *string
	Category     *string
	Severity     *string
	LineStart    *int64
	LineEnd      *int64
	ColumnStart  *int64
	ColumnEnd    *int64
	Message      *string
	CodeSnippet  *string
}

// Validate implements Entity.
func (s *SemgrepSmell) Validate() error {
	return firstError(
		requirePK(s.RunPK),
		requireIdent("file_id", s.FileID),
		requirePath("relative_path", s.RelativePath),
		requireString("rule_id", s.RuleID),
		lineRange(s.LineStart, s.LineEnd),
	)
}

// GitleaksSecret is one row in lz_gitleaks_secrets.
type GitleaksSecret struct {
	RunPK         int64
	FileID        string
	DirectoryID   string
	RelativePath  string
	RuleID        string
	SecretType    *string
	Severity      *string
	LineNumber    *int64
	CommitHash    *string
	CommitAuthor  *string
	CommitDate    *string
	Fingerprint   *string
	InCurrentHead *bool
	Entropy       *float64
	Description   *string
}

// Validate implements Entity.
func (s *GitleaksSecret) Validate() error {
	return firstError(
		requirePK(s.RunPK),
		requireIdent("file_id", s.FileID),
		requirePath("relative_path", s.RelativePath),
		requireString("rule_id", s.RuleID),
		nonNegIntPtr("line_number", s.LineNumber),
		boundedPtr("entropy", s.Entropy, 0, 8),
		oneOfPtr("severity", s.Severity, Severities),
	)
}

// RoslynViolation is one row in lz_roslyn_violations.
type RoslynViolation struct {
	RunPK        int64
	FileID       string
	DirectoryID  string
	RelativePath string
	RuleID       string
	Category     string
	Severity     string
	Message      *string
	LineStart    *int64
	LineEnd      *int64
	ColumnStart  *int64
	ColumnEnd    *int64
}

// Validate implements Entity.
func (v *RoslynViolation) Validate() error {
	return firstError(
		requirePK(v.RunPK),
		requireIdent("file_id", v.FileID),
		requirePath("relative_path", v.RelativePath),
		requireString("rule_id", v.RuleID),
		requireString("dd_category", v.Category),
		requireString("severity", v.Severity),
		lineRange(v.LineStart, v.LineEnd),
	)
}

// DevskimFinding is one row in lz_devskim_findings.
type DevskimFinding struct {
	RunPK        int64
	FileID       string
	DirectoryID  string
	RelativePath string
	RuleID       string
	Category     *string
	Severity     *string
	LineStart    *int64
	LineEnd      *int64
	ColumnStart  *int64
	ColumnEnd    *int64
	Message      *string
	CodeSnippet  *string
}

// Validate implements Entity.
func (f *DevskimFinding) Validate() error {
	return firstError(
		requirePK(f.RunPK),
		requireIdent("file_id", f.FileID),
		requirePath("relative_path", f.RelativePath),
		requireString("rule_id", f.RuleID),
		lineRange(f.LineStart, f.LineEnd),
		oneOfPtr("severity", f.Severity, Severities),
	)
}

// SonarqubeIssue is one row in lz_sonarqube_issues.
type SonarqubeIssue struct {
	RunPK        int64
	FileID       string
	DirectoryID  string
	RelativePath string
	IssueKey     string
	RuleID       string
	IssueType    *string
	Severity     *string
	Message      *string
	LineStart    *int64
	LineEnd      *int64
	Effort       *string
	Status       *string
	Tags         *string
}

// Validate implements Entity.
func (i *SonarqubeIssue) Validate() error {
	return firstError(
		requirePK(i.RunPK),
		requireIdent("file_id", i.FileID),
		requirePath("relative_path", i.RelativePath),
		requireString("issue_key", i.IssueKey),
		requireString("rule_id", i.RuleID),
		lineRange(i.LineStart, i.LineEnd),
	)
}

// SonarqubeMetric is one row in lz_sonarqube_metrics.
type SonarqubeMetric struct {
	RunPK                  int64
	FileID                 string
	DirectoryID            string
	RelativePath           string
	Ncloc                  *int64
	Complexity             *int64
	CognitiveComplexity    *int64
	DuplicatedLines        *int64
	DuplicatedLinesDensity *float64
	CodeSmells             *int64
	Bugs                   *int64
	Vulnerabilities        *int64
}

// Validate implements Entity.
func (m *SonarqubeMetric) Validate() error {
	return firstError(
		requirePK(m.RunPK),
		requireIdent("file_id", m.FileID),
		requirePath("relative_path", m.RelativePath),
		nonNegIntPtr("ncloc", m.Ncloc),
		nonNegIntPtr("complexity", m.Complexity),
		nonNegIntPtr("cognitive_complexity", m.CognitiveComplexity),
		nonNegIntPtr("duplicated_lines", m.DuplicatedLines),
		boundedPtr("duplicated_lines_density", m.DuplicatedLinesDensity, 0, 100),
		nonNegIntPtr("code_smells", m.CodeSmells),
		nonNegIntPtr("bugs", m.Bugs),
		nonNegIntPtr("vulnerabilities", m.Vulnerabilities),
	)
}
