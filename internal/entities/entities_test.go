package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string    { return &s }
func intPtr(v int64) *int64      { return &v }
func floatPtr(v float64) *float64 { return &v }

// TestLayoutFileValidate covers the catalog path invariants.
func TestLayoutFileValidate(t *testing.T) {
	valid := LayoutFile{
		RunPK: 1, FileID: "f-1", RelativePath: "src/main.cs", DirectoryID: "d-1",
		Filename: "main.cs", SizeBytes: intPtr(1024),
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*LayoutFile)
	}{
		{name: "zero run_pk", mutate: func(f *LayoutFile) { f.RunPK = 0 }},
		{name: "absolute path", mutate: func(f *LayoutFile) { f.RelativePath = "/etc/passwd" }},
		{name: "parent escape", mutate: func(f *LayoutFile) { f.RelativePath = "../outside.cs" }},
		{name: "backslash path", mutate: func(f *LayoutFile) { f.RelativePath = `src\main.cs` }},
		{name: "negative size", mutate: func(f *LayoutFile) { f.SizeBytes = intPtr(-1) }},
		{name: "empty file_id", mutate: func(f *LayoutFile) { f.FileID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			assert.Error(t, f.Validate())
		})
	}
}

// TestGitleaksSecretValidate covers entropy and severity bounds.
func TestGitleaksSecretValidate(t *testing.T) {
	valid := GitleaksSecret{
		RunPK: 7, FileID: "f-1", DirectoryID: "d-1", RelativePath: "config/app.yaml",
		RuleID: "generic-api-key", Severity: strPtr("HIGH"), Entropy: floatPtr(4.2),
		LineNumber: intPtr(12),
	}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Entropy = floatPtr(8.5)
	assert.Error(t, bad.Validate(), "entropy above 8")

	bad = valid
	bad.Severity = strPtr("URGENT")
	assert.Error(t, bad.Validate(), "unknown severity")

	bad = valid
	bad.LineNumber = intPtr(-1)
	assert.Error(t, bad.Validate(), "negative line number")

	// nil optionals are fine
	ok := valid
	ok.Severity, ok.Entropy, ok.LineNumber = nil, nil, nil
	assert.NoError(t, ok.Validate())
}

// TestTrivyIacMisconfigSentinel covers the -1 file-level sentinel rules.
func TestTrivyIacMisconfigSentinel(t *testing.T) {
	valid := TrivyIacMisconfig{
		RunPK: 3, RelativePath: "deploy/main.tf", MisconfigID: "AVD-AWS-0086",
		Severity: strPtr("HIGH"), StartLine: intPtr(14), EndLine: intPtr(18),
	}
	assert.NoError(t, valid.Validate())

	fileLevel := valid
	fileLevel.StartLine, fileLevel.EndLine = intPtr(-1), intPtr(-1)
	assert.NoError(t, fileLevel.Validate(), "-1 marks a file-level finding")

	bad := valid
	bad.StartLine = intPtr(0)
	assert.Error(t, bad.Validate(), "0 is never a valid line")

	bad = valid
	bad.EndLine = intPtr(-2)
	assert.Error(t, bad.Validate())
}

// TestGitSizerMetricValidate covers the health grade set.
func TestGitSizerMetricValidate(t *testing.T) {
	m := GitSizerMetric{RunPK: 2, RepoID: "repo-1", HealthGrade: "B+"}
	assert.NoError(t, m.Validate())

	m.HealthGrade = "E"
	assert.Error(t, m.Validate())

	m.HealthGrade = "A"
	m.BlobCount = -1
	assert.Error(t, m.Validate())
}

// TestDotcoverCoverageBounds covers covered <= total and pct range.
func TestDotcoverCoverageBounds(t *testing.T) {
	c := DotcoverAssemblyCoverage{
		RunPK: 4, AssemblyName: "Acme.Core",
		CoveredStatements: 80, TotalStatements: 100, StatementCoveragePct: 80,
	}
	assert.NoError(t, c.Validate())

	c.CoveredStatements = 120
	assert.Error(t, c.Validate(), "covered exceeds total")

	c.CoveredStatements = 80
	c.StatementCoveragePct = 101
	assert.Error(t, c.Validate())
}

// TestPmdCpdDuplicationValidate covers the minimum occurrence rule.
func TestPmdCpdDuplicationValidate(t *testing.T) {
	d := PmdCpdDuplication{RunPK: 5, CloneID: "clone-001", Lines: 30, Tokens: 120, OccurrenceCount: 2}
	assert.NoError(t, d.Validate())

	d.OccurrenceCount = 1
	assert.Error(t, d.Validate())
}

// TestGitBlameFileSummaryChurn covers the churn window ordering rule.
func TestGitBlameFileSummaryChurn(t *testing.T) {
	s := GitBlameFileSummary{
		RunPK: 6, FileID: "f-1", DirectoryID: "d-1", RelativePath: "src/api.py",
		TotalLines: 200, UniqueAuthors: 3, TopAuthor: "ada@example.com",
		TopAuthorLines: 120, TopAuthorPct: 60, Churn30d: 10, Churn90d: 40,
	}
	assert.NoError(t, s.Validate())

	s.Churn30d = 50
	assert.Error(t, s.Validate(), "30d churn cannot exceed 90d churn")

	s.Churn30d = 10
	s.UniqueAuthors = 0
	assert.Error(t, s.Validate())
}

// TestToolRunValidate covers the registration row invariants.
func TestToolRunValidate(t *testing.T) {
	r := ToolRun{
		RunPK: 1, RunID: "c6b8f9e0-0000-4000-8000-000000000001", RepoID: "repo-1",
		ToolName: "lizard", Commit: "0123456789abcdef0123456789abcdef01234567",
		Status: "completed",
	}
	assert.NoError(t, r.Validate())

	r.Commit = "abc123"
	assert.Error(t, r.Validate(), "short commit sha")

	r.Commit = "0123456789abcdef0123456789abcdef0123456z"
	assert.Error(t, r.Validate(), "right length but not hex")
}

// TestSemgrepSmellLineOrder covers endpoint ordering in line ranges.
func TestSemgrepSmellLineOrder(t *testing.T) {
	s := SemgrepSmell{
		RunPK: 8, FileID: "f-1", DirectoryID: "d-1", RelativePath: "src/api.py",
		RuleID: "python.lang.eval", LineStart: intPtr(10), LineEnd: intPtr(14),
	}
	assert.NoError(t, s.Validate())

	s.LineEnd = intPtr(4)
	assert.Error(t, s.Validate(), "end before start")

	s.LineEnd = nil
	assert.NoError(t, s.Validate(), "open-ended range is fine")
}

// TestGitFameSummaryBusFactor covers the roster concentration bound.
func TestGitFameSummaryBusFactor(t *testing.T) {
	s := GitFameSummary{
		RunPK: 9, RepoID: "repo-1", AuthorCount: 5, TotalLoc: 1000,
		HhiIndex: 0.3, BusFactor: 2, TopAuthorPct: 40, TopTwoPct: 65,
	}
	assert.NoError(t, s.Validate())

	s.BusFactor = 6
	assert.Error(t, s.Validate(), "bus factor cannot exceed author count")
}
