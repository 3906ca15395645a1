package repositories

import "github.com/alexander-stage-hoco/caldera-sot/schema"

// FactTables lists every per-run landing table. The replace cascade
// deletes from each of these by run_pk, and status reporting counts them.
// The order groups tables by tool and has no semantic weight.
var FactTables = []schema.TableSpec{
	LayoutFilesTable,
	LayoutDirectoriesTable,
	SccFileMetricsTable,
	LizardFileMetricsTable,
	LizardFunctionMetricsTable,
	SemgrepSmellsTable,
	GitleaksSecretsTable,
	RoslynViolationsTable,
	DevskimFindingsTable,
	SonarqubeIssuesTable,
	SonarqubeMetricsTable,
	TrivyTargetsTable,
	TrivyVulnerabilitiesTable,
	TrivyIacMisconfigsTable,
	GitSizerMetricsTable,
	GitSizerViolationsTable,
	GitSizerLfsCandidatesTable,
	GitFameAuthorsTable,
	GitFameSummaryTable,
	GitBlameSummaryTable,
	GitBlameAuthorStatsTable,
	CodeSymbolsTable,
	SymbolCallsTable,
	FileImportsTable,
	ScancodeFileLicensesTable,
	ScancodeSummaryTable,
	PmdCpdFileMetricsTable,
	PmdCpdDuplicationsTable,
	PmdCpdOccurrencesTable,
	DotcoverAssemblyCoverageTable,
	DotcoverTypeCoverageTable,
	DotcoverMethodCoverageTable,
	DependenseeProjectsTable,
	DependenseeProjectRefsTable,
	DependenseePackageRefsTable,
}

// FactTableNames returns the names of every landing table.
func FactTableNames() []string {
	names := make([]string, 0, len(FactTables))
	for _, spec := range FactTables {
		names = append(names, spec.Name)
	}
	return names
}
