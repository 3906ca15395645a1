package entities

import "fmt"

func checkCoverage(covered, total int64, pct float64) error {
	if err := firstError(
		nonNegInt("covered_statements", covered),
		nonNegInt("total_statements", total),
		bounded("statement_coverage_pct", pct, 0, 100),
	); err != nil {
		return err
	}
	if covered > total {
		return fmt.Errorf("covered_statements %d cannot exceed total_statements %d", covered, total)
	}
	return nil
}

// DotcoverAssemblyCoverage is one row in lz_dotcover_assembly_coverage.
type DotcoverAssemblyCoverage struct {
	RunPK                int64
	AssemblyName         string
	CoveredStatements    int64
	TotalStatements      int64
	StatementCoveragePct float64
}

// Validate implements Entity.
func (c *DotcoverAssemblyCoverage) Validate() error {
	return firstError(
		requirePK(c.RunPK),
		requireString("assembly_name", c.AssemblyName),
		checkCoverage(c.CoveredStatements, c.TotalStatements, c.StatementCoveragePct),
	)
}

// DotcoverTypeCoverage is one row in lz_dotcover_type_coverage. The file
// columns stay NULL when no source mapping is available.
type DotcoverTypeCoverage struct {
	RunPK                int64
	FileID               *string
	DirectoryID          *string
	RelativePath         *string
	AssemblyName         string
	Namespace            *string
	TypeName             string
	CoveredStatements    int64
	TotalStatements      int64
	StatementCoveragePct float64
}

// Validate implements Entity.
func (c *DotcoverTypeCoverage) Validate() error {
	return firstError(
		requirePK(c.RunPK),
		requireString("assembly_name", c.AssemblyName),
		requireString("type_name", c.TypeName),
		requirePathPtr("relative_path", c.RelativePath),
		checkCoverage(c.CoveredStatements, c.TotalStatements, c.StatementCoveragePct),
	)
}

// DotcoverMethodCoverage is one row in lz_dotcover_method_coverage.
type DotcoverMethodCoverage struct {
	RunPK                int64
	AssemblyName         string
	TypeName             string
	MethodName           string
	CoveredStatements    int64
	TotalStatements      int64
	StatementCoveragePct float64
}

// Validate implements Entity.
func (c *DotcoverMethodCoverage) Validate() error {
	return firstError(
		requirePK(c.RunPK),
		requireString("assembly_name", c.AssemblyName),
		requireString("type_name", c.TypeName),
		requireString("method_name", c.MethodName),
		checkCoverage(c.CoveredStatements, c.TotalStatements, c.StatementCoveragePct),
	)
}
