package entities

// SccFileMetric is one row in lz_scc_file_metrics.
type SccFileMetric struct {
	RunPK             int64
	FileID            string
	DirectoryID       string
	RelativePath      string
	Filename          *string
	Extension         *string
	Language          *string
	LinesTotal        *int64
	CodeLines         *int64
	CommentLines      *int64
	BlankLines        *int64
	Bytes             *int64
	Complexity        *int64
	Uloc              *int64
	CommentRatio      *float64
	BlankRatio        *float64
	CodeRatio         *float64
	ComplexityDensity *float64
	Dryness           *float64
	BytesPerLoc       *float64
	IsMinified        *bool
	IsGenerated       *bool
	IsBinary          *bool
	Classification    *string
}

// Validate implements Entity.
func (m *SccFileMetric) Validate() error {
	return firstError(
		requirePK(m.RunPK),
		requireIdent("file_id", m.FileID),
		requirePath("relative_path", m.RelativePath),
		nonNegIntPtr("lines_total", m.LinesTotal),
		nonNegIntPtr("code_lines", m.CodeLines),
		nonNegIntPtr("comment_lines", m.CommentLines),
		nonNegIntPtr("blank_lines", m.BlankLines),
		nonNegIntPtr("bytes", m.Bytes),
		nonNegIntPtr("complexity", m.Complexity),
		nonNegIntPtr("uloc", m.Uloc),
		nonNegFloatPtr("comment_ratio", m.CommentRatio),
		nonNegFloatPtr("blank_ratio", m.BlankRatio),
		nonNegFloatPtr("code_ratio", m.CodeRatio),
		nonNegFloatPtr("complexity_density", m.ComplexityDensity),
		nonNegFloatPtr("dryness", m.Dryness),
		nonNegFloatPtr("bytes_per_loc", m.BytesPerLoc),
	)
}

// LizardFileMetric is one row in lz_lizard_file_metrics.
type LizardFileMetric struct {
	RunPK         int64
	FileID        string
	RelativePath  string
	Language      *string
	Nloc          *int64
	FunctionCount *int64
	TotalCcn      *int64
	AvgCcn        *float64
	MaxCcn        *int64
}

// Validate implements Entity.
func (m *LizardFileMetric) Validate() error {
	return firstError(
		requirePK(m.RunPK),
		requireIdent("file_id", m.FileID),
		requirePath("relative_path", m.RelativePath),
		nonNegIntPtr("nloc", m.Nloc),
		nonNegIntPtr("function_count", m.FunctionCount),
		nonNegIntPtr("total_ccn", m.TotalCcn),
		nonNegFloatPtr("avg_ccn", m.AvgCcn),
		nonNegIntPtr("max_ccn", m.MaxCcn),
	)
}

// LizardFunctionMetric is one row in lz_lizard_function_metrics.
type LizardFunctionMetric struct {
	RunPK        int64
	FileID       string
	FunctionName string
	LongName     *string
	Ccn          *int64
	Nloc         *int64
	Params       *int64
	TokenCount   *int64
	LineStart    *int64
	LineEnd      *int64
}

// Validate implements Entity.
func (m *LizardFunctionMetric) Validate() error {
	return firstError(
		requirePK(m.RunPK),
		requireIdent("file_id", m.FileID),
		requireString("function_name", m.FunctionName),
		nonNegIntPtr("ccn", m.Ccn),
		nonNegIntPtr("nloc", m.Nloc),
		nonNegIntPtr("params", m.Params),
		nonNegIntPtr("token_count", m.TokenCount),
		lineRange(m.LineStart, m.LineEnd),
	)
}
