package entities

import "fmt"

// CodeSymbol is one row in lz_code_symbols.
type CodeSymbol struct {
	RunPK        int64
	FileID       string
	DirectoryID  string
	RelativePath string
	SymbolName   string
	SymbolType   string
	LineStart    *int64
	LineEnd      *int64
	IsExported   bool
	Parameters   *int64
	ParentSymbol *string
	Docstring    *string
}

// Validate implements Entity.
func (s *CodeSymbol) Validate() error {
	return firstError(
		requirePK(s.RunPK),
		requireIdent("file_id", s.FileID),
		requirePath("relative_path", s.RelativePath),
		requireString("symbol_name", s.SymbolName),
		oneOf("symbol_type", s.SymbolType, SymbolTypes),
		lineRange(s.LineStart, s.LineEnd),
		nonNegIntPtr("parameters", s.Parameters),
	)
}

// SymbolCall is one row in lz_symbol_calls. Callee columns stay NULL for
// external or unresolved targets.
type SymbolCall struct {
	RunPK             int64
	CallerFileID      string
	CallerDirectoryID string
	CallerFilePath    string
	CallerSymbol      string
	CalleeSymbol      string
	CalleeFileID      *string
	CalleeFilePath    *string
	LineNumber        *int64
	CallType          *string
}

// Validate implements Entity.
func (c *SymbolCall) Validate() error {
	if err := firstError(
		requirePK(c.RunPK),
		requireIdent("caller_file_id", c.CallerFileID),
		requirePath("caller_file_path", c.CallerFilePath),
		requireString("caller_symbol", c.CallerSymbol),
		requireString("callee_symbol", c.CalleeSymbol),
		requirePathPtr("callee_file_path", c.CalleeFilePath),
		oneOfPtr("call_type", c.CallType, CallTypes),
	); err != nil {
		return err
	}
	if c.LineNumber != nil && *c.LineNumber < 1 {
		return fmt.Errorf("line_number must be >= 1, got %d", *c.LineNumber)
	}
	return nil
}

// FileImport is one row in lz_file_imports.
type FileImport struct {
	RunPK           int64
	FileID          string
	DirectoryID     string
	RelativePath    string
	ImportedPath    string
	ImportedSymbols *string
	ImportType      *string
	LineNumber      *int64
}

// Validate implements Entity.
func (i *FileImport) Validate() error {
	if err := firstError(
		requirePK(i.RunPK),
		requireIdent("file_id", i.FileID),
		requirePath("relative_path", i.RelativePath),
		requireString("imported_path", i.ImportedPath),
		oneOfPtr("import_type", i.ImportType, ImportTypes),
	); err != nil {
		return err
	}
	if i.LineNumber != nil && *i.LineNumber < 1 {
		return fmt.Errorf("line_number must be >= 1, got %d", *i.LineNumber)
	}
	return nil
}
