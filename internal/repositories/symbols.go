package repositories

import (
	"context"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// CodeSymbolsTable declares lz_code_symbols.
var CodeSymbolsTable = schema.TableSpec{
	Name: "lz_code_symbols",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "symbol_name", Type: "TEXT"},
		{Name: "symbol_type", Type: "TEXT"},
		{Name: "line_start", Type: "BIGINT", Nullable: true},
		{Name: "line_end", Type: "BIGINT", Nullable: true},
		{Name: "is_exported", Type: "BOOLEAN"},
		{Name: "parameters", Type: "BIGINT", Nullable: true},
		{Name: "parent_symbol", Type: "TEXT", Nullable: true},
		{Name: "docstring", Type: "TEXT", Nullable: true},
	},
	PrimaryKey: []string{"run_pk", "file_id", "symbol_name", "line_start"},
}

// SymbolCallsTable declares lz_symbol_calls.
var SymbolCallsTable = schema.TableSpec{
	Name: "lz_symbol_calls",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "caller_file_id", Type: "TEXT"},
		{Name: "caller_directory_id", Type: "TEXT"},
		{Name: "caller_file_path", Type: "TEXT"},
		{Name: "caller_symbol", Type: "TEXT"},
		{Name: "callee_symbol", Type: "TEXT"},
		{Name: "callee_file_id", Type: "TEXT", Nullable: true},
		{Name: "callee_file_path", Type: "TEXT", Nullable: true},
		{Name: "line_number", Type: "BIGINT", Nullable: true},
		{Name: "call_type", Type: "TEXT", Nullable: true},
	},
}

// FileImportsTable declares lz_file_imports.
var FileImportsTable = schema.TableSpec{
	Name: "lz_file_imports",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "directory_id", Type: "TEXT"},
		{Name: "relative_path", Type: "TEXT"},
		{Name: "imported_path", Type: "TEXT"},
		{Name: "imported_symbols", Type: "TEXT", Nullable: true},
		{Name: "import_type", Type: "TEXT", Nullable: true},
		{Name: "line_number", Type: "BIGINT", Nullable: true},
	},
}

// SymbolRepository manages the symbol-scanner landing tables.
type SymbolRepository struct {
	session *database.Session
}

// NewSymbolRepository creates a symbol repository bound to one session.
func NewSymbolRepository(session *database.Session) *SymbolRepository {
	return &SymbolRepository{session: session}
}

// InsertSymbols bulk-writes symbol definitions.
func (r *SymbolRepository) InsertSymbols(ctx context.Context, db database.DBTX, rows []*entities.CodeSymbol) error {
	return InsertBulk(ctx, r.session, db, CodeSymbolsTable.Name, CodeSymbolsTable.ColumnNames(), rows,
		func(s *entities.CodeSymbol) []any {
			return []any{
				s.RunPK, s.FileID, s.DirectoryID, s.RelativePath, s.SymbolName,
				s.SymbolType, s.LineStart, s.LineEnd, s.IsExported, s.Parameters,
				s.ParentSymbol, s.Docstring,
			}
		})
}

// InsertCalls bulk-writes call relationships.
func (r *SymbolRepository) InsertCalls(ctx context.Context, db database.DBTX, rows []*entities.SymbolCall) error {
	return InsertBulk(ctx, r.session, db, SymbolCallsTable.Name, SymbolCallsTable.ColumnNames(), rows,
		func(c *entities.SymbolCall) []any {
			return []any{
				c.RunPK, c.CallerFileID, c.CallerDirectoryID, c.CallerFilePath,
				c.CallerSymbol, c.CalleeSymbol, c.CalleeFileID, c.CalleeFilePath,
				c.LineNumber, c.CallType,
			}
		})
}

// InsertImports bulk-writes import statements.
func (r *SymbolRepository) InsertImports(ctx context.Context, db database.DBTX, rows []*entities.FileImport) error {
	return InsertBulk(ctx, r.session, db, FileImportsTable.Name, FileImportsTable.ColumnNames(), rows,
		func(i *entities.FileImport) []any {
			return []any{
				i.RunPK, i.FileID, i.DirectoryID, i.RelativePath, i.ImportedPath,
				i.ImportedSymbols, i.ImportType, i.LineNumber,
			}
		})
}
