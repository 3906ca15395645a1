package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/internal/pathutil"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/internal/validation"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// SymbolScannerAdapter ingests code symbols, the call graph between them,
// and file imports. Call edges to external targets keep their callee
// columns NULL.
type SymbolScannerAdapter struct {
	repo *repositories.SymbolRepository
}

// NewSymbolScannerAdapter creates the symbol-scanner adapter.
func NewSymbolScannerAdapter(session *database.Session) *SymbolScannerAdapter {
	return &SymbolScannerAdapter{repo: repositories.NewSymbolRepository(session)}
}

var _ Adapter = &SymbolScannerAdapter{}

func (a *SymbolScannerAdapter) Name() string { return "symbol-scanner" }

func (a *SymbolScannerAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{
		repositories.CodeSymbolsTable,
		repositories.SymbolCallsTable,
		repositories.FileImportsTable,
	}
}

func (a *SymbolScannerAdapter) Policy() schema.ReferentialPolicy { return schema.LenientPolicy }

type symbolEntry struct {
	Path         string  `json:"path"`
	SymbolName   string  `json:"symbol_name"`
	SymbolType   string  `json:"symbol_type"`
	LineStart    *int64  `json:"line_start"`
	LineEnd      *int64  `json:"line_end"`
	IsExported   bool    `json:"is_exported"`
	Parameters   *int64  `json:"parameters"`
	ParentSymbol *string `json:"parent_symbol"`
	Docstring    *string `json:"docstring"`
}

type symbolCallEntry struct {
	CallerFile   string  `json:"caller_file"`
	CallerSymbol string  `json:"caller_symbol"`
	CalleeSymbol string  `json:"callee_symbol"`
	CalleeFile   *string `json:"callee_file"`
	LineNumber   *int64  `json:"line_number"`
	CallType     *string `json:"call_type"`
}

type fileImportEntry struct {
	File            string   `json:"file"`
	ImportedPath    string   `json:"imported_path"`
	ImportedSymbols []string `json:"imported_symbols"`
	ImportType      *string  `json:"import_type"`
	LineNumber      *int64   `json:"line_number"`
}

type symbolScannerPayload struct {
	Symbols []symbolEntry     `json:"symbols"`
	Calls   []symbolCallEntry `json:"calls"`
	Imports []fileImportEntry `json:"imports"`
}

func (a *SymbolScannerAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload symbolScannerPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode symbol-scanner data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	resolver := NewResolver(p, rc, a)

	symbols, err := a.mapSymbols(payload, rc, resolver, p)
	if err != nil {
		return err
	}
	calls, err := a.mapCalls(payload, rc, resolver)
	if err != nil {
		return err
	}
	imports, err := a.mapImports(payload, rc, resolver, p)
	if err != nil {
		return err
	}

	if err := a.repo.InsertSymbols(ctx, tx, symbols); err != nil {
		return err
	}
	if err := a.repo.InsertCalls(ctx, tx, calls); err != nil {
		return err
	}
	return a.repo.InsertImports(ctx, tx, imports)
}

func (a *SymbolScannerAdapter) mapSymbols(payload symbolScannerPayload, rc RunContext, resolver *Resolver, p *Pipeline) ([]*entities.CodeSymbol, error) {
	type symbolKey struct {
		fileID string
		name   string
		line   int64
	}
	seen := newDedupSet[symbolKey](a.Name(), p.logger)
	symbols := make([]*entities.CodeSymbol, 0, len(payload.Symbols))
	for _, s := range payload.Symbols {
		rec, path, ok, err := resolver.Resolve(s.Path)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var line int64
		if s.LineStart != nil {
			line = *s.LineStart
		}
		key := symbolKey{fileID: rec.FileID, name: s.SymbolName, line: line}
		if !seen.claim(key, fmt.Sprintf("symbol %s at %s:%d", s.SymbolName, path, line)) {
			continue
		}
		symbols = append(symbols, &entities.CodeSymbol{
			RunPK:        rc.RunPK,
			FileID:       rec.FileID,
			DirectoryID:  rec.DirectoryID,
			RelativePath: path,
			SymbolName:   s.SymbolName,
			SymbolType:   s.SymbolType,
			LineStart:    s.LineStart,
			LineEnd:      s.LineEnd,
			IsExported:   s.IsExported,
			Parameters:   s.Parameters,
			ParentSymbol: s.ParentSymbol,
			Docstring:    s.Docstring,
		})
	}
	return symbols, nil
}

func (a *SymbolScannerAdapter) mapCalls(payload symbolScannerPayload, rc RunContext, resolver *Resolver) ([]*entities.SymbolCall, error) {
	calls := make([]*entities.SymbolCall, 0, len(payload.Calls))
	for _, call := range payload.Calls {
		rec, callerPath, ok, err := resolver.Resolve(call.CallerFile)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		row := &entities.SymbolCall{
			RunPK:             rc.RunPK,
			CallerFileID:      rec.FileID,
			CallerDirectoryID: rec.DirectoryID,
			CallerFilePath:    callerPath,
			CallerSymbol:      call.CallerSymbol,
			CalleeSymbol:      call.CalleeSymbol,
			LineNumber:        call.LineNumber,
			CallType:          call.CallType,
		}
		if call.CalleeFile != nil && *call.CalleeFile != "" {
			calleeRec, calleePath, calleeOK, err := resolver.Resolve(*call.CalleeFile)
			if err != nil {
				return nil, err
			}
			if calleeOK {
				calleeID := calleeRec.FileID
				row.CalleeFileID = &calleeID
				row.CalleeFilePath = &calleePath
			}
		}
		calls = append(calls, row)
	}
	return calls, nil
}

func (a *SymbolScannerAdapter) mapImports(payload symbolScannerPayload, rc RunContext, resolver *Resolver, p *Pipeline) ([]*entities.FileImport, error) {
	type importKey struct {
		fileID   string
		imported string
		line     int64
	}
	seen := newDedupSet[importKey](a.Name(), p.logger)
	imports := make([]*entities.FileImport, 0, len(payload.Imports))
	for _, imp := range payload.Imports {
		rec, path, ok, err := resolver.Resolve(imp.File)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var line int64
		if imp.LineNumber != nil {
			line = *imp.LineNumber
		}
		key := importKey{fileID: rec.FileID, imported: imp.ImportedPath, line: line}
		if !seen.claim(key, fmt.Sprintf("import %s in %s:%d", imp.ImportedPath, path, line)) {
			continue
		}
		var symbols *string
		if len(imp.ImportedSymbols) > 0 {
			joined := strings.Join(imp.ImportedSymbols, ",")
			symbols = &joined
		}
		imports = append(imports, &entities.FileImport{
			RunPK:           rc.RunPK,
			FileID:          rec.FileID,
			DirectoryID:     rec.DirectoryID,
			RelativePath:    path,
			ImportedPath:    imp.ImportedPath,
			ImportedSymbols: symbols,
			ImportType:      imp.ImportType,
			LineNumber:      imp.LineNumber,
		})
	}
	return imports, nil
}

func (a *SymbolScannerAdapter) checkQuality(payload symbolScannerPayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, s := range payload.Symbols {
		path := pathutil.NormalizeFilePath(s.Path)
		c.Checkf(pathutil.IsRepoRelative(path), "symbol[%d] path invalid: %s", i, s.Path)
		c.NonEmpty(fmt.Sprintf("symbol[%d].symbol_name", i), s.SymbolName)
		c.OneOf(fmt.Sprintf("symbol[%d].symbol_type", i), s.SymbolType, entities.SymbolTypes)
		if s.LineStart != nil && s.LineEnd != nil {
			c.LineRange(fmt.Sprintf("symbol[%d]", i), *s.LineStart, *s.LineEnd)
		}
		if s.Parameters != nil {
			c.NonNegative(fmt.Sprintf("symbol[%d].parameters", i), *s.Parameters)
		}
	}
	for i, call := range payload.Calls {
		c.NonEmpty(fmt.Sprintf("call[%d].caller_file", i), call.CallerFile)
		c.NonEmpty(fmt.Sprintf("call[%d].caller_symbol", i), call.CallerSymbol)
		c.NonEmpty(fmt.Sprintf("call[%d].callee_symbol", i), call.CalleeSymbol)
		if call.CallType != nil {
			c.OneOf(fmt.Sprintf("call[%d].call_type", i), *call.CallType, entities.CallTypes)
		}
		c.Checkf(call.LineNumber == nil || *call.LineNumber >= 1,
			"call[%d] line_number must be >= 1", i)
	}
	for i, imp := range payload.Imports {
		c.NonEmpty(fmt.Sprintf("import[%d].file", i), imp.File)
		c.NonEmpty(fmt.Sprintf("import[%d].imported_path", i), imp.ImportedPath)
		if imp.ImportType != nil {
			c.OneOf(fmt.Sprintf("import[%d].import_type", i), *imp.ImportType, entities.ImportTypes)
		}
		c.Checkf(imp.LineNumber == nil || *imp.LineNumber >= 1,
			"import[%d] line_number must be >= 1", i)
	}
	return c.Err(p.logger)
}
