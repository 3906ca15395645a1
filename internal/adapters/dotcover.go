package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/internal/validation"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// DotcoverAdapter ingests statement coverage at assembly, type, and method
// granularity. Types carry an optional source file mapping; assemblies and
// methods do not.
type DotcoverAdapter struct {
	repo *repositories.DotcoverRepository
}

// NewDotcoverAdapter creates the dotcover adapter.
func NewDotcoverAdapter(session *database.Session) *DotcoverAdapter {
	return &DotcoverAdapter{repo: repositories.NewDotcoverRepository(session)}
}

var _ Adapter = &DotcoverAdapter{}

func (a *DotcoverAdapter) Name() string { return "dotcover" }

func (a *DotcoverAdapter) Tables() []schema.TableSpec {
	return []schema.TableSpec{
		repositories.DotcoverAssemblyCoverageTable,
		repositories.DotcoverTypeCoverageTable,
		repositories.DotcoverMethodCoverageTable,
	}
}

func (a *DotcoverAdapter) Policy() schema.ReferentialPolicy { return schema.LenientPolicy }

type dotcoverStats struct {
	CoveredStatements    int64   `json:"covered_statements"`
	TotalStatements      int64   `json:"total_statements"`
	StatementCoveragePct float64 `json:"statement_coverage_pct"`
}

type dotcoverAssembly struct {
	Name string `json:"name"`
	dotcoverStats
}

type dotcoverType struct {
	Assembly  string  `json:"assembly"`
	Namespace *string `json:"namespace"`
	Name      string  `json:"name"`
	FilePath  *string `json:"file_path"`
	dotcoverStats
}

type dotcoverMethod struct {
	Assembly string `json:"assembly"`
	TypeName string `json:"type_name"`
	Name     string `json:"name"`
	dotcoverStats
}

type dotcoverPayload struct {
	Assemblies []dotcoverAssembly `json:"assemblies"`
	Types      []dotcoverType     `json:"types"`
	Methods    []dotcoverMethod   `json:"methods"`
}

func (a *DotcoverAdapter) Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error {
	var payload dotcoverPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode dotcover data: %w", err)
	}

	if err := a.checkQuality(payload, p); err != nil {
		return err
	}

	resolver := NewResolver(p, rc, a)

	seenAssemblies := newDedupSet[string](a.Name(), p.logger)
	assemblies := make([]*entities.DotcoverAssemblyCoverage, 0, len(payload.Assemblies))
	for _, asm := range payload.Assemblies {
		if !seenAssemblies.claim(asm.Name, fmt.Sprintf("assembly %s", asm.Name)) {
			continue
		}
		assemblies = append(assemblies, &entities.DotcoverAssemblyCoverage{
			RunPK:                rc.RunPK,
			AssemblyName:         asm.Name,
			CoveredStatements:    asm.CoveredStatements,
			TotalStatements:      asm.TotalStatements,
			StatementCoveragePct: asm.StatementCoveragePct,
		})
	}

	type typeKey struct {
		assembly string
		name     string
	}
	seenTypes := newDedupSet[typeKey](a.Name(), p.logger)
	types := make([]*entities.DotcoverTypeCoverage, 0, len(payload.Types))
	for _, t := range payload.Types {
		key := typeKey{assembly: t.Assembly, name: t.Name}
		if !seenTypes.claim(key, fmt.Sprintf("type %s in %s", t.Name, t.Assembly)) {
			continue
		}
		row := &entities.DotcoverTypeCoverage{
			RunPK:                rc.RunPK,
			AssemblyName:         t.Assembly,
			Namespace:            t.Namespace,
			TypeName:             t.Name,
			CoveredStatements:    t.CoveredStatements,
			TotalStatements:      t.TotalStatements,
			StatementCoveragePct: t.StatementCoveragePct,
		}
		if t.FilePath != nil && *t.FilePath != "" {
			rec, path, ok, err := resolver.Resolve(*t.FilePath)
			if err != nil {
				return err
			}
			if ok {
				fileID := rec.FileID
				dirID := rec.DirectoryID
				row.FileID = &fileID
				row.DirectoryID = &dirID
				row.RelativePath = &path
			}
		}
		types = append(types, row)
	}

	type methodKey struct {
		assembly string
		typeName string
		name     string
	}
	seenMethods := newDedupSet[methodKey](a.Name(), p.logger)
	methods := make([]*entities.DotcoverMethodCoverage, 0, len(payload.Methods))
	for _, m := range payload.Methods {
		key := methodKey{assembly: m.Assembly, typeName: m.TypeName, name: m.Name}
		if !seenMethods.claim(key, fmt.Sprintf("method %s.%s in %s", m.TypeName, m.Name, m.Assembly)) {
			continue
		}
		methods = append(methods, &entities.DotcoverMethodCoverage{
			RunPK:                rc.RunPK,
			AssemblyName:         m.Assembly,
			TypeName:             m.TypeName,
			MethodName:           m.Name,
			CoveredStatements:    m.CoveredStatements,
			TotalStatements:      m.TotalStatements,
			StatementCoveragePct: m.StatementCoveragePct,
		})
	}

	if err := a.repo.InsertAssemblyCoverage(ctx, tx, assemblies); err != nil {
		return err
	}
	if err := a.repo.InsertTypeCoverage(ctx, tx, types); err != nil {
		return err
	}
	return a.repo.InsertMethodCoverage(ctx, tx, methods)
}

func (a *DotcoverAdapter) checkStats(c *validation.Checker, label string, s dotcoverStats) {
	c.NonNegative(label+".covered_statements", s.CoveredStatements)
	c.NonNegative(label+".total_statements", s.TotalStatements)
	c.Percent(label+".statement_coverage_pct", s.StatementCoveragePct)
	c.Checkf(s.CoveredStatements <= s.TotalStatements,
		"%s covered_statements %d exceeds total_statements %d", label, s.CoveredStatements, s.TotalStatements)
}

func (a *DotcoverAdapter) checkQuality(payload dotcoverPayload, p *Pipeline) error {
	c := validation.NewChecker(a.Name())
	for i, asm := range payload.Assemblies {
		c.NonEmpty(fmt.Sprintf("assembly[%d].name", i), asm.Name)
		a.checkStats(c, fmt.Sprintf("assembly[%d]", i), asm.dotcoverStats)
	}
	for i, t := range payload.Types {
		c.NonEmpty(fmt.Sprintf("type[%d].assembly", i), t.Assembly)
		c.NonEmpty(fmt.Sprintf("type[%d].name", i), t.Name)
		a.checkStats(c, fmt.Sprintf("type[%d]", i), t.dotcoverStats)
	}
	for i, m := range payload.Methods {
		c.NonEmpty(fmt.Sprintf("method[%d].assembly", i), m.Assembly)
		c.NonEmpty(fmt.Sprintf("method[%d].type_name", i), m.TypeName)
		c.NonEmpty(fmt.Sprintf("method[%d].name", i), m.Name)
		a.checkStats(c, fmt.Sprintf("method[%d]", i), m.dotcoverStats)
	}
	return c.Err(p.logger)
}
