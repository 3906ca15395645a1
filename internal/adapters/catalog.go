package adapters

import (
	"go.uber.org/zap"

	"github.com/alexander-stage-hoco/caldera-sot/internal/pathutil"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/internal/validation"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// Resolver maps payload file paths onto the catalog of a layout run.
// Lenient adapters log and skip paths the catalog does not know;
// strict adapters abort the persist on the first miss.
type Resolver struct {
	index  map[string]repositories.FileRecord
	policy schema.ReferentialPolicy
	tool   string
	logger *zap.Logger
}

// NewResolver wraps the run context's preloaded catalog index.
func NewResolver(p *Pipeline, rc RunContext, adapter Adapter) *Resolver {
	return &Resolver{
		index:  rc.Catalog,
		policy: adapter.Policy(),
		tool:   adapter.Name(),
		logger: p.logger,
	}
}

// Resolve normalizes a raw payload path and looks it up in the catalog.
// The second return is false when the record should be skipped under
// the lenient policy; strict misses return a ReferentialError.
func (r *Resolver) Resolve(rawPath string) (repositories.FileRecord, string, bool, error) {
	path := pathutil.NormalizeFilePath(rawPath)
	rec, ok := r.index[path]
	if ok {
		return rec, path, true, nil
	}
	if r.policy == schema.StrictPolicy {
		return repositories.FileRecord{}, path, false, &validation.ReferentialError{Tool: r.tool, Path: path}
	}
	r.logger.Warn("path not in catalog, skipping record",
		zap.String("tool", r.tool),
		zap.String("path", path))
	return repositories.FileRecord{}, path, false, nil
}
