// Package adapters turns raw tool payloads into landing zone rows. Every
// adapter runs the same pipeline: schema validation, run registration,
// table management, typed extraction, quality validation, catalog
// mapping with deduplication, and one transactional bulk write.
package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/internal/validation"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// RunContext carries the identifiers an adapter needs while persisting
// one payload. LayoutRunPK is zero for the catalog adapter itself.
type RunContext struct {
	RunPK       int64
	LayoutRunPK int64
	Metadata    schema.Metadata
	// Catalog is the layout run's file index, loaded before the fact
	// transaction opens. SQLite runs on a single connection, so any
	// pool query issued while the transaction holds it would block.
	Catalog map[string]repositories.FileRecord
}

// Adapter persists one tool's payload into its landing tables.
type Adapter interface {
	// Name is the tool name carried in envelope metadata and used to
	// select the payload schema.
	Name() string
	// Tables lists the landing tables this adapter writes.
	Tables() []schema.TableSpec
	// Policy decides how unresolved catalog paths are handled.
	Policy() schema.ReferentialPolicy
	// Persist extracts, validates, maps and writes the data section.
	// All fact writes go through tx so one failure rolls back the
	// whole payload.
	Persist(ctx context.Context, p *Pipeline, rc RunContext, data json.RawMessage, tx *sql.Tx) error
}

// Pipeline wires the shared ingestion machinery: one database session,
// the compiled payload schemas, the table manager and the repositories
// every adapter depends on.
type Pipeline struct {
	session *database.Session
	schemas *validation.SchemaRegistry
	tables  *validation.TableManager
	runs    *repositories.RunRepository
	layout  *repositories.LayoutRepository
	logger  *zap.Logger
}

// NewPipeline builds a pipeline on an open session.
func NewPipeline(session *database.Session) (*Pipeline, error) {
	registry, err := validation.NewSchemaRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load payload schemas: %w", err)
	}
	return &Pipeline{
		session: session,
		schemas: registry,
		tables:  validation.NewTableManager(session),
		runs:    repositories.NewRunRepository(session),
		layout:  repositories.NewLayoutRepository(session),
		logger:  session.Logger(),
	}, nil
}

// Session exposes the underlying database session.
func (p *Pipeline) Session() *database.Session { return p.session }

// Runs exposes the run repository for callers managing collections.
func (p *Pipeline) Runs() *repositories.RunRepository { return p.runs }

// Layout exposes the catalog repository.
func (p *Pipeline) Layout() *repositories.LayoutRepository { return p.layout }

// Logger exposes the pipeline logger.
func (p *Pipeline) Logger() *zap.Logger { return p.logger }

// Ingest runs the full persist pipeline for one payload and returns the
// allocated run primary key.
//
// The tool run row is registered right after schema validation passes
// and before any fact work, so a later failure leaves a failed run row
// behind as an audit record. Fact writes happen inside one transaction;
// the run registration deliberately does not.
func (p *Pipeline) Ingest(ctx context.Context, adapter Adapter, raw []byte, collectionPK *int64) (int64, error) {
	env, err := schema.DecodeEnvelope(raw)
	if err != nil {
		return 0, fmt.Errorf("%s payload is not a valid envelope: %w", adapter.Name(), err)
	}
	if err := env.Metadata.Validate(); err != nil {
		return 0, fmt.Errorf("%s envelope metadata invalid: %w", adapter.Name(), err)
	}

	if err := p.schemas.ValidatePayload(adapter.Name(), raw); err != nil {
		var schemaErr *validation.SchemaError
		if errors.As(err, &schemaErr) {
			for _, v := range schemaErr.Violations {
				p.logger.Warn("schema violation",
					zap.String("tool", adapter.Name()),
					zap.String("pointer", v.Pointer),
					zap.String("message", v.Message))
			}
		}
		return 0, err
	}

	if _, exists, err := p.runs.FindToolRunByRunID(ctx, env.Metadata.RunID, adapter.Name()); err != nil {
		return 0, err
	} else if exists {
		return 0, fmt.Errorf("tool %q already ingested for run id %s", adapter.Name(), env.Metadata.RunID)
	}

	runPK, err := p.runs.AllocatePK(ctx)
	if err != nil {
		return 0, err
	}
	if err := p.runs.InsertToolRun(ctx, toolRunFromMetadata(runPK, env.Metadata, collectionPK)); err != nil {
		return 0, err
	}

	if err := p.persistFacts(ctx, adapter, runPK, env); err != nil {
		msg := err.Error()
		if markErr := p.runs.MarkToolRun(ctx, runPK, schema.RunFailed, &msg); markErr != nil {
			p.logger.Error("failed to mark run as failed",
				zap.Int64("run_pk", runPK), zap.Error(markErr))
		}
		return runPK, err
	}

	if err := p.runs.MarkToolRun(ctx, runPK, schema.RunCompleted, nil); err != nil {
		return runPK, err
	}
	p.logger.Info("persisted tool payload",
		zap.String("tool", adapter.Name()),
		zap.Int64("run_pk", runPK))
	return runPK, nil
}

func (p *Pipeline) persistFacts(ctx context.Context, adapter Adapter, runPK int64, env *schema.Envelope) error {
	for _, spec := range adapter.Tables() {
		if err := p.tables.Ensure(ctx, spec); err != nil {
			return err
		}
	}

	rc := RunContext{RunPK: runPK, Metadata: env.Metadata}
	if adapter.Name() != "layout-scanner" {
		layoutPK, found, err := p.runs.FindLayoutRun(ctx, env.Metadata.RunID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no completed catalog run for run id %s: persist layout-scanner output first", env.Metadata.RunID)
		}
		rc.LayoutRunPK = layoutPK
		index, err := p.layout.FileIndex(ctx, layoutPK)
		if err != nil {
			return err
		}
		rc.Catalog = index
	}

	return p.session.WithTx(ctx, func(tx *sql.Tx) error {
		return adapter.Persist(ctx, p, rc, env.Data, tx)
	})
}

func toolRunFromMetadata(runPK int64, md schema.Metadata, collectionPK *int64) *entities.ToolRun {
	run := &entities.ToolRun{
		RunPK:           runPK,
		RunID:           md.RunID,
		RepoID:          md.RepoID,
		ToolName:        md.ToolName,
		Commit:          md.Commit,
		CapturedAt:      md.Timestamp,
		Status:          string(schema.RunRunning),
		CollectionRunPK: collectionPK,
	}
	if md.ToolVersion != "" {
		run.ToolVersion = &md.ToolVersion
	}
	if md.SchemaVersion != "" {
		run.SchemaVersion = &md.SchemaVersion
	}
	if md.Branch != "" {
		run.Branch = &md.Branch
	}
	return run
}
