// Package ingest orchestrates collection runs: it groups tool payloads
// under one collection, enforces catalog-first ordering, and handles
// replacement of previously ingested collections.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexander-stage-hoco/caldera-sot/internal/adapters"
	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/internal/repositories"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// Options configures one collection sweep.
type Options struct {
	CollectionID string
	RepoID       string
	Branch       string
	Commit       string
	Replace      bool
}

// Collection is an open collection run accepting payloads.
type Collection struct {
	PK int64
	ID string
}

// Orchestrator drives the ingestion of payload batches.
type Orchestrator struct {
	session  *database.Session
	pipeline *adapters.Pipeline
	registry *adapters.Registry
	runs     *repositories.RunRepository
	logger   *zap.Logger
}

// NewOrchestrator builds an orchestrator on an open session.
func NewOrchestrator(session *database.Session) (*Orchestrator, error) {
	pipeline, err := adapters.NewPipeline(session)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		session:  session,
		pipeline: pipeline,
		registry: adapters.NewRegistry(session),
		runs:     repositories.NewRunRepository(session),
		logger:   session.Logger(),
	}, nil
}

// Pipeline exposes the underlying persist pipeline.
func (o *Orchestrator) Pipeline() *adapters.Pipeline { return o.pipeline }

// Registry exposes the adapter registry.
func (o *Orchestrator) Registry() *adapters.Registry { return o.registry }

// BeginCollection opens a collection run. An existing collection with the
// same identifier is replaced when opts.Replace is set; otherwise the call
// fails so already ingested data is never silently duplicated.
func (o *Orchestrator) BeginCollection(ctx context.Context, opts Options) (*Collection, error) {
	id := opts.CollectionID
	if id == "" {
		id = uuid.NewString()
	}

	existing, found, err := o.runs.FindCollectionRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if found {
		if !opts.Replace {
			return nil, fmt.Errorf("collection %q already exists with status %s: pass --replace to re-ingest", id, existing.Status)
		}
		if err := o.deleteCollection(ctx, existing.CollectionPK); err != nil {
			return nil, fmt.Errorf("failed to replace collection %q: %w", id, err)
		}
		o.logger.Info("replaced existing collection",
			zap.String("collection_id", id),
			zap.Int64("collection_pk", existing.CollectionPK))
	}

	// A (repo, commit) pair belongs to at most one collection.
	byCommit, found, err := o.runs.FindCollectionRunByCommit(ctx, opts.RepoID, opts.Commit)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, fmt.Errorf("commit %s of %s is already covered by collection %q: pass --replace with that collection id",
			opts.Commit, opts.RepoID, byCommit.CollectionID)
	}

	pk, err := o.runs.AllocatePK(ctx)
	if err != nil {
		return nil, err
	}
	run := &entities.CollectionRun{
		CollectionPK: pk,
		CollectionID: id,
		RepoID:       opts.RepoID,
		Commit:       opts.Commit,
		StartedAt:    time.Now().UTC(),
		Status:       string(schema.RunRunning),
	}
	if opts.Branch != "" {
		run.Branch = &opts.Branch
	}
	if err := o.runs.InsertCollectionRun(ctx, run); err != nil {
		return nil, err
	}
	return &Collection{PK: pk, ID: id}, nil
}

// deleteCollection clears every fact row, tool run, and the registration
// of a superseded collection in one transaction.
func (o *Orchestrator) deleteCollection(ctx context.Context, collectionPK int64) error {
	runPKs, err := o.runs.CollectionRunPKs(ctx, collectionPK)
	if err != nil {
		return err
	}
	return o.session.WithTx(ctx, func(tx *sql.Tx) error {
		for _, table := range repositories.FactTableNames() {
			if err := o.runs.DeleteByRunPKs(ctx, tx, table, runPKs); err != nil {
				return err
			}
		}
		if err := o.runs.DeleteToolRuns(ctx, tx, runPKs); err != nil {
			return err
		}
		return o.runs.DeleteCollectionRun(ctx, tx, collectionPK)
	})
}

// IngestPayload dispatches one raw payload to the adapter named in its
// envelope metadata.
func (o *Orchestrator) IngestPayload(ctx context.Context, c *Collection, raw []byte) (int64, error) {
	env, err := schema.DecodeEnvelope(raw)
	if err != nil {
		return 0, err
	}
	adapter, err := o.registry.Get(env.Metadata.ToolName)
	if err != nil {
		return 0, err
	}
	return o.pipeline.Ingest(ctx, adapter, raw, &c.PK)
}

// IngestDir ingests every *.json payload in a directory. The catalog
// payload goes first so every other adapter can resolve against it;
// remaining payloads run in file name order. Failures do not stop the
// sweep, the combined error comes back at the end.
func (o *Orchestrator) IngestDir(ctx context.Context, c *Collection, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read payload directory %s: %w", dir, err)
	}

	var catalog []string
	var rest []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		tool, err := peekToolName(path)
		if err != nil {
			o.logger.Warn("skipping unreadable payload", zap.String("path", path), zap.Error(err))
			continue
		}
		if tool == "layout-scanner" {
			catalog = append(catalog, path)
		} else {
			rest = append(rest, path)
		}
	}
	sort.Strings(rest)

	var errs []error
	for _, path := range append(catalog, rest...) {
		raw, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read %s: %w", path, err))
			continue
		}
		if _, err := o.IngestPayload(ctx, c, raw); err != nil {
			o.logger.Error("payload ingestion failed",
				zap.String("path", path), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
		}
	}
	return errors.Join(errs...)
}

// FinishCollection writes the collection's terminal status.
func (o *Orchestrator) FinishCollection(ctx context.Context, c *Collection, ingestErr error) error {
	status := schema.RunCompleted
	var msg *string
	if ingestErr != nil {
		status = schema.RunFailed
		s := ingestErr.Error()
		msg = &s
	}
	return o.runs.MarkCollectionRun(ctx, c.PK, status, o.session.BindTime(time.Now().UTC()), msg)
}

// peekToolName reads just enough of a payload file to learn its tool.
func peekToolName(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	env, err := schema.DecodeEnvelope(raw)
	if err != nil {
		return "", err
	}
	return env.Metadata.ToolName, nil
}
