package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// RunRepository manages lz_tool_runs, lz_collection_runs and the shared
// run sequence.
type RunRepository struct {
	session *database.Session
}

// NewRunRepository creates a run repository bound to one session.
func NewRunRepository(session *database.Session) *RunRepository {
	return &RunRepository{session: session}
}

// AllocatePK increments the shared sequence and returns the new value.
// UPDATE ... RETURNING behaves identically on both backends and keeps
// allocation atomic without backend-specific sequence objects.
func (r *RunRepository) AllocatePK(ctx context.Context) (int64, error) {
	query := "UPDATE lz_run_sequence SET value = value + 1 RETURNING value"
	var pk int64
	if err := r.session.DB().QueryRowContext(ctx, query).Scan(&pk); err != nil {
		return 0, fmt.Errorf("failed to allocate run pk: %w", err)
	}
	return pk, nil
}

// InsertToolRun registers a tool run. This write happens outside the
// fact transaction so the registration survives later pipeline failures.
func (r *RunRepository) InsertToolRun(ctx context.Context, run *entities.ToolRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("tool run failed validation: %w", err)
	}
	query := r.session.Rebind(`
		INSERT INTO lz_tool_runs (
			run_pk, run_id, repo_id, tool_name, tool_version, schema_version,
			branch, commit_sha, captured_at, status, error_message, collection_run_pk
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.session.DB().ExecContext(ctx, query,
		run.RunPK, run.RunID, run.RepoID, run.ToolName, run.ToolVersion, run.SchemaVersion,
		run.Branch, run.Commit, r.session.BindTime(run.CapturedAt), run.Status,
		run.ErrorMessage, run.CollectionRunPK)
	if err != nil {
		return fmt.Errorf("failed to insert tool run %d: %w", run.RunPK, err)
	}
	return nil
}

// MarkToolRun updates a tool run's terminal status.
func (r *RunRepository) MarkToolRun(ctx context.Context, runPK int64, status schema.RunStatus, errorMessage *string) error {
	query := r.session.Rebind("UPDATE lz_tool_runs SET status = ?, error_message = ? WHERE run_pk = ?")
	res, err := r.session.DB().ExecContext(ctx, query, string(status), errorMessage, runPK)
	if err != nil {
		return fmt.Errorf("failed to mark tool run %d as %s: %w", runPK, status, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("tool run %d not found", runPK)
	}
	return nil
}

// GetToolRun fetches one tool run. The second return is false when no
// such run exists.
func (r *RunRepository) GetToolRun(ctx context.Context, runPK int64) (schema.ToolRunRecord, bool, error) {
	query := r.session.Rebind(`
		SELECT run_pk, run_id, repo_id, tool_name, tool_version, schema_version,
		       branch, commit_sha, captured_at, status, error_message, collection_run_pk
		FROM lz_tool_runs WHERE run_pk = ?`)
	var rec schema.ToolRunRecord
	var captured database.TimeValue
	var status string
	err := r.session.DB().QueryRowContext(ctx, query, runPK).Scan(
		&rec.RunPK, &rec.RunID, &rec.RepoID, &rec.ToolName, &rec.ToolVersion,
		&rec.SchemaVersion, &rec.Branch, &rec.Commit, &captured, &status,
		&rec.ErrorMessage, &rec.CollectionRunPK)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.ToolRunRecord{}, false, nil
	}
	if err != nil {
		return schema.ToolRunRecord{}, false, fmt.Errorf("failed to load tool run %d: %w", runPK, err)
	}
	rec.CapturedAt = captured.Time
	rec.Status = schema.RunStatus(status)
	return rec, true, nil
}

// ListToolRuns returns the most recent tool runs, newest first.
func (r *RunRepository) ListToolRuns(ctx context.Context, limit int) ([]schema.ToolRunRecord, error) {
	query := r.session.Rebind(`
		SELECT run_pk, run_id, repo_id, tool_name, tool_version, schema_version,
		       branch, commit_sha, captured_at, status, error_message, collection_run_pk
		FROM lz_tool_runs ORDER BY run_pk DESC LIMIT ?`)
	rows, err := r.session.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.ToolRunRecord
	for rows.Next() {
		var rec schema.ToolRunRecord
		var captured database.TimeValue
		var status string
		if err := rows.Scan(
			&rec.RunPK, &rec.RunID, &rec.RepoID, &rec.ToolName, &rec.ToolVersion,
			&rec.SchemaVersion, &rec.Branch, &rec.Commit, &captured, &status,
			&rec.ErrorMessage, &rec.CollectionRunPK); err != nil {
			return nil, fmt.Errorf("failed to scan tool run: %w", err)
		}
		rec.CapturedAt = captured.Time
		rec.Status = schema.RunStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListToolRunsByCollection returns every tool run of one collection in
// ingestion order.
func (r *RunRepository) ListToolRunsByCollection(ctx context.Context, collectionPK int64) ([]schema.ToolRunRecord, error) {
	query := r.session.Rebind(`
		SELECT run_pk, run_id, repo_id, tool_name, tool_version, schema_version,
		       branch, commit_sha, captured_at, status, error_message, collection_run_pk
		FROM lz_tool_runs WHERE collection_run_pk = ? ORDER BY run_pk`)
	rows, err := r.session.DB().QueryContext(ctx, query, collectionPK)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs of collection %d: %w", collectionPK, err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.ToolRunRecord
	for rows.Next() {
		var rec schema.ToolRunRecord
		var captured database.TimeValue
		var status string
		if err := rows.Scan(
			&rec.RunPK, &rec.RunID, &rec.RepoID, &rec.ToolName, &rec.ToolVersion,
			&rec.SchemaVersion, &rec.Branch, &rec.Commit, &captured, &status,
			&rec.ErrorMessage, &rec.CollectionRunPK); err != nil {
			return nil, fmt.Errorf("failed to scan tool run: %w", err)
		}
		rec.CapturedAt = captured.Time
		rec.Status = schema.RunStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListCollectionRuns returns the most recent collection runs, newest
// first.
func (r *RunRepository) ListCollectionRuns(ctx context.Context, limit int) ([]schema.CollectionRunRecord, error) {
	query := r.session.Rebind(`
		SELECT collection_pk, collection_id, repo_id, branch, commit_sha,
		       started_at, ended_at, status, error_message
		FROM lz_collection_runs ORDER BY collection_pk DESC LIMIT ?`)
	rows, err := r.session.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.CollectionRunRecord
	for rows.Next() {
		var rec schema.CollectionRunRecord
		var started, ended database.TimeValue
		var status string
		if err := rows.Scan(
			&rec.CollectionPK, &rec.CollectionID, &rec.RepoID, &rec.Branch, &rec.Commit,
			&started, &ended, &status, &rec.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan collection run: %w", err)
		}
		rec.StartedAt = started.Time
		rec.EndedAt = ended.Ptr()
		rec.Status = schema.RunStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FindRunPKByTool resolves the latest tool run of a collection for the
// given tool names. The second return is false when none exists.
func (r *RunRepository) FindRunPKByTool(ctx context.Context, collectionPK int64, toolNames ...string) (int64, bool, error) {
	if len(toolNames) == 0 {
		return 0, false, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(toolNames)), ", ")
	query := r.session.Rebind(fmt.Sprintf(`
		SELECT run_pk FROM lz_tool_runs
		WHERE collection_run_pk = ? AND tool_name IN (%s)
		ORDER BY run_pk DESC LIMIT 1`, placeholders))

	args := make([]any, 0, len(toolNames)+1)
	args = append(args, collectionPK)
	for _, name := range toolNames {
		args = append(args, name)
	}

	var pk int64
	err := r.session.DB().QueryRowContext(ctx, query, args...).Scan(&pk)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve tool run in collection %d: %w", collectionPK, err)
	}
	return pk, true, nil
}

// FindToolRunByRunID resolves the existing run of one tool under a run
// id. One tool runs at most once per run id; the pipeline checks this
// before registering a new run.
func (r *RunRepository) FindToolRunByRunID(ctx context.Context, runID, toolName string) (int64, bool, error) {
	query := r.session.Rebind(
		"SELECT run_pk FROM lz_tool_runs WHERE run_id = ? AND tool_name = ?")
	var pk int64
	err := r.session.DB().QueryRowContext(ctx, query, runID, toolName).Scan(&pk)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve run of %s for %q: %w", toolName, runID, err)
	}
	return pk, true, nil
}

// FindLayoutRun resolves the completed catalog run sharing a run id.
// Every tool invocation in one collection carries the same run id, so
// this links fact payloads to the catalog they were scanned against.
func (r *RunRepository) FindLayoutRun(ctx context.Context, runID string) (int64, bool, error) {
	query := r.session.Rebind(`
		SELECT run_pk FROM lz_tool_runs
		WHERE run_id = ? AND tool_name IN ('layout-scanner', 'layout') AND status = 'completed'
		ORDER BY run_pk DESC LIMIT 1`)
	var pk int64
	err := r.session.DB().QueryRowContext(ctx, query, runID).Scan(&pk)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve layout run for %q: %w", runID, err)
	}
	return pk, true, nil
}

// InsertCollectionRun registers a collection run.
func (r *RunRepository) InsertCollectionRun(ctx context.Context, run *entities.CollectionRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("collection run failed validation: %w", err)
	}
	query := r.session.Rebind(`
		INSERT INTO lz_collection_runs (
			collection_pk, collection_id, repo_id, branch, commit_sha,
			started_at, ended_at, status, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.session.DB().ExecContext(ctx, query,
		run.CollectionPK, run.CollectionID, run.RepoID, run.Branch, run.Commit,
		r.session.BindTime(run.StartedAt), r.session.BindTimePtr(run.EndedAt),
		run.Status, run.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to insert collection run %d: %w", run.CollectionPK, err)
	}
	return nil
}

// MarkCollectionRun closes out a collection run.
func (r *RunRepository) MarkCollectionRun(ctx context.Context, collectionPK int64, status schema.RunStatus, endedAt any, errorMessage *string) error {
	query := r.session.Rebind(`
		UPDATE lz_collection_runs SET status = ?, ended_at = ?, error_message = ?
		WHERE collection_pk = ?`)
	res, err := r.session.DB().ExecContext(ctx, query, string(status), endedAt, errorMessage, collectionPK)
	if err != nil {
		return fmt.Errorf("failed to mark collection run %d as %s: %w", collectionPK, status, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("collection run %d not found", collectionPK)
	}
	return nil
}

// FindCollectionRun looks up a collection by its external identifier.
func (r *RunRepository) FindCollectionRun(ctx context.Context, collectionID string) (schema.CollectionRunRecord, bool, error) {
	query := r.session.Rebind(`
		SELECT collection_pk, collection_id, repo_id, branch, commit_sha,
		       started_at, ended_at, status, error_message
		FROM lz_collection_runs WHERE collection_id = ?
		ORDER BY collection_pk DESC LIMIT 1`)
	var rec schema.CollectionRunRecord
	var started, ended database.TimeValue
	var status string
	err := r.session.DB().QueryRowContext(ctx, query, collectionID).Scan(
		&rec.CollectionPK, &rec.CollectionID, &rec.RepoID, &rec.Branch, &rec.Commit,
		&started, &ended, &status, &rec.ErrorMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.CollectionRunRecord{}, false, nil
	}
	if err != nil {
		return schema.CollectionRunRecord{}, false, fmt.Errorf("failed to load collection run %q: %w", collectionID, err)
	}
	rec.StartedAt = started.Time
	rec.EndedAt = ended.Ptr()
	rec.Status = schema.RunStatus(status)
	return rec, true, nil
}

// FindCollectionRunByCommit looks up the collection covering one
// (repo, commit) pair. Collections are unique on that pair.
func (r *RunRepository) FindCollectionRunByCommit(ctx context.Context, repoID, commit string) (schema.CollectionRunRecord, bool, error) {
	query := r.session.Rebind(`
		SELECT collection_pk, collection_id, repo_id, branch, commit_sha,
		       started_at, ended_at, status, error_message
		FROM lz_collection_runs WHERE repo_id = ? AND commit_sha = ?
		ORDER BY collection_pk DESC LIMIT 1`)
	var rec schema.CollectionRunRecord
	var started, ended database.TimeValue
	var status string
	err := r.session.DB().QueryRowContext(ctx, query, repoID, commit).Scan(
		&rec.CollectionPK, &rec.CollectionID, &rec.RepoID, &rec.Branch, &rec.Commit,
		&started, &ended, &status, &rec.ErrorMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.CollectionRunRecord{}, false, nil
	}
	if err != nil {
		return schema.CollectionRunRecord{}, false, fmt.Errorf("failed to load collection for %s at %s: %w", repoID, commit, err)
	}
	rec.StartedAt = started.Time
	rec.EndedAt = ended.Ptr()
	rec.Status = schema.RunStatus(status)
	return rec, true, nil
}

// CollectionRunPKs lists the tool run pks belonging to a collection.
func (r *RunRepository) CollectionRunPKs(ctx context.Context, collectionPK int64) ([]int64, error) {
	query := r.session.Rebind("SELECT run_pk FROM lz_tool_runs WHERE collection_run_pk = ?")
	rows, err := r.session.DB().QueryContext(ctx, query, collectionPK)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs of collection %d: %w", collectionPK, err)
	}
	defer func() { _ = rows.Close() }()

	var pks []int64
	for rows.Next() {
		var pk int64
		if err := rows.Scan(&pk); err != nil {
			return nil, fmt.Errorf("failed to scan run pk: %w", err)
		}
		pks = append(pks, pk)
	}
	return pks, rows.Err()
}

// DeleteByRunPKs removes all rows of the given runs from one landing
// table. Used by collection replacement to clear superseded facts.
func (r *RunRepository) DeleteByRunPKs(ctx context.Context, db database.DBTX, table string, runPKs []int64) error {
	if len(runPKs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(runPKs)), ", ")
	query := r.session.Rebind(fmt.Sprintf(
		"DELETE FROM %s WHERE run_pk IN (%s)", database.QuoteIdent(table), placeholders))
	args := make([]any, len(runPKs))
	for i, pk := range runPKs {
		args[i] = pk
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete runs from %s: %w", table, err)
	}
	return nil
}

// DeleteToolRuns removes the tool run registrations themselves.
func (r *RunRepository) DeleteToolRuns(ctx context.Context, db database.DBTX, runPKs []int64) error {
	if len(runPKs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(runPKs)), ", ")
	query := r.session.Rebind(fmt.Sprintf(
		"DELETE FROM lz_tool_runs WHERE run_pk IN (%s)", placeholders))
	args := make([]any, len(runPKs))
	for i, pk := range runPKs {
		args[i] = pk
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete tool runs: %w", err)
	}
	return nil
}

// DeleteCollectionRun removes a collection registration.
func (r *RunRepository) DeleteCollectionRun(ctx context.Context, db database.DBTX, collectionPK int64) error {
	query := r.session.Rebind("DELETE FROM lz_collection_runs WHERE collection_pk = ?")
	if _, err := db.ExecContext(ctx, query, collectionPK); err != nil {
		return fmt.Errorf("failed to delete collection run %d: %w", collectionPK, err)
	}
	return nil
}

// Status summarizes the landing zone for reporting.
func (r *RunRepository) Status(ctx context.Context, factTables []string) (schema.StoreStatus, error) {
	status := schema.StoreStatus{Backend: r.session.Backend()}

	if err := r.session.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM lz_tool_runs").Scan(&status.ToolRuns); err != nil {
		return status, fmt.Errorf("failed to count tool runs: %w", err)
	}
	if err := r.session.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM lz_collection_runs").Scan(&status.CollectionRuns); err != nil {
		return status, fmt.Errorf("failed to count collection runs: %w", err)
	}

	var last database.TimeValue
	if err := r.session.DB().QueryRowContext(ctx, "SELECT MAX(captured_at) FROM lz_tool_runs").Scan(&last); err == nil {
		status.LastRunAt = last.Ptr()
	}

	for _, table := range factTables {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", database.QuoteIdent(table))
		if err := r.session.DB().QueryRowContext(ctx, query).Scan(&count); err != nil {
			continue // table not created yet
		}
		status.Tables = append(status.Tables, schema.TableCount{Name: table, Rows: count})
	}
	return status, nil
}
