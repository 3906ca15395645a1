package entities

import "time"

// ToolRun is the registration row written the moment a payload passes
// schema validation. It survives even when a later pipeline step fails.
type ToolRun struct {
	RunPK           int64
	RunID           string
	RepoID          string
	ToolName        string
	ToolVersion     *string
	SchemaVersion   *string
	Branch          *string
	Commit          string
	CapturedAt      time.Time
	Status          string
	ErrorMessage    *string
	CollectionRunPK *int64
}

// Validate implements Entity.
func (r *ToolRun) Validate() error {
	return firstError(
		requirePK(r.RunPK),
		requireIdent("run_id", r.RunID),
		requireIdent("repo_id", r.RepoID),
		requireString("tool_name", r.ToolName),
		requireCommit("commit_sha", r.Commit),
		requireString("status", r.Status),
	)
}

// CollectionRun groups the tool runs of one ingestion sweep.
type CollectionRun struct {
	CollectionPK int64
	CollectionID string
	RepoID       string
	Branch       *string
	Commit       string
	StartedAt    time.Time
	EndedAt      *time.Time
	Status       string
	ErrorMessage *string
}

// Validate implements Entity.
func (r *CollectionRun) Validate() error {
	return firstError(
		requirePK(r.CollectionPK),
		requireIdent("collection_id", r.CollectionID),
		requireIdent("repo_id", r.RepoID),
		requireCommit("commit_sha", r.Commit),
		requireString("status", r.Status),
	)
}
