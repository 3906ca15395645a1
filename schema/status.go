package schema

import "time"

// TableCount pairs a landing table with its row count.
type TableCount struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// StoreStatus summarizes the state of the landing zone for reporting.
type StoreStatus struct {
	Backend        DatabaseBackend `json:"backend"`
	ToolRuns       int64           `json:"tool_runs"`
	CollectionRuns int64           `json:"collection_runs"`
	LastRunAt      *time.Time      `json:"last_run_at,omitempty"`
	Tables         []TableCount    `json:"tables"`
}

// ToolRunRecord represents a row from the lz_tool_runs table.
type ToolRunRecord struct {
	RunPK           int64     `json:"run_pk"`
	RunID           string    `json:"run_id"`
	RepoID          string    `json:"repo_id"`
	ToolName        string    `json:"tool_name"`
	ToolVersion     *string   `json:"tool_version,omitempty"`
	SchemaVersion   *string   `json:"schema_version,omitempty"`
	Branch          *string   `json:"branch,omitempty"`
	Commit          string    `json:"commit_sha"`
	CapturedAt      time.Time `json:"captured_at"`
	Status          RunStatus `json:"status"`
	ErrorMessage    *string   `json:"error_message,omitempty"`
	CollectionRunPK *int64    `json:"collection_run_pk,omitempty"`
}

// CollectionRunRecord represents a row from the lz_collection_runs table.
type CollectionRunRecord struct {
	CollectionPK int64      `json:"collection_pk"`
	CollectionID string     `json:"collection_id"`
	RepoID       string     `json:"repo_id"`
	Branch       *string    `json:"branch,omitempty"`
	Commit       string     `json:"commit_sha"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	Status       RunStatus  `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
}
