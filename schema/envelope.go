package schema

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Metadata identifies the tool run that produced a payload.
type Metadata struct {
	RunID         string    `json:"run_id"`
	RepoID        string    `json:"repo_id"`
	ToolName      string    `json:"tool_name"`
	ToolVersion   string    `json:"tool_version"`
	SchemaVersion string    `json:"schema_version"`
	Branch        string    `json:"branch"`
	Commit        string    `json:"commit"`
	Timestamp     time.Time `json:"timestamp"`
}

// Envelope is the outer structure of every tool payload. The data section
// is decoded by the matching adapter once the envelope has been validated.
type Envelope struct {
	Metadata Metadata        `json:"metadata"`
	Data     json.RawMessage `json:"data"`
}

// DecodeEnvelope parses raw payload bytes into an envelope.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode payload envelope: %w", err)
	}
	return &env, nil
}

// Validate checks the identity fields every payload must carry.
func (m *Metadata) Validate() error {
	if _, err := uuid.Parse(m.RunID); err != nil {
		return fmt.Errorf("metadata run_id %q is not a valid UUID: %w", m.RunID, err)
	}
	if m.RepoID == "" {
		return fmt.Errorf("metadata repo_id must not be empty")
	}
	if m.ToolName == "" {
		return fmt.Errorf("metadata tool_name must not be empty")
	}
	if len(m.Commit) != 40 {
		return fmt.Errorf("metadata commit %q must be a full 40-character SHA", m.Commit)
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("metadata timestamp must be set")
	}
	return nil
}
