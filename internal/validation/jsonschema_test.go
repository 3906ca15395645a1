package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validGitleaksPayload = `{
	"metadata": {
		"run_id": "c7a2f9d4-0b1e-4e6a-9f3c-2d8b5a1e0c4f",
		"repo_id": "acme/widgets",
		"tool_name": "gitleaks",
		"tool_version": "8.18.0",
		"schema_version": "1.0.0",
		"branch": "main",
		"commit": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"timestamp": "2026-03-14T09:30:00Z"
	},
	"data": {
		"findings": [
			{
				"path": "config/settings.py",
				"rule_id": "generic-api-key",
				"severity": "high",
				"line_number": 42,
				"entropy": 4.7,
				"in_current_head": true
			}
		]
	}
}`

func TestSchemaRegistryCoversAllTools(t *testing.T) {
	reg, err := NewSchemaRegistry()
	require.NoError(t, err)

	tools := reg.Tools()
	assert.Len(t, tools, 17)
	assert.Contains(t, tools, "layout-scanner")
	assert.Contains(t, tools, "trivy")
	assert.Contains(t, tools, "dependensee")
	assert.NotContains(t, tools, "metadata")
}

func TestValidatePayloadAccepted(t *testing.T) {
	reg, err := NewSchemaRegistry()
	require.NoError(t, err)

	assert.NoError(t, reg.ValidatePayload("gitleaks", []byte(validGitleaksPayload)))
}

func TestValidatePayloadCollectsAllViolations(t *testing.T) {
	reg, err := NewSchemaRegistry()
	require.NoError(t, err)

	// Bad commit, missing repo_id, findings entry without rule_id.
	payload := `{
		"metadata": {
			"run_id": "c7a2f9d4-0b1e-4e6a-9f3c-2d8b5a1e0c4f",
			"tool_name": "gitleaks",
			"commit": "short",
			"timestamp": "2026-03-14T09:30:00Z"
		},
		"data": {
			"findings": [{"path": "config/settings.py"}]
		}
	}`
	err = reg.ValidatePayload("gitleaks", []byte(payload))
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "gitleaks", schemaErr.Tool)
	assert.GreaterOrEqual(t, len(schemaErr.Violations), 3)
}

func TestValidatePayloadRejectsMalformedJSON(t *testing.T) {
	reg, err := NewSchemaRegistry()
	require.NoError(t, err)

	err = reg.ValidatePayload("scc", []byte("{not json"))
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Len(t, schemaErr.Violations, 1)
	assert.Contains(t, schemaErr.Violations[0].Message, "not valid JSON")
}

func TestValidatePayloadUnknownTool(t *testing.T) {
	reg, err := NewSchemaRegistry()
	require.NoError(t, err)

	err = reg.ValidatePayload("nonexistent-tool", []byte("{}"))
	require.Error(t, err)
	var schemaErr *SchemaError
	assert.NotErrorAs(t, err, &schemaErr)
}
