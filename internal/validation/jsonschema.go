package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/alexander-stage-hoco/caldera-sot/schemas"
)

// SchemaRegistry holds the compiled payload schemas, one per tool.
type SchemaRegistry struct {
	compiled map[string]*jsonschema.Schema
}

// NewSchemaRegistry compiles every embedded schema document.
func NewSchemaRegistry() (*SchemaRegistry, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	entries, err := fs.ReadDir(schemas.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded schemas: %w", err)
	}

	reg := &SchemaRegistry{compiled: make(map[string]*jsonschema.Schema, len(entries))}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := schemas.FS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
		}
		if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", name, err)
		}
	}
	for _, entry := range entries {
		name := entry.Name()
		// metadata.json is the shared envelope definition the tool
		// schemas $ref, not a tool of its own.
		if !strings.HasSuffix(name, ".json") || name == "metadata.json" {
			continue
		}
		compiledSchema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		reg.compiled[strings.TrimSuffix(name, ".json")] = compiledSchema
	}
	return reg, nil
}

// Tools returns the tool names that have a registered schema.
func (r *SchemaRegistry) Tools() []string {
	tools := make([]string, 0, len(r.compiled))
	for tool := range r.compiled {
		tools = append(tools, tool)
	}
	return tools
}

// ValidatePayload checks raw payload bytes against the tool's schema.
// Failures come back as a *SchemaError carrying every violation.
func (r *SchemaRegistry) ValidatePayload(tool string, raw []byte) error {
	compiledSchema, ok := r.compiled[tool]
	if !ok {
		return fmt.Errorf("no payload schema registered for tool %q", tool)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &SchemaError{
			Tool:       tool,
			Violations: []SchemaViolation{{Pointer: "", Message: fmt.Sprintf("payload is not valid JSON: %v", err)}},
		}
	}

	if err := compiledSchema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &SchemaError{Tool: tool, Violations: flattenValidation(ve)}
		}
		return &SchemaError{
			Tool:       tool,
			Violations: []SchemaViolation{{Pointer: "", Message: err.Error()}},
		}
	}
	return nil
}

// flattenValidation converts the validator's output tree into flat
// pointer/message pairs.
func flattenValidation(ve *jsonschema.ValidationError) []SchemaViolation {
	basic := ve.BasicOutput()
	violations := make([]SchemaViolation, 0, len(basic.Errors))
	for _, e := range basic.Errors {
		if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		violations = append(violations, SchemaViolation{
			Pointer: e.InstanceLocation,
			Message: e.Error,
		})
	}
	if len(violations) == 0 {
		violations = append(violations, SchemaViolation{Pointer: ve.InstanceLocation, Message: ve.Message})
	}
	return violations
}
