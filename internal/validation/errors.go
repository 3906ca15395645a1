package validation

import (
	"fmt"
	"strings"
)

// SchemaViolation is one JSON Schema failure inside a payload.
type SchemaViolation struct {
	Pointer string // JSON pointer into the payload
	Message string
}

// SchemaError reports that a payload failed JSON Schema validation.
// No database writes happen once this is raised.
type SchemaError struct {
	Tool       string
	Violations []SchemaViolation
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("payload for %s failed schema validation with %d violations", e.Tool, len(e.Violations))
}

// QualityError reports that extracted rows failed quality validation.
// Individual violations are logged at WARN before this is raised; the
// error message carries them too so the failed run row stays readable
// without the log stream.
type QualityError struct {
	Tool       string
	Count      int
	Violations []string
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("quality validation for %s failed with %d violations: %s",
		e.Tool, e.Count, strings.Join(e.Violations, "; "))
}

// TableError reports a landing table whose live structure does not match
// its declared spec.
type TableError struct {
	Table  string
	Reason string
}

func (e *TableError) Error() string {
	return fmt.Sprintf("landing table %s is incompatible: %s", e.Table, e.Reason)
}

// ReferentialError reports a row referencing a path that is absent from
// the file catalog, under a strict adapter.
type ReferentialError struct {
	Tool string
	Path string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("%s row references path %q which is not in the file catalog", e.Tool, e.Path)
}
