// Package entities defines the typed landing rows and their invariants.
// Every row validates itself before it is allowed near an INSERT; the
// bulk writer re-checks as a second line of defense.
package entities

import (
	"fmt"
	"strings"

	"github.com/alexander-stage-hoco/caldera-sot/internal/pathutil"
)

// Entity is implemented by every landing row type.
type Entity interface {
	Validate() error
}

// Enumerations shared across tools.
var (
	// Severities covers the CRITICAL..LOW scale used by security scanners.
	Severities = map[string]struct{}{"CRITICAL": {}, "HIGH": {}, "MEDIUM": {}, "LOW": {}}

	// TrivySeverities additionally allows UNKNOWN.
	TrivySeverities = map[string]struct{}{"CRITICAL": {}, "HIGH": {}, "MEDIUM": {}, "LOW": {}, "UNKNOWN": {}}

	// HealthGrades are the git-sizer repository grades.
	HealthGrades = map[string]struct{}{"A": {}, "A+": {}, "B": {}, "B+": {}, "C": {}, "C+": {}, "D": {}, "D+": {}, "F": {}}

	// SymbolTypes classifies code symbols.
	SymbolTypes = map[string]struct{}{"function": {}, "class": {}, "method": {}, "variable": {}}

	// CallTypes classifies symbol calls.
	CallTypes = map[string]struct{}{"direct": {}, "dynamic": {}, "async": {}}

	// ImportTypes classifies file imports.
	ImportTypes = map[string]struct{}{"static": {}, "dynamic": {}, "type_checking": {}, "side_effect": {}}

	// LicenseCategories classifies detected licenses.
	LicenseCategories = map[string]struct{}{"permissive": {}, "weak-copyleft": {}, "copyleft": {}, "unknown": {}}

	// LicenseMatchTypes describes how a license was detected.
	LicenseMatchTypes = map[string]struct{}{"file": {}, "header": {}, "spdx": {}}

	// RiskLevels grades a repository's overall license risk.
	RiskLevels = map[string]struct{}{"low": {}, "medium": {}, "high": {}, "critical": {}, "unknown": {}}
)

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func requirePK(runPK int64) error {
	if runPK <= 0 {
		return fmt.Errorf("run_pk must be positive, got %d", runPK)
	}
	return nil
}

func requireIdent(field, v string) error {
	if v == "" || strings.TrimSpace(v) != v {
		return fmt.Errorf("%s must be a non-empty identifier", field)
	}
	return nil
}

func requireString(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s must be non-empty", field)
	}
	return nil
}

func requirePath(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s must be non-empty", field)
	}
	if !pathutil.IsRepoRelative(v) {
		return fmt.Errorf("%s must be repo-relative, got %q", field, v)
	}
	return nil
}

func requirePathPtr(field string, v *string) error {
	if v == nil {
		return nil
	}
	return requirePath(field, *v)
}

func nonNegInt(field string, v int64) error {
	if v < 0 {
		return fmt.Errorf("%s must be >= 0, got %d", field, v)
	}
	return nil
}

func nonNegIntPtr(field string, v *int64) error {
	if v == nil {
		return nil
	}
	return nonNegInt(field, *v)
}

func nonNegFloat(field string, v float64) error {
	if v < 0 {
		return fmt.Errorf("%s must be >= 0, got %g", field, v)
	}
	return nil
}

func nonNegFloatPtr(field string, v *float64) error {
	if v == nil {
		return nil
	}
	return nonNegFloat(field, *v)
}

func bounded(field string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s must be between %g and %g, got %g", field, lo, hi, v)
	}
	return nil
}

func boundedPtr(field string, v *float64, lo, hi float64) error {
	if v == nil {
		return nil
	}
	return bounded(field, *v, lo, hi)
}

// lineRange allows nil endpoints; set ones must be >= 1 and ordered.
func lineRange(start, end *int64) error {
	if start != nil && *start < 1 {
		return fmt.Errorf("line_start must be >= 1, got %d", *start)
	}
	if end != nil && *end < 1 {
		return fmt.Errorf("line_end must be >= 1, got %d", *end)
	}
	if start != nil && end != nil && *end < *start {
		return fmt.Errorf("line_end %d precedes line_start %d", *end, *start)
	}
	return nil
}

func oneOf(field, v string, allowed map[string]struct{}) error {
	if _, ok := allowed[v]; !ok {
		return fmt.Errorf("%s has unsupported value %q", field, v)
	}
	return nil
}

func oneOfPtr(field string, v *string, allowed map[string]struct{}) error {
	if v == nil {
		return nil
	}
	return oneOf(field, *v, allowed)
}

func requireCommit(field, v string) error {
	if len(v) != 40 {
		return fmt.Errorf("%s must be a 40-hex string, got %q", field, v)
	}
	for _, r := range v {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return fmt.Errorf("%s must be a 40-hex string, got %q", field, v)
		}
	}
	return nil
}
