package validation

import (
	"fmt"

	"go.uber.org/zap"
)

// Checker accumulates quality violations across a whole payload so a
// single persist reports every problem at once instead of failing on
// the first row.
type Checker struct {
	tool       string
	violations []string
}

// NewChecker creates a checker for one tool's payload.
func NewChecker(tool string) *Checker {
	return &Checker{tool: tool}
}

// Add records a violation.
func (c *Checker) Add(format string, args ...any) {
	c.violations = append(c.violations, fmt.Sprintf(format, args...))
}

// Checkf records a violation when cond is false.
func (c *Checker) Checkf(cond bool, format string, args ...any) {
	if !cond {
		c.Add(format, args...)
	}
}

// NonNegative checks v >= 0.
func (c *Checker) NonNegative(field string, v int64) {
	c.Checkf(v >= 0, "%s must be non-negative, got %d", field, v)
}

// NonNegativeFloat checks v >= 0.
func (c *Checker) NonNegativeFloat(field string, v float64) {
	c.Checkf(v >= 0, "%s must be non-negative, got %g", field, v)
}

// Bounded checks lo <= v <= hi.
func (c *Checker) Bounded(field string, v, lo, hi float64) {
	c.Checkf(v >= lo && v <= hi, "%s must be within [%g, %g], got %g", field, lo, hi, v)
}

// Ratio checks 0 <= v <= 1.
func (c *Checker) Ratio(field string, v float64) {
	c.Bounded(field, v, 0, 1)
}

// Percent checks 0 <= v <= 100.
func (c *Checker) Percent(field string, v float64) {
	c.Bounded(field, v, 0, 100)
}

// SumEquals checks that a summed quantity lands within tol of want.
func (c *Checker) SumEquals(field string, got, want, tol float64) {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	c.Checkf(diff <= tol, "%s sums to %.2f, expected %.2f", field, got, want)
}

// NonEmpty checks v is not the empty string.
func (c *Checker) NonEmpty(field, v string) {
	c.Checkf(v != "", "%s must not be empty", field)
}

// OneOf checks v is a member of allowed.
func (c *Checker) OneOf(field, v string, allowed map[string]struct{}) {
	if _, ok := allowed[v]; !ok {
		c.Add("%s has unsupported value %q", field, v)
	}
}

// LineRange checks 1 <= start <= end.
func (c *Checker) LineRange(field string, start, end int64) {
	c.Checkf(start >= 1 && end >= start, "%s has invalid line range %d..%d", field, start, end)
}

// Count returns the number of violations recorded so far.
func (c *Checker) Count() int {
	return len(c.violations)
}

// Err logs every violation at WARN and returns a single QualityError,
// or nil when the payload is clean.
func (c *Checker) Err(logger *zap.Logger) error {
	if len(c.violations) == 0 {
		return nil
	}
	for _, v := range c.violations {
		logger.Warn("quality violation",
			zap.String("tool", c.tool),
			zap.String("violation", v))
	}
	return &QualityError{Tool: c.tool, Count: len(c.violations), Violations: c.violations}
}
