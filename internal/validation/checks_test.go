package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestCheckerAggregatesAllViolations verifies one error carries the full count.
func TestCheckerAggregatesAllViolations(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	c := NewChecker("lizard")
	c.NonNegative("files[0].nloc", -3)
	c.Ratio("files[0].coverage", 1.4)
	c.LineRange("functions[0]", 10, 4)
	c.NonEmpty("files[1].path", "")
	c.NonNegative("files[1].nloc", 12) // clean

	err := c.Err(logger)
	require.Error(t, err)

	var qe *QualityError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "lizard", qe.Tool)
	assert.Equal(t, 4, qe.Count)
	assert.Equal(t, 4, logs.Len(), "every violation should be logged individually")
}

// TestCheckerCleanPayload verifies a clean run returns nil.
func TestCheckerCleanPayload(t *testing.T) {
	c := NewChecker("scc")
	c.NonNegative("lines", 100)
	c.Percent("comment_ratio", 12.5)
	c.OneOf("severity", "HIGH", map[string]struct{}{"HIGH": {}, "LOW": {}})
	assert.NoError(t, c.Err(zap.NewNop()))
	assert.Equal(t, 0, c.Count())
}

// TestCheckerSumEquals verifies tolerance handling on both sides of the target.
func TestCheckerSumEquals(t *testing.T) {
	c := NewChecker("git-fame")
	c.SumEquals("ownership_pct", 99.8, 100, 0.5)
	c.SumEquals("ownership_pct", 100.3, 100, 0.5)
	assert.NoError(t, c.Err(zap.NewNop()))

	c = NewChecker("git-fame")
	c.SumEquals("ownership_pct", 92.1, 100, 0.5)
	assert.Error(t, c.Err(zap.NewNop()))

	c = NewChecker("git-fame")
	c.SumEquals("ownership_pct", 101.2, 100, 0.5)
	assert.Error(t, c.Err(zap.NewNop()))
}

// TestCheckerOneOf verifies membership failures name the bad value.
func TestCheckerOneOf(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := NewChecker("gitleaks")
	c.OneOf("severity", "URGENT", map[string]struct{}{"HIGH": {}})
	require.Error(t, c.Err(zap.New(core)))
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].ContextMap()["violation"], "URGENT")
}
