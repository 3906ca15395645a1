package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

var demoSpec = schema.TableSpec{
	Name: "lz_demo_metrics",
	Columns: []schema.ColumnSpec{
		{Name: "run_pk", Type: "BIGINT"},
		{Name: "file_id", Type: "TEXT"},
		{Name: "score", Type: "DOUBLE PRECISION", Nullable: true},
		{Name: "is_binary", Type: "BOOLEAN"},
	},
	PrimaryKey: []string{"run_pk", "file_id"},
}

func newTestManager(t *testing.T) *TableManager {
	t.Helper()
	s, err := database.Open(schema.SQLiteBackend, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewTableManager(s)
}

// TestEnsureCreatesTable verifies first use creates the table.
func TestEnsureCreatesTable(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	exists, err := m.TableExists(ctx, demoSpec.Name)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, m.Ensure(ctx, demoSpec))

	exists, err = m.TableExists(ctx, demoSpec.Name)
	require.NoError(t, err)
	assert.True(t, exists)
}

// TestEnsureIsIdempotent verifies repeated ensures leave the table untouched.
func TestEnsureIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Ensure(ctx, demoSpec))
	require.NoError(t, m.Ensure(ctx, demoSpec))
	require.NoError(t, m.Ensure(ctx, demoSpec))
}

// TestValidateMissingColumn verifies a dropped column is reported.
func TestValidateMissingColumn(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.session.DB().ExecContext(ctx,
		`CREATE TABLE lz_demo_metrics (run_pk BIGINT NOT NULL, file_id TEXT NOT NULL)`)
	require.NoError(t, err)

	err = m.Ensure(ctx, demoSpec)
	require.Error(t, err)

	var te *TableError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, demoSpec.Name, te.Table)
	assert.Contains(t, te.Reason, "is_binary")
}

// TestValidateTypeMismatch verifies an incompatible column type is reported.
func TestValidateTypeMismatch(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.session.DB().ExecContext(ctx,
		`CREATE TABLE lz_demo_metrics (
			run_pk BIGINT NOT NULL,
			file_id TEXT NOT NULL,
			score TEXT,
			is_binary BOOLEAN NOT NULL
		)`)
	require.NoError(t, err)

	err = m.Ensure(ctx, demoSpec)
	require.Error(t, err)

	var te *TableError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Reason, "score")
}

// TestTypesCompatible covers cross-backend type spellings.
func TestTypesCompatible(t *testing.T) {
	tests := []struct {
		name string
		live string
		want string
		ok   bool
	}{
		{name: "identical", live: "TEXT", want: "TEXT", ok: true},
		{name: "varchar length", live: "VARCHAR(255)", want: "TEXT", ok: true},
		{name: "pg character varying", live: "character varying", want: "TEXT", ok: true},
		{name: "bigint vs integer family", live: "bigint", want: "INTEGER", ok: true},
		{name: "pg double precision", live: "double precision", want: "DOUBLE PRECISION", ok: true},
		{name: "pg timestamptz", live: "timestamp without time zone", want: "TIMESTAMP", ok: true},
		{name: "text where number expected", live: "TEXT", want: "BIGINT", ok: false},
		{name: "boolean vs text", live: "BOOLEAN", want: "TEXT", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, typesCompatible(tt.live, tt.want))
		})
	}
}
