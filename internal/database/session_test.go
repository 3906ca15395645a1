package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

func openTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := Open(schema.SQLiteBackend, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TestMigrateCreatesCoreTables verifies the core tables exist after migration.
func TestMigrateCreatesCoreTables(t *testing.T) {
	s := openTestSession(t)
	require.NoError(t, s.Migrate(-1))

	for _, table := range []string{"lz_run_sequence", "lz_collection_runs", "lz_tool_runs"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}

	var seq int64
	require.NoError(t, s.DB().QueryRow("SELECT value FROM lz_run_sequence").Scan(&seq))
	assert.Equal(t, int64(0), seq)
}

// TestMigrateIsIdempotent verifies re-running migrations is a no-op.
func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestSession(t)
	require.NoError(t, s.Migrate(-1))
	require.NoError(t, s.Migrate(-1))
}

// TestRebind verifies placeholder rewriting per backend.
func TestRebind(t *testing.T) {
	sqlite := &Session{backend: schema.SQLiteBackend}
	pg := &Session{backend: schema.PostgreSQLBackend}

	q := "INSERT INTO t (a, b) VALUES (?, ?)"
	assert.Equal(t, q, sqlite.Rebind(q))
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", pg.Rebind(q))
}

// TestWithTxRollsBackOnError verifies a failing callback leaves no rows.
func TestWithTxRollsBackOnError(t *testing.T) {
	s := openTestSession(t)
	require.NoError(t, s.Migrate(-1))

	err := s.WithTx(context.Background(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("UPDATE lz_run_sequence SET value = 99"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	var seq int64
	require.NoError(t, s.DB().QueryRow("SELECT value FROM lz_run_sequence").Scan(&seq))
	assert.Equal(t, int64(0), seq)
}

// TestTimeValueScan covers the backend-specific timestamp encodings.
func TestTimeValueScan(t *testing.T) {
	ref := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	var tv TimeValue
	require.NoError(t, tv.Scan(ref))
	assert.True(t, tv.Valid)
	assert.True(t, tv.Time.Equal(ref))

	require.NoError(t, tv.Scan(ref.Format(time.RFC3339Nano)))
	assert.True(t, tv.Valid)
	assert.True(t, tv.Time.Equal(ref))

	require.NoError(t, tv.Scan(nil))
	assert.False(t, tv.Valid)
	assert.Nil(t, tv.Ptr())

	assert.Error(t, tv.Scan(42))
}
