package validation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// TableManager creates landing tables on first use and verifies that
// existing tables still match their declared specs. Existence is probed
// through catalog queries so a clean probe failure surfaces as an error
// instead of being mistaken for a missing table.
type TableManager struct {
	session *database.Session
}

// NewTableManager creates a table manager bound to one session.
func NewTableManager(session *database.Session) *TableManager {
	return &TableManager{session: session}
}

// Ensure creates the table when absent and validates its structure when
// present. Calling it repeatedly with the same spec is a no-op.
func (m *TableManager) Ensure(ctx context.Context, spec schema.TableSpec) error {
	exists, err := m.TableExists(ctx, spec.Name)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := m.session.DB().ExecContext(ctx, createTableSQL(spec)); err != nil {
			return &TableError{Table: spec.Name, Reason: fmt.Sprintf("create failed: %v", err)}
		}
		m.session.Logger().Info("created landing table", zap.String("table", spec.Name))
		return nil
	}
	return m.Validate(ctx, spec)
}

// TableExists probes the backend catalog for the table.
func (m *TableManager) TableExists(ctx context.Context, name string) (bool, error) {
	var query string
	switch m.session.Backend() {
	case schema.SQLiteBackend:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	case schema.PostgreSQLBackend:
		query = m.session.Rebind("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?")
	default:
		return false, fmt.Errorf("unsupported backend: %s", m.session.Backend())
	}

	var count int
	if err := m.session.DB().QueryRowContext(ctx, query, name).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to probe for table %s: %w", name, err)
	}
	return count > 0, nil
}

// Validate checks that every declared column exists with a compatible
// type. Extra live columns are tolerated; missing or mistyped ones are not.
func (m *TableManager) Validate(ctx context.Context, spec schema.TableSpec) error {
	live, err := m.columnTypes(ctx, spec.Name)
	if err != nil {
		return err
	}
	for _, col := range spec.Columns {
		liveType, ok := live[col.Name]
		if !ok {
			return &TableError{Table: spec.Name, Reason: fmt.Sprintf("column %s is missing", col.Name)}
		}
		if !typesCompatible(liveType, col.Type) {
			return &TableError{
				Table:  spec.Name,
				Reason: fmt.Sprintf("column %s has type %s, want %s", col.Name, liveType, col.Type),
			}
		}
	}
	return nil
}

// columnTypes reads the live column names and declared types.
func (m *TableManager) columnTypes(ctx context.Context, table string) (map[string]string, error) {
	types := make(map[string]string)

	switch m.session.Backend() {
	case schema.SQLiteBackend:
		rows, err := m.session.DB().QueryContext(ctx,
			fmt.Sprintf("PRAGMA table_info(%s)", database.QuoteIdent(table)))
		if err != nil {
			return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var cid int
			var name, colType string
			var notNull, pk int
			var dflt any
			if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
				return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
			}
			types[name] = colType
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate columns of %s: %w", table, err)
		}

	case schema.PostgreSQLBackend:
		query := m.session.Rebind(
			"SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ?")
		rows, err := m.session.DB().QueryContext(ctx, query, table)
		if err != nil {
			return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var name, colType string
			if err := rows.Scan(&name, &colType); err != nil {
				return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
			}
			types[name] = colType
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate columns of %s: %w", table, err)
		}

	default:
		return nil, fmt.Errorf("unsupported backend: %s", m.session.Backend())
	}

	return types, nil
}

// createTableSQL renders portable DDL for a table spec.
func createTableSQL(spec schema.TableSpec) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(database.QuoteIdent(spec.Name))
	b.WriteString(" (\n")
	for i, col := range spec.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("    ")
		b.WriteString(database.QuoteIdent(col.Name))
		b.WriteString(" ")
		b.WriteString(col.Type)
		if !col.Nullable {
			b.WriteString(" NOT NULL")
		}
	}
	if len(spec.PrimaryKey) > 0 {
		quoted := make([]string, len(spec.PrimaryKey))
		for i, col := range spec.PrimaryKey {
			quoted[i] = database.QuoteIdent(col)
		}
		b.WriteString(",\n    PRIMARY KEY (")
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteString(")")
	}
	b.WriteString("\n)")
	return b.String()
}

// typeFamilies maps type spellings to a canonical family so the same
// spec validates against both backends' catalogs.
var typeFamilies = map[string]string{
	"TEXT":              "TEXT",
	"VARCHAR":           "TEXT",
	"CHAR":              "TEXT",
	"CHARACTER":         "TEXT",
	"CHARACTER VARYING": "TEXT",
	"CLOB":              "TEXT",

	"INT":      "INTEGER",
	"INTEGER":  "INTEGER",
	"BIGINT":   "INTEGER",
	"SMALLINT": "INTEGER",
	"TINYINT":  "INTEGER",

	"REAL":             "REAL",
	"FLOAT":            "REAL",
	"DOUBLE":           "REAL",
	"DOUBLE PRECISION": "REAL",
	"NUMERIC":          "REAL",
	"DECIMAL":          "REAL",

	"BOOL":    "BOOLEAN",
	"BOOLEAN": "BOOLEAN",

	"DATETIME":                    "TIMESTAMP",
	"TIMESTAMP":                   "TIMESTAMP",
	"TIMESTAMPTZ":                 "TIMESTAMP",
	"TIMESTAMP WITHOUT TIME ZONE": "TIMESTAMP",
	"TIMESTAMP WITH TIME ZONE":    "TIMESTAMP",
}

// normalizeType strips length suffixes and maps the spelling to its family.
func normalizeType(t string) string {
	upper := strings.ToUpper(strings.TrimSpace(t))
	if idx := strings.Index(upper, "("); idx >= 0 {
		upper = strings.TrimSpace(upper[:idx])
	}
	if family, ok := typeFamilies[upper]; ok {
		return family
	}
	return upper
}

// typesCompatible reports whether a live column type satisfies the spec.
// Comparison is by type family, with a prefix fallback for spellings
// outside the known set.
func typesCompatible(live, want string) bool {
	liveNorm, wantNorm := normalizeType(live), normalizeType(want)
	if liveNorm == wantNorm {
		return true
	}
	return strings.HasPrefix(liveNorm, wantNorm)
}
