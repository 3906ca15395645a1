package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexander-stage-hoco/caldera-sot/internal/database"
	"github.com/alexander-stage-hoco/caldera-sot/internal/entities"
)

// maxBindParams keeps multi-row inserts under the bind variable limits
// of both backends. SQLite allows 32766; stay well below it.
const maxBindParams = 30000

// InsertBulk writes rows as multi-row INSERT statements through db,
// which is either the pool or an open transaction. Every row is
// validated again before binding; a single bad row aborts the batch.
func InsertBulk[T entities.Entity](
	ctx context.Context,
	session *database.Session,
	db database.DBTX,
	table string,
	columns []string,
	rows []T,
	bind func(T) []any,
) error {
	if len(rows) == 0 {
		return nil
	}

	for i, row := range rows {
		if err := row.Validate(); err != nil {
			return fmt.Errorf("row %d for %s failed validation: %w", i, table, err)
		}
	}

	chunkSize := maxBindParams / len(columns)
	if chunkSize < 1 {
		chunkSize = 1
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = database.QuoteIdent(col)
	}
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	for start := 0; start < len(rows); start += chunkSize {
		end := min(start+chunkSize, len(rows))
		chunk := rows[start:end]

		var b strings.Builder
		b.WriteString("INSERT INTO ")
		b.WriteString(database.QuoteIdent(table))
		b.WriteString(" (")
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteString(") VALUES ")

		args := make([]any, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(placeholder)
			values := bind(row)
			if len(values) != len(columns) {
				return fmt.Errorf("bind for %s produced %d values, want %d", table, len(values), len(columns))
			}
			args = append(args, values...)
		}

		if _, err := db.ExecContext(ctx, session.Rebind(b.String()), args...); err != nil {
			return fmt.Errorf("bulk insert into %s failed: %w", table, err)
		}
	}
	return nil
}
