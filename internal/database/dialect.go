package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexander-stage-hoco/caldera-sot/schema"
)

// Rebind rewrites "?" placeholders into the backend's native form.
// Queries are written with "?" and rebound to "$1, $2, ..." for PostgreSQL.
func (s *Session) Rebind(query string) string {
	if s.backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BindTime converts a timestamp into the backend's preferred bind value.
// SQLite stores RFC3339Nano text while PostgreSQL takes time.Time natively.
func (s *Session) BindTime(t time.Time) any {
	if s.backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t.UTC()
}

// BindTimePtr is BindTime for nullable timestamps.
func (s *Session) BindTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return s.BindTime(*t)
}

// TimeValue scans TIMESTAMP columns across backends, where SQLite hands
// back text and PostgreSQL hands back time.Time.
type TimeValue struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (tv *TimeValue) Scan(value any) error {
	tv.Time, tv.Valid = time.Time{}, false
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		tv.Time, tv.Valid = v, true
		return nil
	case string:
		return tv.parse(v)
	case []byte:
		return tv.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into TimeValue", value)
	}
}

func (tv *TimeValue) parse(s string) error {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			tv.Time, tv.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as timestamp", s)
}

// Ptr returns the scanned time as a nullable pointer.
func (tv *TimeValue) Ptr() *time.Time {
	if !tv.Valid {
		return nil
	}
	t := tv.Time
	return &t
}

// QuoteIdent quotes a table or column name with double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
