package schema

// ColumnSpec declares one column of a landing table.
type ColumnSpec struct {
	Name     string
	Type     string // portable SQL type, e.g. TEXT, BIGINT, DOUBLE PRECISION
	Nullable bool
}

// TableSpec declares a landing table: its name, columns and primary key.
type TableSpec struct {
	Name       string
	Columns    []ColumnSpec
	PrimaryKey []string
}

// Column returns the spec for the named column, if present.
func (t TableSpec) Column(name string) (ColumnSpec, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// ColumnNames returns the column names in declaration order.
func (t TableSpec) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
