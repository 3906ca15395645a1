package schema

// Custom string types for type safety.
type (
	// DatabaseBackend represents the database backend for the landing zone.
	DatabaseBackend string

	// RunStatus represents the lifecycle state of a tool or collection run.
	RunStatus string

	// OutputMode represents the format of exported data.
	OutputMode string

	// ReferentialPolicy controls how a missing catalog entry is handled.
	ReferentialPolicy string
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	PostgreSQLBackend DatabaseBackend = "postgresql"
)

// All run statuses supported.
const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// All export output modes supported.
const (
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet" // default
)

// Referential policies for rows that reference the file catalog.
const (
	// LenientPolicy skips rows whose file path is absent from the catalog.
	LenientPolicy ReferentialPolicy = "lenient"
	// StrictPolicy aborts the whole persist when a path is absent.
	StrictPolicy ReferentialPolicy = "strict"
)

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	PostgreSQLBackend: {},
}

// ValidOutputModes lists all valid export output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
}
