package store

import "errors"

// Sentinel errors returned by storage engines to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrNotFound is returned when a Get targets a record that does not
	// exist in the given collection.
	ErrNotFound = errors.New("record not found")

	// ErrStorageFull is returned when the underlying engine rejects a write
	// because the device or database is out of space. The write did not
	// happen; callers may retry after freeing space.
	ErrStorageFull = errors.New("storage is full")
)

// Low-level database operation errors. These are returned (or wrapped) by the
// SQLite engine when a SQL-level operation fails before any domain logic can
// be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrScanningRows is returned when scanning column values from a result
	// set fails, typically mid-iteration.
	ErrScanningRows = errors.New("failed to scan record rows")
)
