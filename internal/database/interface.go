package database

import "context"

// Querier runs statements that return rows.
type Querier interface {
	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Execer runs both reads and writes.
type Execer interface {
	Querier

	// Exec executes a statement and returns the number of rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// Tx is a transaction scoped to a single remote table write.
// Every Tx must end in exactly one Commit or Rollback.
type Tx interface {
	Execer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB is the central contract for all database operations.
// Layers above this package talk only to this interface and never import the
// postgres, mysql or sqlite packages directly.
type DB interface {
	Execer

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Dialect reports the SQL dialect used to build statements for this DB.
	Dialect() Dialect

	// Begin starts a transaction.
	Begin(ctx context.Context) (Tx, error)

	// ListTables returns all user-defined table names.
	ListTables(ctx context.Context) ([]string, error)

	// TableExists reports whether a table with the given name exists.
	TableExists(ctx context.Context, table string) (bool, error)
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}
