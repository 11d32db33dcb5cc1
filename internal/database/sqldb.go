package database

import (
	"context"
	"database/sql"
)

// ErrorMapper translates a driver-native error into *errs.Error.
// msg describes the operation that failed.
type ErrorMapper func(err error, msg string) error

// SQLDB is the database/sql core shared by every driver. Drivers embed it and
// add their catalog queries (ListTables, TableExists) and error mapping.
// It is safe for concurrent use by multiple goroutines.
type SQLDB struct {
	db      *sql.DB
	dialect Dialect
	mapErr  ErrorMapper
	onClose func()
}

// NewSQLDB wraps an open *sql.DB. onClose, when non-nil, runs after the pool
// is closed (drivers that layer database/sql over a native pool use it).
func NewSQLDB(db *sql.DB, dialect Dialect, mapErr ErrorMapper, onClose func()) *SQLDB {
	return &SQLDB{db: db, dialect: dialect, mapErr: mapErr, onClose: onClose}
}

// Ping verifies the database is reachable.
func (s *SQLDB) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.mapErr(err, "ping failed")
	}
	return nil
}

// Close drains the connection pool.
func (s *SQLDB) Close() {
	_ = s.db.Close()
	if s.onClose != nil {
		s.onClose()
	}
}

// Dialect reports the dialect statements must be built in.
func (s *SQLDB) Dialect() Dialect {
	return s.dialect
}

// Query executes a SQL statement that returns multiple rows.
func (s *SQLDB) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapErr(err, "query failed")
	}
	return &sqlRows{rows: rows, mapErr: s.mapErr}, nil
}

// Exec executes a statement returning rows affected.
func (s *SQLDB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, s.mapErr(err, "exec failed")
	}
	return rowsAffected(res), nil
}

// Begin starts a transaction.
func (s *SQLDB) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.mapErr(err, "begin failed")
	}
	return &sqlTx{tx: tx, mapErr: s.mapErr}, nil
}

// QueryStrings runs a query that returns a single text column.
func (s *SQLDB) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapErr(err, "query failed")
	}
	defer rows.Close()

	var list []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, s.mapErr(err, "scan failed")
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapErr(err, "error iterating rows")
	}
	return list, nil
}

// some drivers do not report affected rows; that is not a failure
func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return -1
	}
	return n
}

// --- database/sql type wrappers ---

type sqlRows struct {
	rows   *sql.Rows
	mapErr ErrorMapper
}

func (r *sqlRows) Next() bool                 { return r.rows.Next() }
func (r *sqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqlRows) Close()                     { _ = r.rows.Close() }

func (r *sqlRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return r.mapErr(err, "scan failed")
	}
	return nil
}

func (r *sqlRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return r.mapErr(err, "error iterating rows")
	}
	return nil
}

type sqlTx struct {
	tx     *sql.Tx
	mapErr ErrorMapper
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, t.mapErr(err, "query failed")
	}
	return &sqlRows{rows: rows, mapErr: t.mapErr}, nil
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, t.mapErr(err, "exec failed")
	}
	return rowsAffected(res), nil
}

func (t *sqlTx) Commit(_ context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return t.mapErr(err, "commit failed")
	}
	return nil
}

func (t *sqlTx) Rollback(_ context.Context) error {
	if err := t.tx.Rollback(); err != nil {
		return t.mapErr(err, "rollback failed")
	}
	return nil
}
