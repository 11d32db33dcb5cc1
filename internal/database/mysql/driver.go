// Package mysql provides the MySQL implementation of database.DB.
package mysql

import (
	"context"
	"database/sql"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/carlosatFroom/learning-system/internal/database"
	"github.com/carlosatFroom/learning-system/internal/errs"
)

// Driver is a MySQL implementation of database.DB backed by database/sql.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	*database.SQLDB
}

var _ database.DB = (*Driver)(nil)

// New opens a MySQL connection pool using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := buildPool(cfg)
	if err != nil {
		return nil, err
	}

	d := &Driver{SQLDB: database.NewSQLDB(db, database.DialectMySQL, mapError, nil)}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout(cfg))
	defer cancel()

	if err := d.Ping(pingCtx); err != nil {
		d.Close()
		return nil, err
	}

	return d, nil
}

// ListTables returns all user-defined table names in the connected database.
func (d *Driver) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	return d.QueryStrings(ctx, q)
}

// TableExists reports whether a table with the given name exists.
func (d *Driver) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type   = 'BASE TABLE'
		  AND table_name   = ?`

	names, err := d.QueryStrings(ctx, q, table)
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// NormalizeDSN parses a go-sql-driver DSN and returns it with the options the
// mirror relies on (parseTime, UTC location) forced on.
func NormalizeDSN(dsn string) (string, error) {
	c, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindConfig, "invalid mysql DSN", err)
	}
	return withRequiredOptions(c).FormatDSN(), nil
}

func openDB(dsn string) (*sql.DB, error) {
	c, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, "invalid DSN", err)
	}
	connector, err := gomysql.NewConnector(withRequiredOptions(c))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, "invalid DSN", err)
	}
	return sql.OpenDB(connector), nil
}
