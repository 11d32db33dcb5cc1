// Package postgres provides the PostgreSQL implementation of database.DB.
//
// The pool is a pgxpool.Pool; statements run through database/sql on top of
// it (pgx stdlib) so they share the execution path of the other drivers.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/carlosatFroom/learning-system/internal/database"
	"github.com/carlosatFroom/learning-system/internal/errs"
)

// Driver is a PostgreSQL implementation of database.DB backed by pgxpool.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	*database.SQLDB
}

var _ database.DB = (*Driver)(nil)

// New connects to PostgreSQL using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	poolCfg, err := parseConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, mapError(err, "failed to create connection pool")
	}

	d := &Driver{
		SQLDB: database.NewSQLDB(stdlib.OpenDBFromPool(pool), database.DialectPostgres, mapError, pool.Close),
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout(cfg))
	defer cancel()

	if err := d.Ping(pingCtx); err != nil {
		d.Close()
		return nil, err
	}

	return d, nil
}

// ListTables returns all user-defined table names in the current schema.
func (d *Driver) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	return d.QueryStrings(ctx, q)
}

// TableExists reports whether a table with the given name exists in the current schema.
func (d *Driver) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_type   = 'BASE TABLE'
		  AND table_name   = $1`

	names, err := d.QueryStrings(ctx, q, table)
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ValidateDSN reports whether dsn is a connection string pgx can parse.
func ValidateDSN(dsn string) error {
	if _, err := pgxpool.ParseConfig(dsn); err != nil {
		return errs.Wrap(errs.ErrKindConfig, "invalid postgres connection string", err)
	}
	return nil
}

func parseConfig(cfg *database.Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, "invalid DSN", err)
	}

	poolCfg.MaxConns = withDefault(cfg.MaxConns, defaultMaxConns)
	poolCfg.MinConns = withDefault(cfg.MinConns, defaultMinConns)
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	poolCfg.ConnConfig.ConnectTimeout = connectTimeout(cfg)

	return poolCfg, nil
}

func connectTimeout(cfg *database.Config) time.Duration {
	if cfg.ConnectTimeout > 0 {
		return cfg.ConnectTimeout
	}
	return defaultConnTimeout
}
