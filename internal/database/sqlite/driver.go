// Package sqlite provides the SQLite implementation of database.DB, used for
// the platform's local store and for self-contained remotes in tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/carlosatFroom/learning-system/internal/database"
	"github.com/carlosatFroom/learning-system/internal/errs"
)

const defaultMaxOpenConns = 4

// Driver is a SQLite implementation of database.DB.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	*database.SQLDB
}

var _ database.DB = (*Driver)(nil)

// New opens (creating if needed) the database file named by cfg.DSN.
// Every pooled connection runs with foreign keys on and a busy timeout.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	path, connStr, err := connString(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, mapError(err, "failed to open database")
	}

	maxOpen := int(cfg.MaxConns)
	if maxOpen == 0 {
		maxOpen = defaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}

	d := &Driver{
		SQLDB: database.NewSQLDB(db, database.DialectSQLite, mapError, nil),
	}

	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, err
	}

	return d, nil
}

// ListTables returns all user-defined table names.
func (d *Driver) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	return d.QueryStrings(ctx, q)
}

// TableExists reports whether a table with the given name exists.
func (d *Driver) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`

	names, err := d.QueryStrings(ctx, q, table)
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// connString turns a bare path, "file:" URI or "sqlite://" URL into the
// driver's connection string, adding the pragmas and transaction mode the
// mirror needs.
func connString(dsn string) (path, conn string, err error) {
	raw := strings.TrimPrefix(dsn, "sqlite://")
	raw = strings.TrimPrefix(raw, "file:")
	if raw == "" {
		return "", "", errs.New(errs.ErrKindConfig, "sqlite DSN has no path")
	}

	path, query, _ := strings.Cut(raw, "?")
	params, err := url.ParseQuery(query)
	if err != nil {
		return "", "", errs.Wrap(errs.ErrKindConfig, "invalid sqlite DSN parameters", err)
	}
	if !hasPragma(params, "busy_timeout") {
		params.Add("_pragma", "busy_timeout(5000)")
	}
	if !hasPragma(params, "foreign_keys") {
		params.Add("_pragma", "foreign_keys(1)")
	}
	// writers take the lock at BEGIN; a deferred read-then-write
	// transaction can deadlock against another one
	if !params.Has("_txlock") {
		params.Set("_txlock", "immediate")
	}

	return path, fmt.Sprintf("file:%s?%s", path, params.Encode()), nil
}

func hasPragma(params url.Values, name string) bool {
	for _, p := range params["_pragma"] {
		if strings.HasPrefix(p, name) {
			return true
		}
	}
	return false
}
