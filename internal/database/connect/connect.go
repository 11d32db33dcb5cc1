// Package connect opens a database.DB for any supported driver. It is the only
// package above the drivers that imports them.
package connect

import (
	"context"

	"github.com/carlosatFroom/learning-system/internal/database"
	"github.com/carlosatFroom/learning-system/internal/database/mysql"
	"github.com/carlosatFroom/learning-system/internal/database/postgres"
	"github.com/carlosatFroom/learning-system/internal/database/sqlite"
	"github.com/carlosatFroom/learning-system/internal/errs"
)

// Opener opens a connection pool for cfg. Callers own the result and must
// Close it.
type Opener func(ctx context.Context, cfg *database.Config) (database.DB, error)

// Open dispatches on cfg.Driver and returns a pinged database.DB.
func Open(ctx context.Context, cfg *database.Config) (database.DB, error) {
	if cfg == nil || cfg.DSN == "" {
		return nil, errs.New(errs.ErrKindConfig, "database is not configured")
	}

	var (
		db  database.DB
		err error
	)
	switch cfg.Driver {
	case database.DriverPostgres:
		db, err = asDB(postgres.New(ctx, cfg))
	case database.DriverMySQL:
		db, err = asDB(mysql.New(ctx, cfg))
	case database.DriverSQLite:
		db, err = asDB(sqlite.New(ctx, cfg))
	default:
		return nil, errs.Newf(errs.ErrKindConfig, "unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}

// asDB keeps a typed nil driver from becoming a non-nil interface.
func asDB[T database.DB](d T, err error) (database.DB, error) {
	if err != nil {
		return nil, err
	}
	return d, nil
}

var _ Opener = Open
