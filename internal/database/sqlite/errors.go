package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ncruces/go-sqlite3"

	"github.com/carlosatFroom/learning-system/internal/errs"
)

// mapError translates ncruces/go-sqlite3 errors into *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var sqliteErr *sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return errs.Wrap(classifyCode(sqliteErr.Code()), fmt.Sprintf("%s: %s", msg, sqliteErr.Error()), err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

func classifyCode(code sqlite3.ErrorCode) errs.ErrKind {
	switch code {
	case sqlite3.CONSTRAINT:
		return errs.ErrKindConflict
	case sqlite3.BUSY, sqlite3.LOCKED, sqlite3.INTERRUPT:
		return errs.ErrKindTimeout
	case sqlite3.CANTOPEN, sqlite3.NOTADB, sqlite3.CORRUPT:
		return errs.ErrKindConnectionFailed
	case sqlite3.PERM, sqlite3.AUTH, sqlite3.READONLY:
		return errs.ErrKindPermissionDenied
	default:
		return errs.ErrKindQueryFailed
	}
}
