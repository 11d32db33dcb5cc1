// Package replicate copies the rows of one entity from the local store into
// its mirror table, inserting missing rows and overwriting existing ones.
package replicate

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/carlosatFroom/learning-system/internal/database"
	"github.com/carlosatFroom/learning-system/internal/errs"
	"github.com/carlosatFroom/learning-system/internal/schema"
)

// Row is one normalized row snapshot keyed by column name.
type Row map[string]any

// Result counts what a table copy did.
type Result struct {
	// Inserted rows were absent remotely.
	Inserted int `json:"synced"`

	// Updated rows existed remotely and were overwritten.
	Updated int `json:"updated"`

	// Changed is the subset of Updated whose remote content differed.
	Changed int `json:"changed"`

	// Total is the number of local rows examined.
	Total int `json:"total"`
}

// Add accumulates o into r.
func (r *Result) Add(o Result) {
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.Changed += o.Changed
	r.Total += o.Total
}

// Side is one end of a table copy.
type Side struct {
	Dialect database.Dialect
	Entity  schema.Entity
}

// Job describes the copy of one entity.
type Job struct {
	Local  database.Querier
	Remote database.Execer

	From Side
	To   Side
}

// Table reads every local row of the entity and upserts it into the remote
// table. The first failing statement aborts the copy.
func Table(ctx context.Context, job Job) (Result, error) {
	rows, err := ReadRows(ctx, job.Local, job.From.Dialect, job.From.Entity)
	if err != nil {
		return Result{}, err
	}
	return Upsert(ctx, job.Remote, job.To.Dialect, job.To.Entity, rows)
}

// ReadRows returns all rows of e ordered by primary key, normalized to the
// column types.
func ReadRows(ctx context.Context, q database.Querier, d database.Dialect, e schema.Entity) ([]Row, error) {
	ds := d.Builder().
		From(e.Table).
		Select(columns(e)...).
		Order(goqu.I(e.PrimaryKey().Name).Asc()).
		Prepared(true)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to build select for "+e.Table, err)
	}

	raw, err := database.QueryMaps(ctx, q, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.KindOf(err), "failed to read "+e.Table, err)
	}

	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		n, err := e.NormalizeRow(r)
		if err != nil {
			return nil, err
		}
		rows = append(rows, n)
	}
	return rows, nil
}

// Upsert writes rows into e's table keyed by primary key: absent rows are
// inserted, present rows are overwritten in full. Rows missing locally are
// never deleted remotely.
func Upsert(ctx context.Context, x database.Execer, d database.Dialect, e schema.Entity, rows []Row) (Result, error) {
	res := Result{Total: len(rows)}
	pk := e.PrimaryKey().Name

	for _, row := range rows {
		id, ok := row[pk]
		if !ok || id == nil {
			return res, errs.Newf(errs.ErrKindInvalidInput, "%s: row without primary key", e.Table)
		}

		existing, found, err := lookup(ctx, x, d, e, id)
		if err != nil {
			return res, err
		}

		if !found {
			if err := insert(ctx, x, d, e, row); err != nil {
				return res, err
			}
			res.Inserted++
			continue
		}

		if err := update(ctx, x, d, e, row); err != nil {
			return res, err
		}
		res.Updated++
		if e.Checksum(existing) != e.Checksum(row) {
			res.Changed++
		}
	}
	return res, nil
}

func lookup(ctx context.Context, q database.Querier, d database.Dialect, e schema.Entity, id any) (Row, bool, error) {
	query, args, err := d.Builder().
		From(e.Table).
		Select(columns(e)...).
		Where(goqu.C(e.PrimaryKey().Name).Eq(id)).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrKindInvalidInput, "failed to build lookup for "+e.Table, err)
	}

	raw, err := database.QueryMaps(ctx, q, query, args...)
	if err != nil {
		return nil, false, errs.Wrap(errs.KindOf(err), fmt.Sprintf("%s: lookup id=%v", e.Table, id), err)
	}
	if len(raw) == 0 {
		return nil, false, nil
	}

	row, err := e.NormalizeRow(raw[0])
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

func insert(ctx context.Context, x database.Execer, d database.Dialect, e schema.Entity, row Row) error {
	q := d.Builder().Insert(e.Table)
	q = q.Rows(record(e, row, true))

	query, args, err := q.Prepared(true).ToSQL()
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to build insert for "+e.Table, err)
	}

	if _, err := x.Exec(ctx, query, args...); err != nil {
		return errs.Wrap(errs.KindOf(err), fmt.Sprintf("%s: insert id=%v", e.Table, row[e.PrimaryKey().Name]), err)
	}
	return nil
}

func update(ctx context.Context, x database.Execer, d database.Dialect, e schema.Entity, row Row) error {
	pk := e.PrimaryKey().Name

	q := d.Builder().Update(e.Table)
	q = q.Set(record(e, row, false))
	q = q.Where(goqu.C(pk).Eq(row[pk]))

	query, args, err := q.Prepared(true).ToSQL()
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to build update for "+e.Table, err)
	}

	if _, err := x.Exec(ctx, query, args...); err != nil {
		return errs.Wrap(errs.KindOf(err), fmt.Sprintf("%s: update id=%v", e.Table, row[pk]), err)
	}
	return nil
}

// record maps row onto e's columns. Columns absent from row are written as
// NULL so the remote copy matches the snapshot exactly.
func record(e schema.Entity, row Row, withKey bool) goqu.Record {
	rec := make(goqu.Record, len(e.Columns))
	for _, c := range e.Columns {
		if c.PrimaryKey && !withKey {
			continue
		}
		rec[c.Name] = row[c.Name]
	}
	return rec
}

func columns(e schema.Entity) []any {
	cols := make([]any, len(e.Columns))
	for i, c := range e.Columns {
		cols[i] = goqu.I(c.Name)
	}
	return cols
}
