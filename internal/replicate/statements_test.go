package replicate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosatFroom/learning-system/internal/database"
	"github.com/carlosatFroom/learning-system/internal/schema"
)

// recorder captures statements and answers every lookup with no rows.
type recorder struct {
	queries []string
	execs   []string
	args    [][]any
}

func (r *recorder) Query(_ context.Context, sql string, _ ...any) (database.Rows, error) {
	r.queries = append(r.queries, sql)
	return emptyRows{}, nil
}

func (r *recorder) Exec(_ context.Context, sql string, args ...any) (int64, error) {
	r.execs = append(r.execs, sql)
	r.args = append(r.args, args)
	return 1, nil
}

type emptyRows struct{}

func (emptyRows) Next() bool                 { return false }
func (emptyRows) Scan(...any) error          { return nil }
func (emptyRows) Columns() ([]string, error) { return []string{"id"}, nil }
func (emptyRows) Close()                     {}
func (emptyRows) Err() error                 { return nil }

var videos = schema.Entity{
	Name:  "Video",
	Table: "learning_system_videos",
	Columns: []schema.Column{
		{Name: "id", Type: schema.Integer, PrimaryKey: true},
		{Name: "title", Type: schema.String, Size: 255, Nullable: true},
		{Name: "order", Type: schema.Integer, Nullable: true},
	},
}

func TestUpsert_MySQLStatements(t *testing.T) {
	rec := &recorder{}
	res, err := Upsert(context.Background(), rec, database.DialectMySQL, videos, []Row{{"id": int64(7), "title": "Intro", "order": int64(1)}})
	require.NoError(t, err)
	assert.Equal(t, Result{Inserted: 1, Total: 1}, res)

	require.Len(t, rec.queries, 1)
	assert.Equal(t, "SELECT `id`, `title`, `order` FROM `learning_system_videos` WHERE (`id` = ?) LIMIT ?", rec.queries[0])

	require.Len(t, rec.execs, 1)
	assert.Equal(t, "INSERT INTO `learning_system_videos` (`id`, `order`, `title`) VALUES (?, ?, ?)", rec.execs[0])
	assert.Equal(t, []any{int64(7), int64(1), "Intro"}, rec.args[0])
}

func TestUpsert_PostgresPlaceholders(t *testing.T) {
	rec := &recorder{}
	_, err := Upsert(context.Background(), rec, database.DialectPostgres, videos, []Row{{"id": int64(7), "title": "Intro", "order": int64(1)}})
	require.NoError(t, err)

	assert.Equal(t, `INSERT INTO "learning_system_videos" ("id", "order", "title") VALUES ($1, $2, $3)`, rec.execs[0])
}
