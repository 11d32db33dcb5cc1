package replicate

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosatFroom/learning-system/internal/catalog"
	"github.com/carlosatFroom/learning-system/internal/database"
	"github.com/carlosatFroom/learning-system/internal/database/sqlite"
	"github.com/carlosatFroom/learning-system/internal/errs"
	"github.com/carlosatFroom/learning-system/internal/schema"
)

type fixture struct {
	local, remote *sqlite.Driver
	course        Job
	video         Job
}

func open(t *testing.T, name string) *sqlite.Driver {
	t.Helper()
	d, err := sqlite.New(context.Background(), database.DefaultConfig(database.DriverSQLite, filepath.Join(t.TempDir(), name)))
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func create(t *testing.T, db database.DB, e schema.Entity) {
	t.Helper()
	_, err := db.Exec(context.Background(), schema.CreateTableSQL(e, db.Dialect()))
	require.NoError(t, err)
}

func exec(t *testing.T, db database.DB, sql string, args ...any) {
	t.Helper()
	_, err := db.Exec(context.Background(), sql, args...)
	require.NoError(t, err)
}

func count(t *testing.T, db database.DB, table string) int {
	t.Helper()
	rows, err := database.QueryMaps(context.Background(), db, `SELECT COUNT(*) AS n FROM "`+table+`"`)
	require.NoError(t, err)
	return int(rows[0]["n"].(int64))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	local := catalog.MustSchema()
	remote, err := local.Mirror(catalog.DefaultPrefix)
	require.NoError(t, err)

	f := &fixture{local: open(t, "local.db"), remote: open(t, "remote.db")}

	job := func(name string) Job {
		le, _ := local.Entity(name)
		re, _ := remote.Entity(name)
		create(t, f.local, le)
		create(t, f.remote, re)
		return Job{
			Local:  f.local,
			Remote: f.remote,
			From:   Side{Dialect: database.DialectSQLite, Entity: le},
			To:     Side{Dialect: database.DialectSQLite, Entity: re},
		}
	}
	f.course = job("Course")
	f.video = job("Video")

	created := time.Date(2025, 1, 2, 3, 4, 5, 600000000, time.UTC)
	exec(t, f.local, `INSERT INTO "courses" ("id", "title", "playlist_id", "is_hidden", "created_at") VALUES (?, ?, ?, ?, ?)`, 1, "Go", "PL1", false, created)
	exec(t, f.local, `INSERT INTO "courses" ("id", "title", "playlist_id", "is_hidden", "created_at") VALUES (?, ?, ?, ?, ?)`, 2, "SQL", "PL2", true, created)
	for i := 1; i <= 3; i++ {
		exec(t, f.local, `INSERT INTO "videos" ("id", "course_id", "youtube_id", "title", "order", "duration") VALUES (?, 1, ?, ?, ?, 60)`, i, "yt", "Part", i)
	}
	return f
}

func TestTable_InsertThenIdempotentUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := Table(ctx, f.course)
	require.NoError(t, err)
	assert.Equal(t, Result{Inserted: 2, Total: 2}, res)

	res, err = Table(ctx, f.video)
	require.NoError(t, err)
	assert.Equal(t, Result{Inserted: 3, Total: 3}, res)

	res, err = Table(ctx, f.video)
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 3, Total: 3}, res)

	res, err = Table(ctx, f.course)
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 2, Total: 2}, res, "timestamps and booleans must round-trip unchanged")
}

func TestTable_OverwritesAndCountsChanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := Table(ctx, f.course)
	require.NoError(t, err)
	_, err = Table(ctx, f.video)
	require.NoError(t, err)

	exec(t, f.local, `UPDATE "videos" SET "title" = ? WHERE "id" = 2`, "Part two")

	res, err := Table(ctx, f.video)
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 3, Changed: 1, Total: 3}, res)

	rows, err := database.QueryMaps(ctx, f.remote, `SELECT "title" FROM "learning_system_videos" WHERE "id" = 2`)
	require.NoError(t, err)
	assert.Equal(t, "Part two", rows[0]["title"])
}

func TestTable_LocalDeletesStayRemote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := Table(ctx, f.course)
	require.NoError(t, err)
	_, err = Table(ctx, f.video)
	require.NoError(t, err)

	exec(t, f.local, `DELETE FROM "videos" WHERE "id" = 3`)

	res, err := Table(ctx, f.video)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 3, count(t, f.remote, "learning_system_videos"))
}

func TestTable_MissingRemoteTableFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	exec(t, f.remote, `DROP TABLE "learning_system_courses"`)

	_, err := Table(ctx, f.course)
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err), "got %v", err)
}

func TestTable_ForeignKeyViolationFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// parents were never copied
	_, err := Table(ctx, f.video)
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err), "got %v", err)
}

func TestUpsert_RowWithoutKey(t *testing.T) {
	f := newFixture(t)
	_, err := Upsert(context.Background(), f.remote, database.DialectSQLite, f.course.To.Entity, []Row{{"title": "x"}})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestReadRows_Normalizes(t *testing.T) {
	f := newFixture(t)

	rows, err := ReadRows(context.Background(), f.local, database.DialectSQLite, f.course.From.Entity)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, false, rows[0]["is_hidden"])
	assert.Equal(t, true, rows[1]["is_hidden"])
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 600000000, time.UTC), rows[0]["created_at"])
	assert.Nil(t, rows[0]["description"])
}

func TestResult_Add(t *testing.T) {
	r := Result{Inserted: 1, Total: 1}
	r.Add(Result{Updated: 2, Changed: 1, Total: 2})
	assert.Equal(t, Result{Inserted: 1, Updated: 2, Changed: 1, Total: 3}, r)
}
