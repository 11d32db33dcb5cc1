package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carlosatFroom/learning-system/internal/database"
)

func videoEntity() Entity {
	return Entity{
		Name:  "Video",
		Table: "learning_system_videos",
		Columns: []Column{
			{Name: "id", Type: Integer, PrimaryKey: true, Indexed: true},
			{Name: "course_id", Type: Integer, Nullable: true},
			{Name: "youtube_id", Type: String, Size: 255, Nullable: true, Indexed: true},
			{Name: "slug", Type: String, Size: 64, Nullable: true, Unique: true},
			{Name: "order", Type: Integer, Nullable: true},
			{Name: "hidden", Type: Boolean, Nullable: true, Default: false},
			{Name: "owner", Type: String, Size: 32, Nullable: true, Default: "o'brien"},
			{Name: "created_at", Type: DateTime, Nullable: true, Default: DefaultNow},
		},
		ForeignKeys: []ForeignKey{{Column: "course_id", RefTable: "learning_system_courses", RefColumn: "id"}},
	}
}

func TestCreateTableSQL_Postgres(t *testing.T) {
	sql := CreateTableSQL(videoEntity(), database.DialectPostgres)

	assert.Contains(t, sql, `CREATE TABLE IF NOT EXISTS "learning_system_videos" (`)
	assert.Contains(t, sql, `"id" INTEGER NOT NULL`)
	assert.Contains(t, sql, `"order" INTEGER`)
	assert.Contains(t, sql, `"slug" VARCHAR(64) UNIQUE`)
	assert.Contains(t, sql, `"hidden" BOOLEAN DEFAULT FALSE`)
	assert.Contains(t, sql, `"owner" VARCHAR(32) DEFAULT 'o''brien'`)
	assert.Contains(t, sql, `"created_at" TIMESTAMP DEFAULT CURRENT_TIMESTAMP`)
	assert.Contains(t, sql, `PRIMARY KEY ("id")`)
	assert.Contains(t, sql, `FOREIGN KEY ("course_id") REFERENCES "learning_system_courses" ("id")`)
}

func TestCreateTableSQL_MySQL(t *testing.T) {
	sql := CreateTableSQL(videoEntity(), database.DialectMySQL)

	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS `learning_system_videos` (")
	assert.Contains(t, sql, "`id` INT NOT NULL")
	assert.Contains(t, sql, "`hidden` BOOL DEFAULT FALSE")
	assert.Contains(t, sql, "`created_at` DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)")
	assert.Contains(t, sql, "FOREIGN KEY (`course_id`) REFERENCES `learning_system_courses` (`id`)")
}

func TestSQLType(t *testing.T) {
	tests := []struct {
		typ     ColumnType
		dialect database.Dialect
		want    string
	}{
		{Integer, database.DialectSQLite, "INTEGER"},
		{Text, database.DialectMySQL, "TEXT"},
		{DateTime, database.DialectSQLite, "DATETIME"},
		{DateTime, database.DialectPostgres, "TIMESTAMP"},
		{Float, database.DialectPostgres, "DOUBLE PRECISION"},
		{Float, database.DialectMySQL, "DOUBLE"},
		{Float, database.DialectSQLite, "REAL"},
		{Boolean, database.DialectSQLite, "BOOLEAN"},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String()+"/"+tt.dialect.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, SQLType(Column{Type: tt.typ}, tt.dialect))
		})
	}
}

func TestCreateIndexSQL(t *testing.T) {
	e := videoEntity()
	e.Columns = append(e.Columns, Column{Name: "code", Type: String, Size: 8, Unique: true, Indexed: true})

	stmts := CreateIndexSQL(e, database.DialectPostgres)
	assert.Equal(t, []string{
		`CREATE INDEX "ix_learning_system_videos_youtube_id" ON "learning_system_videos" ("youtube_id")`,
		`CREATE UNIQUE INDEX "ix_learning_system_videos_code" ON "learning_system_videos" ("code")`,
	}, stmts)

	assert.NotContains(t, CreateTableSQL(e, database.DialectPostgres), `"code" VARCHAR(8) UNIQUE`)
}

func TestDropTableSQL(t *testing.T) {
	assert.Equal(t, "DROP TABLE IF EXISTS `learning_system_videos`", DropTableSQL(videoEntity(), database.DialectMySQL))
}
