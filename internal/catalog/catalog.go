// Package catalog defines the entities of the learning platform's local store.
package catalog

import (
	"github.com/carlosatFroom/learning-system/internal/schema"
)

// DefaultPrefix is prepended to every table of the remote mirror.
const DefaultPrefix = "learning_system_"

func pk() schema.Column {
	return schema.Column{Name: "id", Type: schema.Integer, PrimaryKey: true, Indexed: true}
}

func col(name string, typ schema.ColumnType) schema.Column {
	return schema.Column{Name: name, Type: typ, Nullable: true}
}

func str(name string, size int) schema.Column {
	return schema.Column{Name: name, Type: schema.String, Size: size, Nullable: true}
}

func fk(column, table string) schema.ForeignKey {
	return schema.ForeignKey{Column: column, RefTable: table, RefColumn: "id"}
}

// Entities returns the platform's entity definitions in declaration order.
func Entities() []schema.Entity {
	title := str("title", 255)
	title.Indexed = true
	playlist := str("playlist_id", 255)
	playlist.Unique, playlist.Indexed = true, true
	youtube := str("youtube_id", 255)
	youtube.Indexed = true

	hidden := col("is_hidden", schema.Boolean)
	hidden.Default = false
	courseCreated := col("created_at", schema.DateTime)
	courseCreated.Default = schema.DefaultNow

	rating := col("rating", schema.Integer)
	rating.Default = 0
	answerCreated := col("created_at", schema.DateTime)
	answerCreated.Default = schema.DefaultNow

	user := str("user_id", 255)
	user.Default = "user"
	completed := col("completed", schema.Boolean)
	completed.Default = false
	score := col("score", schema.Integer)
	score.Default = 0
	watched := col("last_watched_timestamp", schema.Float)
	watched.Default = 0.0
	updated := col("updated_at", schema.DateTime)
	updated.Default = schema.DefaultNow

	return []schema.Entity{
		{
			Name:  "Course",
			Table: "courses",
			Columns: []schema.Column{
				pk(),
				title,
				col("description", schema.Text),
				playlist,
				hidden,
				courseCreated,
			},
		},
		{
			Name:  "Video",
			Table: "videos",
			Columns: []schema.Column{
				pk(),
				col("course_id", schema.Integer),
				youtube,
				str("title", 255),
				col("order", schema.Integer),
				col("duration", schema.Integer),
			},
			ForeignKeys: []schema.ForeignKey{fk("course_id", "courses")},
		},
		{
			Name:  "Transcript",
			Table: "transcripts",
			Columns: []schema.Column{
				pk(),
				col("video_id", schema.Integer),
				col("text", schema.Text),
				col("start_time", schema.Float),
				col("duration", schema.Float),
			},
			ForeignKeys: []schema.ForeignKey{fk("video_id", "videos")},
		},
		{
			Name:  "Question",
			Table: "questions",
			Columns: []schema.Column{
				pk(),
				col("video_id", schema.Integer),
				col("text", schema.Text),
				str("kind", 50),
				col("correct_answer_summary", schema.Text),
				col("timestamp_reference", schema.Float),
				col("follow_up_to_id", schema.Integer),
			},
			ForeignKeys: []schema.ForeignKey{fk("video_id", "videos")},
		},
		{
			Name:  "Answer",
			Table: "answers",
			Columns: []schema.Column{
				pk(),
				col("question_id", schema.Integer),
				col("user_answer", schema.Text),
				col("is_correct", schema.Boolean),
				rating,
				col("feedback", schema.Text),
				answerCreated,
			},
			ForeignKeys: []schema.ForeignKey{fk("question_id", "questions")},
		},
		{
			Name:  "VideoProgress",
			Table: "video_progress",
			Columns: []schema.Column{
				pk(),
				col("video_id", schema.Integer),
				user,
				completed,
				score,
				watched,
				updated,
			},
			ForeignKeys: []schema.ForeignKey{fk("video_id", "videos")},
		},
	}
}

// Schema validates and sorts the platform entities.
func Schema() (*schema.Schema, error) {
	return schema.New(Entities()...)
}

// MustSchema is Schema for process start; a broken definition is a
// programming error.
func MustSchema() *schema.Schema {
	s, err := Schema()
	if err != nil {
		panic(err)
	}
	return s
}
