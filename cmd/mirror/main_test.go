package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosatFroom/learning-system/internal/catalog"
	"github.com/carlosatFroom/learning-system/internal/database"
	"github.com/carlosatFroom/learning-system/internal/database/connect"
	"github.com/carlosatFroom/learning-system/internal/schema"
)

var envNames = []string{
	"sql_user", "sql_pwd", "sql_host", "sql_db", "sql_port", "sql_driver",
	"REMOTE_DB_URL", "LOCAL_DB_PATH", "SYNC_STATE_FILE", "SYNC_STATE_BACKEND",
	"SYNC_TABLE_PREFIX", "LOG_LEVEL",
}

// writeConfig prepares a local store with one course and returns a config
// file pointing at it and at a sqlite remote in the same temp dir.
func writeConfig(t *testing.T, withRemote bool) (cfgPath, dir string) {
	t.Helper()
	for _, env := range envNames {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}

	dir = t.TempDir()
	ctx := context.Background()

	local, err := connect.Open(ctx, database.DefaultConfig(database.DriverSQLite, filepath.Join(dir, "learning.db")))
	require.NoError(t, err)
	for _, e := range catalog.MustSchema().Entities() {
		_, err := local.Exec(ctx, schema.CreateTableSQL(e, database.DialectSQLite))
		require.NoError(t, err)
	}
	_, err = local.Exec(ctx, `INSERT INTO "courses" ("id", "title", "playlist_id", "is_hidden", "created_at") VALUES (1, 'Go', 'PL1', 0, '2025-01-01 10:00:00.000000')`)
	require.NoError(t, err)
	local.Close()

	var b strings.Builder
	b.WriteString("local:\n  dsn: " + filepath.Join(dir, "learning.db") + "\n")
	if withRemote {
		b.WriteString("remote:\n  url: sqlite:///" + filepath.Join(dir, "remote.db") + "\n")
	}
	b.WriteString("state:\n  file: " + filepath.Join(dir, "sync_state.json") + "\n")
	b.WriteString("log:\n  level: error\n")

	cfgPath = filepath.Join(dir, "mirror.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(b.String()), 0o644))
	return cfgPath, dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSync_ThenCooldown(t *testing.T) {
	cfg, dir := writeConfig(t, true)

	out, err := run(t, "--config", cfg, "sync", "--json")
	require.NoError(t, err, out)

	var rep struct {
		Status  string                    `json:"status"`
		Details map[string]map[string]int `json:"details"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "success", rep.Status)
	assert.Equal(t, 1, rep.Details["Course"]["synced"])
	assert.FileExists(t, filepath.Join(dir, "sync_state.json"))

	out, err = run(t, "--config", cfg, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped")

	out, err = run(t, "--config", cfg, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "can sync: false")

	out, err = run(t, "--config", cfg, "sync", "--force", "--reset")
	require.NoError(t, err)
	assert.Contains(t, out, "success")
	assert.Contains(t, out, "Course")
}

func TestSync_NoRemote(t *testing.T) {
	cfg, _ := writeConfig(t, false)

	out, err := run(t, "--config", cfg, "status", "--json")
	require.NoError(t, err)

	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, false, st["remote_configured"])
	assert.Equal(t, "no remote configured", st["message"])
	assert.Nil(t, st["last_sync"])
}

func TestSync_UnreachableRemoteIsSkipped(t *testing.T) {
	cfg, dir := writeConfig(t, false)

	// a directory cannot be opened as a database file
	bad := filepath.Join(dir, "not-a-db")
	require.NoError(t, os.MkdirAll(bad, 0o755))
	t.Setenv("REMOTE_DB_URL", "sqlite:///"+bad)

	out, err := run(t, "--config", cfg, "sync", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "remote unreachable")
	assert.NoFileExists(t, filepath.Join(dir, "sync_state.json"))
}

func TestSchema(t *testing.T) {
	cfg, _ := writeConfig(t, false)

	out, err := run(t, "--config", cfg, "schema", "--dialect", "postgres")
	require.NoError(t, err)
	assert.Contains(t, out, `CREATE TABLE IF NOT EXISTS "learning_system_courses"`)
	assert.Contains(t, out, "-- level 3")
	assert.Less(t, strings.Index(out, "learning_system_courses"), strings.Index(out, "learning_system_answers"))

	_, err = run(t, "--config", cfg, "schema", "--dialect", "oracle")
	require.Error(t, err)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "status")
	require.Error(t, err)
}
