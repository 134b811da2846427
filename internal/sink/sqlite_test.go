package sink_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockplane/sqlsink/database/sqlite"
	"github.com/lockplane/sqlsink/internal/config"
	"github.com/lockplane/sqlsink/internal/session"
	"github.com/lockplane/sqlsink/internal/sink"
	"github.com/lockplane/sqlsink/internal/sqlbuilder"
)

func newSQLiteSink(t *testing.T, cfg config.SinkConfig) (*sink.Sink, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events.db")
	driver := sqlite.NewDriver()
	s, err := sink.New(sqlbuilder.New(cfg, driver), session.SQLOpener{Driver: driver, DSN: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func openDB(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func payloads(t *testing.T, db *sql.DB, table string) map[string]string {
	t.Helper()

	rows, err := db.Query(`SELECT "id", "payload" FROM "` + table + `"`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	got := map[string]string{}
	for rows.Next() {
		var id, payload string
		require.NoError(t, rows.Scan(&id, &payload))
		got[id] = payload
	}
	require.NoError(t, rows.Err())
	return got
}

func TestSQLiteCreatesMissingTables(t *testing.T) {
	s, path := newSQLiteSink(t, config.SinkConfig{
		Table:      "events_{0}",
		Columns:    []string{"day", "id", "payload"},
		KeyColumns: []string{"id"},
	})

	n, err := s.ExecuteQuery(context.Background(), []sink.Row{
		{"mon", "1", "a"},
		{"mon", "2", "b"},
		{"tue", "3", "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	stats := s.Stats()
	assert.Equal(t, 2, stats.Creates)
	assert.Equal(t, 0, stats.Lost)
	require.NoError(t, s.Close())

	db := openDB(t, path)
	assert.Equal(t, map[string]string{"1": "a", "2": "b"}, payloads(t, db, "events_mon"))
	assert.Equal(t, map[string]string{"3": "c"}, payloads(t, db, "events_tue"))
}

func TestSQLiteUpdatesConflictingRows(t *testing.T) {
	s, path := newSQLiteSink(t, config.SinkConfig{
		Table:      "events",
		Columns:    []string{"id", "payload"},
		KeyColumns: []string{"id"},
	})
	ctx := context.Background()

	n, err := s.ExecuteQuery(ctx, []sink.Row{{"1", "a"}, {"2", "b"}})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = s.ExecuteQuery(ctx, []sink.Row{{"3", "c"}, {"2", "B"}, {"4", "d"}, {"5", "e"}})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	stats := s.Stats()
	assert.Equal(t, 1, stats.Updates)
	assert.Equal(t, 0, stats.Lost)
	assert.Equal(t, 6, stats.Persisted)
	require.NoError(t, s.Close())

	db := openDB(t, path)
	assert.Equal(t, map[string]string{"1": "a", "2": "B", "3": "c", "4": "d", "5": "e"}, payloads(t, db, "events"))
}

func TestSQLiteLosesRowsThatCannotBeWritten(t *testing.T) {
	s, path := newSQLiteSink(t, config.SinkConfig{
		Table:      "events",
		Columns:    []string{"id", "payload"},
		KeyColumns: []string{"id"},
	})

	db := openDB(t, path)
	_, err := db.Exec(`CREATE TABLE "events" ("id" TEXT NOT NULL, "payload" TEXT CHECK (length("payload") < 5), PRIMARY KEY ("id"))`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO "events" ("id", "payload") VALUES ('9', 'old')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	n, err := s.ExecuteQuery(context.Background(), []sink.Row{
		{"1", "a"},
		{"9", "far too long"},
		{"2", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats := s.Stats()
	assert.Equal(t, 1, stats.Lost)
	assert.Equal(t, 1, stats.Updates)
	assert.Equal(t, 0, stats.Creates)
	require.NoError(t, s.Close())

	check := openDB(t, path)
	assert.Equal(t, map[string]string{"1": "a", "2": "b", "9": "old"}, payloads(t, check, "events"))
}

func TestSQLiteWithoutKeysKeepsDuplicates(t *testing.T) {
	s, path := newSQLiteSink(t, config.SinkConfig{
		Table:   "log",
		Columns: []string{"id", "payload"},
	})

	n, err := s.ExecuteQuery(context.Background(), []sink.Row{{"1", "a"}, {"1", "a"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, s.Close())

	var count int
	require.NoError(t, openDB(t, path).QueryRow(`SELECT COUNT(*) FROM "log"`).Scan(&count))
	assert.Equal(t, 2, count)
}
