package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GiveMeAjob-job/Bear-Review/internal/shared/infrastructure/database"
)

func openTemp(t *testing.T) database.Connection {
	t.Helper()
	conn, err := database.NewConnection(context.Background(), database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "nested", "mirror.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpen_CreatesFileThroughRegistry(t *testing.T) {
	conn := openTemp(t)

	assert.Equal(t, database.DriverSQLite, conn.Driver())
	assert.NoError(t, conn.Ping(context.Background()))
	assert.FileExists(t, conn.(*Connection).Path())
}

func TestOpen_FromSQLiteURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.db")

	conn, err := database.NewConnection(context.Background(), database.Config{URL: "sqlite://" + path})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, path, conn.(*Connection).Path())
}

func TestConnection_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	conn := openTemp(t)

	_, err := conn.Exec(ctx, `CREATE TABLE tasks (id TEXT PRIMARY KEY, title TEXT)`)
	require.NoError(t, err)

	res, err := conn.Exec(ctx, `INSERT INTO tasks (id, title) VALUES (?, ?), (?, ?)`, "a", "Write", "b", "Read")
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	var title string
	require.NoError(t, conn.QueryRow(ctx, `SELECT title FROM tasks WHERE id = ?`, "b").Scan(&title))
	assert.Equal(t, "Read", title)

	rows, err := conn.Query(ctx, `SELECT id FROM tasks ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestInTx(t *testing.T) {
	ctx := context.Background()
	conn := openTemp(t)
	_, err := conn.Exec(ctx, `CREATE TABLE tasks (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	count := func() int {
		var n int
		require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n))
		return n
	}

	t.Run("commits on success", func(t *testing.T) {
		err := database.InTx(ctx, conn, func(tx database.Executor) error {
			_, err := tx.Exec(ctx, `INSERT INTO tasks (id) VALUES (?)`, "a")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, count())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := database.InTx(ctx, conn, func(tx database.Executor) error {
			if _, err := tx.Exec(ctx, `INSERT INTO tasks (id) VALUES (?)`, "b"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, count())
	})
}
