package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenCreatesSchema(t *testing.T) {
	st := openTestStore(t)

	expectedTables := []string{"ranking", "item", "sync_outbox", "client_info"}
	for _, table := range expectedTables {
		var count int
		err := st.DB().QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		require.Equal(t, 1, count, "table %s should exist", table)
	}

	var foreignKeys int
	err := st.DB().QueryRow(`PRAGMA foreign_keys`).Scan(&foreignKeys)
	require.NoError(t, err)
	require.Equal(t, 1, foreignKeys)
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranked.db")

	st, err := Open(path, nil)
	require.NoError(t, err)
	_, err = st.DB().Exec(
		`INSERT INTO ranking (owner, title) VALUES ('anonymous', 'Movies')`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Reopening runs the migration again; existing data must survive.
	st, err = Open(path, nil)
	require.NoError(t, err)
	defer st.Close()

	var title string
	err = st.DB().QueryRow(`SELECT title FROM ranking`).Scan(&title)
	require.NoError(t, err)
	require.Equal(t, "Movies", title)
}

func TestMigrateAddsMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	// Simulate a database created before notes/remote_id existed.
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE ranking (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner TEXT NOT NULL,
		title TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE item (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ranking_id INTEGER NOT NULL REFERENCES ranking(id) ON DELETE CASCADE,
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		rank INTEGER NOT NULL,
		UNIQUE (ranking_id, rank)
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO ranking (owner, title) VALUES ('anonymous', 'Books')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	st, err := Open(path, nil)
	require.NoError(t, err)
	defer st.Close()

	// New columns exist and old data is intact.
	var description, remoteID sql.NullString
	var title string
	err = st.DB().QueryRow(
		`SELECT title, description, remote_id FROM ranking`).Scan(&title, &description, &remoteID)
	require.NoError(t, err)
	require.Equal(t, "Books", title)
	require.False(t, description.Valid)
	require.False(t, remoteID.Valid)

	_, err = st.DB().Exec(
		`INSERT INTO item (ranking_id, owner, name, notes, rank, remote_id)
		 SELECT id, owner, 'x', 'y', 1, NULL FROM ranking`)
	require.NoError(t, err)
}

func TestCascadeDelete(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	res, err := st.DB().ExecContext(ctx,
		`INSERT INTO ranking (owner, title) VALUES ('anonymous', 'Movies')`)
	require.NoError(t, err)
	rankingID, err := res.LastInsertId()
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		_, err = st.DB().ExecContext(ctx,
			`INSERT INTO item (ranking_id, owner, name, rank) VALUES (?, 'anonymous', 'n', ?)`,
			rankingID, i)
		require.NoError(t, err)
	}

	_, err = st.DB().ExecContext(ctx, `DELETE FROM ranking WHERE id = ?`, rankingID)
	require.NoError(t, err)

	var orphans int
	err = st.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM item`).Scan(&orphans)
	require.NoError(t, err)
	require.Equal(t, 0, orphans, "cascade delete must leave no orphan items")
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ranking (owner, title) VALUES ('anonymous', 'Doomed')`)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	err = st.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM ranking`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 0, count, "failed transaction must leave no partial effects")
}

func TestReset(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.DB().ExecContext(ctx,
		`INSERT INTO ranking (owner, title) VALUES ('user-1', 'Private')`)
	require.NoError(t, err)
	_, err = st.DB().ExecContext(ctx,
		`INSERT INTO sync_outbox (owner, operation, entity_kind, entity_id) VALUES ('user-1', 'create', 'ranking', 1)`)
	require.NoError(t, err)

	require.NoError(t, st.Reset(ctx))

	for _, table := range []string{"ranking", "item", "sync_outbox"} {
		var count int
		err = st.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count)
		require.NoError(t, err)
		require.Equal(t, 0, count, "table %s should be empty after reset", table)
	}
}

func TestDeviceIDIsStable(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	id1, err := st.DeviceID(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := st.DeviceID(ctx)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}

func TestOwnerDefaultsToAnonymous(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	owner, err := st.Owner(ctx)
	require.NoError(t, err)
	require.Equal(t, "anonymous", owner)
}

func TestSetOwnerPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranked.db")

	st, err := Open(path, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, st.SetOwner(ctx, "user-42"))
	require.NoError(t, st.Close())

	st, err = Open(path, nil)
	require.NoError(t, err)
	defer st.Close()

	owner, err := st.Owner(ctx)
	require.NoError(t, err)
	require.Equal(t, "user-42", owner)

	// Sign-out records the sentinel.
	require.NoError(t, st.SetOwner(ctx, "anonymous"))
	owner, err = st.Owner(ctx)
	require.NoError(t, err)
	require.Equal(t, "anonymous", owner)
}
