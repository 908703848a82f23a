package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)`)
	require.NoError(t, err)
	return db
}

func countNotes(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&n))
	return n
}

func TestSQLiteUnitOfWork_CommitAndRollback(t *testing.T) {
	db := openTestDB(t)
	uow := NewSQLiteUnitOfWork(db)
	ctx := context.Background()

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	_, err = SQLiteExec(txCtx, db).ExecContext(txCtx, `INSERT INTO notes (body) VALUES ('kept')`)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(txCtx))
	assert.Equal(t, 1, countNotes(t, db))

	txCtx, err = uow.Begin(ctx)
	require.NoError(t, err)
	_, err = SQLiteExec(txCtx, db).ExecContext(txCtx, `INSERT INTO notes (body) VALUES ('dropped')`)
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(txCtx))
	assert.Equal(t, 1, countNotes(t, db))
}

func TestSQLiteUnitOfWork_NestedJoinsOuter(t *testing.T) {
	db := openTestDB(t)
	uow := NewSQLiteUnitOfWork(db)

	outer, err := uow.Begin(context.Background())
	require.NoError(t, err)
	inner, err := uow.Begin(outer)
	require.NoError(t, err)

	outerInfo, _ := SQLiteTxInfoFromContext(outer)
	innerInfo, ok := SQLiteTxInfoFromContext(inner)
	require.True(t, ok)
	assert.Same(t, outerInfo.Tx, innerInfo.Tx)
	assert.False(t, innerInfo.Owned)

	// inner commit is a no-op, the outer rollback discards everything
	_, err = SQLiteExec(inner, db).ExecContext(inner, `INSERT INTO notes (body) VALUES ('nested')`)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(inner))
	require.NoError(t, uow.Rollback(outer))
	assert.Equal(t, 0, countNotes(t, db))
}

func TestSQLiteUnitOfWork_WithoutTransaction(t *testing.T) {
	uow := NewSQLiteUnitOfWork(openTestDB(t))

	assert.ErrorIs(t, uow.Commit(context.Background()), ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(context.Background()), ErrNoTransaction)

	_, ok := SQLiteTxInfoFromContext(WithSQLiteTx(context.Background(), nil, true))
	assert.False(t, ok)
}

func TestTimeColumns(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 30, 0, 500, time.FixedZone("CET", 3600))

	parsed, err := ParseTime(FormatTime(at))
	require.NoError(t, err)
	assert.True(t, at.Equal(parsed))
	assert.Equal(t, time.UTC, parsed.Location())

	null := FormatNullTime(nil)
	assert.False(t, null.Valid)
	got, err := ParseNullTime(null)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseNullTime(FormatNullTime(&at))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, at.Equal(*got))
}
