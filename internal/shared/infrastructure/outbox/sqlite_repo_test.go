package outbox_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), db))
	return db
}

func TestSQLiteRepository_Lifecycle(t *testing.T) {
	db := openDB(t)
	repo := outbox.NewSQLiteRepository(db)
	ctx := context.Background()

	first := newMessage(t, "productivity.task.created")
	second := newMessage(t, "scheduling.task.underscheduled")
	require.NoError(t, repo.SaveBatch(ctx, []*outbox.Message{first, second}))
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.EventID, pending[0].EventID)
	assert.Equal(t, first.AggregateID, pending[0].AggregateID)
	assert.JSONEq(t, string(first.Payload), string(pending[0].Payload))
	assert.Equal(t, first.EventMetadata(), pending[0].EventMetadata())

	require.NoError(t, repo.MarkPublished(ctx, first.ID))
	require.NoError(t, repo.MarkFailed(ctx, second.ID, "timeout", time.Now().Add(time.Hour)))

	pending, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "failed message waits for its retry time")

	deleted, err := repo.DeleteOld(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestSQLiteRepository_SaveBatchJoinsUnitOfWork(t *testing.T) {
	db := openDB(t)
	repo := outbox.NewSQLiteRepository(db)
	uow := persistence.NewSQLiteUnitOfWork(db)
	ctx := context.Background()

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.SaveBatch(txCtx, []*outbox.Message{newMessage(t, "productivity.task.completed")}))
	require.NoError(t, uow.Rollback(txCtx))

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	msg := newMessage(t, "productivity.task.completed")
	require.NoError(t, repo.Save(ctx, msg))
	require.NoError(t, repo.MarkDead(ctx, msg.ID, "poison"))
	pending, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
